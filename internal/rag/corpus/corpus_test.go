package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder hands out deterministic unit-ish vectors so similarity
// ordering in tests is predictable.
type stubEmbedder struct {
	model      string
	embedCalls int
	vectorFor  func(text string) []float32
}

func (s *stubEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	s.embedCalls++
	return s.vectorFor(query), nil
}

func (s *stubEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		s.embedCalls++
		out[i] = s.vectorFor(c)
	}
	return out, nil
}

func (s *stubEmbedder) ModelName() string { return s.model }

func defaultVector(text string) []float32 {
	// axis-ish vectors keyed on the first byte keep cosine scores distinct
	v := []float32{0.1, 0.1, 0.1, 0.1}
	if len(text) > 0 {
		v[int(text[0])%4] = 1
	}
	return v
}

func newTestStore(t *testing.T) (*Store, *stubEmbedder) {
	t.Helper()
	emb := &stubEmbedder{model: "stub-embed-1", vectorFor: defaultVector}
	s, err := NewStore(filepath.Join(t.TempDir(), "corpus.db"), emb, 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, emb
}

func countLatest(t *testing.T, s *Store, logicalId string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE logical_id = ? AND is_latest = 1", logicalId).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestIngestText_FreshDocument(t *testing.T) {
	s, _ := newTestStore(t)

	res, err := s.IngestText(context.Background(), IngestParams{
		Source: "upload", Title: "report.pdf", Text: "Plain paragraph about revenue trends.",
	})
	require.NoError(t, err)

	assert.NotZero(t, res.DocumentId)
	assert.NotEmpty(t, res.LogicalId)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 1, countLatest(t, s, res.LogicalId))
}

func TestIngestText_UpsertIncrementsVersion(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.IngestText(ctx, IngestParams{Source: "upload", Title: "report.pdf", Text: "first upload", Upsert: true})
	require.NoError(t, err)

	second, err := s.IngestText(ctx, IngestParams{Source: "upload", Title: "report.pdf", Text: "second upload", Upsert: true})
	require.NoError(t, err)

	assert.Equal(t, first.LogicalId, second.LogicalId)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 1, countLatest(t, s, second.LogicalId), "exactly one latest row per logical id")
}

func TestIngestText_ExplicitLogicalId(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.IngestText(ctx, IngestParams{Source: "api", Title: "notes", Text: "v1 text"})
	require.NoError(t, err)

	second, err := s.IngestText(ctx, IngestParams{
		Source: "api", Title: "notes", Text: "v2 text", LogicalId: first.LogicalId,
	})
	require.NoError(t, err)

	assert.Equal(t, first.LogicalId, second.LogicalId)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 1, countLatest(t, s, first.LogicalId))
}

func TestIngestText_UpsertDistinctTitlesStaySeparate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.IngestText(ctx, IngestParams{Source: "upload", Title: "a.pdf", Text: "doc a", Upsert: true})
	require.NoError(t, err)
	b, err := s.IngestText(ctx, IngestParams{Source: "upload", Title: "b.pdf", Text: "doc b", Upsert: true})
	require.NoError(t, err)

	assert.NotEqual(t, a.LogicalId, b.LogicalId)
	assert.Equal(t, 1, b.Version)
}

func TestSearch_BlankQuerySkipsEmbedder(t *testing.T) {
	s, emb := newTestStore(t)

	_, err := s.IngestText(context.Background(), IngestParams{Source: "x", Title: "t", Text: "some content"})
	require.NoError(t, err)
	callsAfterIngest := emb.embedCalls

	hits, err := s.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, callsAfterIngest, emb.embedCalls, "blank query must not invoke the embedder")
}

func TestSearch_OnlyLatestVersionIsVisible(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.IngestText(ctx, IngestParams{Source: "upload", Title: "r.pdf", Text: "old body text", Upsert: true})
	require.NoError(t, err)
	_, err = s.IngestText(ctx, IngestParams{Source: "upload", Title: "r.pdf", Text: "new body text", Upsert: true})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "new body text", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.Equal(t, "new body text", h.Content, "old versions must be invisible to search")
	}
}

func TestSearch_OrderedBestFirstAndCapped(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.IngestText(ctx, IngestParams{
			Source: "gen", Title: fmt.Sprintf("doc-%d", i), Text: fmt.Sprintf("%c distinct body", 'a'+i),
		})
		require.NoError(t, err)
	}

	hits, err := s.Search(ctx, "a distinct body", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "hits must be sorted best-first")
	}
}

func TestReembed_RetagsWithoutTouchingContent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.IngestText(ctx, IngestParams{Source: "x", Title: "t", Text: "stable content"})
	require.NoError(t, err)

	n, err := s.Reembed(ctx, "latest", "stub-embed-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var content, model string
	err = s.db.QueryRow("SELECT content, embedding_model FROM chunks LIMIT 1").Scan(&content, &model)
	require.NoError(t, err)
	assert.Equal(t, "stable content", content)
	assert.Equal(t, "stub-embed-2", model)

	// retagged chunks no longer match the configured model, so search skips them
	hits, err := s.Search(ctx, "stable content", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestReembed_AllScopeIncludesOldVersions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.IngestText(ctx, IngestParams{Source: "u", Title: "r", Text: "version one", Upsert: true})
	require.NoError(t, err)
	_, err = s.IngestText(ctx, IngestParams{Source: "u", Title: "r", Text: "version two", Upsert: true})
	require.NoError(t, err)

	latestOnly, err := s.Reembed(ctx, "latest", "")
	require.NoError(t, err)
	all, err := s.Reembed(ctx, "all", "")
	require.NoError(t, err)

	assert.Equal(t, 1, latestOnly)
	assert.Equal(t, 2, all)
}

func TestHasAnyDocuments(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	empty, err := s.HasAnyDocuments(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	_, err = s.IngestText(ctx, IngestParams{Source: "x", Title: "t", Text: "anything"})
	require.NoError(t, err)

	populated, err := s.HasAnyDocuments(ctx)
	require.NoError(t, err)
	assert.True(t, populated)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, float64(1), cosineDistance([]float32{1}, []float32{1, 0}))
	assert.Equal(t, float64(1), cosineDistance(nil, nil))
}

func TestFloat32RoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
