package corpus

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dkurup/agenticrag/internal/domain/faults"
	"github.com/dkurup/agenticrag/internal/domain/ragModel"
	"github.com/dkurup/agenticrag/internal/rag/chunker"
	"github.com/dkurup/agenticrag/internal/rag/corpus/migrations"
	"github.com/dkurup/agenticrag/internal/rag/embedding"
	"github.com/dkurup/agenticrag/pkg/logger_i"

	"github.com/google/uuid"
)

// Store is the versioned corpus: one row per document version, one row per
// chunk, similarity search restricted to the latest version of each logical
// document and to chunks embedded with the configured model.
type Store struct {
	db        *sql.DB
	embedder  embedding.Embedder
	dimension int
	logger    *logger_i.Logger
}

type IngestParams struct {
	Source    string
	Title     string
	Text      string
	LogicalId string
	Upsert    bool
	JobId     string
}

func NewStore(dbPath string, embedder embedding.Embedder, dimension int) (*Store, error) {
	if embedder.ModelName() == "" {
		return nil, faults.Configuration("embedding model name is empty")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, faults.Persistence("create data directory", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, faults.Persistence("open database", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, faults.Persistence("enable foreign keys", err)
	}

	s := &Store{
		db:        db,
		embedder:  embedder,
		dimension: dimension,
		logger:    logger_i.NewLogger("CorpusStore"),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, faults.Persistence("run migrations", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations(version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// IngestText chunks and embeds the text, then persists the new document
// version and its chunks. The latest-flag flip and all inserts share one
// transaction so an interruption can never leave two latest rows, or a
// latest row with half its chunks.
func (s *Store) IngestText(ctx context.Context, p IngestParams) (ragModel.IngestResult, error) {
	var res ragModel.IngestResult

	chunks := chunker.SmartChunk(p.Text)

	// embed before taking the write lock; these are the slow external calls
	vectors := make([][]float32, 0, len(chunks))
	if len(chunks) > 0 {
		batch, err := s.embedder.BatchEmbedding(ctx, chunks)
		if err != nil {
			return res, err
		}
		if len(batch) != len(chunks) {
			return res, faults.ExternalCall("embedding", fmt.Errorf("got %d vectors for %d chunks", len(batch), len(chunks)))
		}
		for i, vec := range batch {
			if len(vec) != s.dimension {
				return res, faults.Configuration(fmt.Sprintf("embedding dimension %d does not match configured %d (chunk %d)", len(vec), s.dimension, i))
			}
			vectors = append(vectors, vec)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, faults.Persistence("begin ingest transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	logicalId := strings.TrimSpace(p.LogicalId)
	nextVersion := 1

	switch {
	case logicalId != "":
		if err := markNotLatest(ctx, tx, logicalId); err != nil {
			return res, err
		}
		var maxVersion int
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM documents WHERE logical_id = ?", logicalId).Scan(&maxVersion)
		if err != nil {
			return res, faults.Persistence("resolve max version", err)
		}
		nextVersion = maxVersion + 1

	case p.Upsert:
		row := tx.QueryRowContext(ctx,
			"SELECT logical_id, version FROM documents WHERE source = ? AND title = ? AND is_latest = 1 ORDER BY version DESC LIMIT 1",
			p.Source, p.Title)
		var existingVersion int
		switch err := row.Scan(&logicalId, &existingVersion); err {
		case nil:
			nextVersion = existingVersion + 1
			if err := markNotLatest(ctx, tx, logicalId); err != nil {
				return res, err
			}
		case sql.ErrNoRows:
			// no prior upload, fall through to a fresh mint
		default:
			return res, faults.Persistence("lookup by source and title", err)
		}
	}

	if logicalId == "" {
		logicalId = uuid.New().String()
	}

	var docId int64
	err = tx.QueryRowContext(ctx,
		"INSERT INTO documents(source, title, body, logical_id, version, is_latest) VALUES (?, ?, ?, ?, ?, 1) RETURNING id",
		p.Source, p.Title, p.Text, logicalId, nextVersion).Scan(&docId)
	if err != nil {
		return res, faults.Persistence("insert document", err)
	}
	if docId == 0 {
		return res, faults.Persistence("insert document", fmt.Errorf("insert returned no identity"))
	}

	modelName := s.embedder.ModelName()
	for i, content := range chunks {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO chunks(document_id, chunk_index, content, embedding, embedding_model) VALUES (?, ?, ?, ?, ?)",
			docId, i, content, float32SliceToBytes(vectors[i]), modelName)
		if err != nil {
			return res, faults.Persistence("insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, faults.Persistence("commit ingest", err)
	}

	s.logger.Info("Ingested document", "documentId", docId, "logicalId", logicalId, "version", nextVersion, "chunks", len(chunks))
	return ragModel.IngestResult{DocumentId: docId, LogicalId: logicalId, Version: nextVersion}, nil
}

func markNotLatest(ctx context.Context, tx *sql.Tx, logicalId string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE documents SET is_latest = 0 WHERE logical_id = ? AND is_latest = 1", logicalId)
	if err != nil {
		return faults.Persistence("demote old latest", err)
	}
	return nil
}

// Search returns the best-first top k hits among latest documents whose
// chunks were embedded with the configured model. A blank query returns
// nothing without touching the embedder.
func (s *Store) Search(ctx context.Context, query string, k int) ([]ragModel.ChunkHit, error) {
	if strings.TrimSpace(query) == "" || k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(queryVec) != s.dimension {
		return nil, faults.Configuration(fmt.Sprintf("query embedding dimension %d does not match corpus dimension %d", len(queryVec), s.dimension))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, d.title, c.chunk_index, c.content, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
		  AND d.is_latest = 1
		  AND c.embedding_model = ?
	`, s.embedder.ModelName())
	if err != nil {
		return nil, faults.Persistence("similarity scan", err)
	}
	defer rows.Close()

	var hits []ragModel.ChunkHit
	for rows.Next() {
		var hit ragModel.ChunkHit
		var blob []byte
		if err := rows.Scan(&hit.ChunkId, &hit.DocumentId, &hit.Title, &hit.ChunkIndex, &hit.Content, &blob); err != nil {
			return nil, faults.Persistence("scan chunk row", err)
		}
		hit.Score = 1 - cosineDistance(queryVec, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, faults.Persistence("iterate chunk rows", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Reembed recomputes embeddings for all chunks of in-scope documents and
// retags them. Chunk content, order and index are left untouched.
func (s *Store) Reembed(ctx context.Context, scope string, modelName string) (int, error) {
	where := ""
	if scope == "" || strings.EqualFold(scope, "latest") {
		where = "WHERE d.is_latest = 1"
	}
	if modelName == "" {
		modelName = s.embedder.ModelName()
	}

	docRows, err := s.db.QueryContext(ctx, "SELECT d.id FROM documents d "+where+" ORDER BY d.id")
	if err != nil {
		return 0, faults.Persistence("list documents for reembed", err)
	}
	var docIds []int64
	for docRows.Next() {
		var id int64
		if err := docRows.Scan(&id); err != nil {
			docRows.Close()
			return 0, faults.Persistence("scan document id", err)
		}
		docIds = append(docIds, id)
	}
	docRows.Close()
	if err := docRows.Err(); err != nil {
		return 0, faults.Persistence("iterate document ids", err)
	}

	updated := 0
	for _, docId := range docIds {
		chunkRows, err := s.db.QueryContext(ctx,
			"SELECT id, content FROM chunks WHERE document_id = ? ORDER BY chunk_index", docId)
		if err != nil {
			return updated, faults.Persistence("list chunks for reembed", err)
		}
		type row struct {
			id      int64
			content string
		}
		var pending []row
		for chunkRows.Next() {
			var r row
			if err := chunkRows.Scan(&r.id, &r.content); err != nil {
				chunkRows.Close()
				return updated, faults.Persistence("scan chunk for reembed", err)
			}
			pending = append(pending, r)
		}
		chunkRows.Close()
		if err := chunkRows.Err(); err != nil {
			return updated, faults.Persistence("iterate chunks for reembed", err)
		}

		for _, r := range pending {
			vec, err := s.embedder.GetEmbedding(ctx, r.content)
			if err != nil {
				return updated, err
			}
			_, err = s.db.ExecContext(ctx,
				"UPDATE chunks SET embedding = ?, embedding_model = ? WHERE id = ?",
				float32SliceToBytes(vec), modelName, r.id)
			if err != nil {
				return updated, faults.Persistence("update chunk embedding", err)
			}
			updated++
		}
	}
	return updated, nil
}

// HasAnyDocuments is the cheap existence probe behind the routing policy.
func (s *Store) HasAnyDocuments(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE is_latest = 1").Scan(&n); err != nil {
		return false, faults.Persistence("count documents", err)
	}
	return n > 0, nil
}
