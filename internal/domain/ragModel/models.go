package ragModel

import "time"

// Document is one stored version of a logical document. All versions of a
// re-uploaded file share a LogicalId; at most one of them is latest.
type Document struct {
	Id        int64     `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	LogicalId string    `json:"logical_id"`
	Version   int       `json:"version"`
	IsLatest  bool      `json:"is_latest"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is the unit of embedding and retrieval, owned by exactly one
// document version. Content and index never change after ingest; a reembed
// replaces only the embedding and its model tag.
type Chunk struct {
	Id             int64     `json:"id"`
	DocumentId     int64     `json:"document_id"`
	ChunkIndex     int       `json:"chunk_index"`
	Content        string    `json:"content"`
	Embedding      []float32 `json:"-"`
	EmbeddingModel string    `json:"embedding_model"`
}

// ChunkHit is an ephemeral similarity-search result. Score is
// 1 - cosine distance, so higher is better.
type ChunkHit struct {
	ChunkId    int64   `json:"chunk_id"`
	DocumentId int64   `json:"document_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type Citation struct {
	ChunkId    int64   `json:"chunk_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type FinalAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// IngestResult reports where an ingested text landed.
type IngestResult struct {
	DocumentId int64  `json:"documentId"`
	LogicalId  string `json:"logicalId"`
	Version    int    `json:"version"`
}
