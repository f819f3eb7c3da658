package model

// ChunkMeta carries the provenance metadata attached to every chunk.
// It serializes as the chunk's metadata map.
type ChunkMeta struct {
	ParagraphIndex int      `json:"paragraph_index"`
	PageNumber     int      `json:"page_number"` // 1-based
	Section        string   `json:"section"`
	Figures        []string `json:"figures,omitempty"`
}

// Chunk is a fixed-size overlapping word window of a paragraph, the unit
// indexed for retrieval. ChunkIndex is unique across the whole document
// and strictly increasing in page, then paragraph, then window order.
// A Chunk is immutable once emitted.
type Chunk struct {
	PageIndex  int       `json:"page_index"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Meta       ChunkMeta `json:"metadata"`
}

// Match pairs a chunk with its retrieval score. Matches are transient;
// they are produced during retrieval and never persisted.
type Match struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
