package model

// Section is one extracted span of document text with its source page.
type Section struct {
	Text string
	Page int
}

// Chunk is a bounded slice of document text retaining its source page.
type Chunk struct {
	Text string
	Page int
}

// IngestResult reports the outcome of a successful document ingestion.
type IngestResult struct {
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	Ready      bool   `json:"ready"`
}
