package knowledge

// Document is a chunk of source text stored in the vector index.
// Metadata is map[string]string to comply with chromem-go requirements.
type Document struct {
	ID       string            // unique within the collection, stable across re-ingestion
	Content  string            // chunk text
	Metadata map[string]string // source filename, chunk index, etc.
}

// Result is a single nearest-neighbor match.
type Result struct {
	Document Document

	// Distance is the cosine distance between the query embedding and the
	// document embedding: 0 = identical direction, 2 = opposite.
	Distance float64
}
