package knowledge

// Document is a passage stored in the knowledge collection.
// Metadata is map[string]string to comply with chromem-go requirements.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Result is a single nearest-neighbor match with its similarity score.
type Result struct {
	Document   Document
	Similarity float32 // cosine similarity (0-1)
}
