package entity

// EntityRecord is one record fetched from the external system. Name and
// Description are the fields embedded for semantic search; Fields carries
// everything else the provider returned, passed through to upserts untouched.
type EntityRecord struct {
	ID          string
	Name        string
	Description string
	Fields      map[string]string
}

// EmbeddingText returns the text an embedding job vectorizes for the record.
func (r EntityRecord) EmbeddingText() string {
	if r.Description == "" {
		return r.Name
	}
	return r.Name + "\n" + r.Description
}
