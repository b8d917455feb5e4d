package docstore

import (
	"github.com/goccy/go-json"
)

// Marshal converts a struct into a Document via its JSON representation.
func Marshal(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Unmarshal populates a struct from a Document via its JSON representation.
func Unmarshal(doc Document, v any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
