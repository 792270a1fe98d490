package sqlite

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/aretw0/litedoc/pkg/core"
)

func encodeDoc(doc core.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// decodeDoc keeps numbers as json.Number so large integer identifiers
// survive the round trip.
func decodeDoc(data []byte) (core.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return core.Document(m), nil
}

// idKey returns the canonical primary key for an identifier: its JSON form.
// Identifiers that marshal to the same JSON (a uuid.UUID and its string, an
// int and an int64) address the same document.
func idKey(id any) (string, error) {
	if id == nil {
		return "", core.ErrMissingID
	}
	data, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("encode identifier: %w", err)
	}
	if string(data) == "null" {
		return "", core.ErrMissingID
	}
	return string(data), nil
}

// docKey returns the canonical key of a document's identifier.
func docKey(doc core.Document) (string, error) {
	id, ok := doc.ID()
	if !ok {
		return "", core.ErrMissingID
	}
	return idKey(id)
}
