package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadFile reads the canonical JSON form: an array of row objects.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file %s: %w", path, err)
	}
	defer f.Close()
	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading dataset file %s: %w", path, err)
	}
	return ds, nil
}

// Decode parses a JSON array of rows from r.
func Decode(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding dataset json: %w", err)
	}
	return FromRows(rows)
}
