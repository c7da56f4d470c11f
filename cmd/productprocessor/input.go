package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// openInput opens filename, or stdin for "-".
func openInput(filename string) (io.ReadCloser, error) {
	if filename == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	return f, nil
}

// readDocuments splits r into its top-level JSON documents. Documents may be
// separated by any whitespace, so both pretty-printed files and JSON lines work.
func readDocuments(r io.Reader) ([]string, error) {
	dec := json.NewDecoder(r)
	var docs []string
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, string(bytes.TrimSpace(raw)))
	}
}
