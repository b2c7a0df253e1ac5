package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/spellchain/pkg/chain"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalChain converts a builder's current state to JSON bytes.
func MarshalChain(b *chain.Builder) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(FromBuilder(b), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteChain writes a builder's current state as JSON to an io.Writer.
func WriteChain(b *chain.Builder, w io.Writer) error {
	return writeGraphTo(FromBuilder(b), w)
}

// WriteGraph writes a snapshot as indented JSON to an io.Writer.
func WriteGraph(g Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// WriteChainFile writes a builder's current state to a JSON file.
// The file is created with 0644 permissions.
func WriteChainFile(b *chain.Builder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(FromBuilder(b), f)
}

// ReadGraph decodes and validates a JSON snapshot.
func ReadGraph(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode: %w", err)
	}
	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// UnmarshalGraph deserializes and validates JSON bytes.
func UnmarshalGraph(data []byte) (Graph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
