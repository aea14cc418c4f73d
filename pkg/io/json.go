package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// WriteJSON encodes g as indented JSON and writes it to w. The mesh is
// included only when includeMesh is set.
func WriteJSON(g *dsg.Graph, w io.Writer, includeMesh bool) error {
	doc, err := toDocument[json.RawMessage](g, includeMesh, json.Marshal)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a graph written by [WriteJSON].
//
// ReadJSON returns an error if the input is malformed, names an unknown
// attribute kind, repeats a node id, or has an edge whose endpoints are
// missing. The returned graph is independent of r. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts ...dsg.Option) (*dsg.Graph, error) {
	var doc document[json.RawMessage]
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fromDocument(&doc, json.Unmarshal, opts...)
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *dsg.Graph, path string, includeMesh bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f, includeMesh)
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string, opts ...dsg.Option) (*dsg.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f, opts...)
}

type jsonCodec struct{}

func (jsonCodec) Encode(w io.Writer, g *dsg.Graph, includeMesh bool) error {
	return WriteJSON(g, w, includeMesh)
}

func (jsonCodec) Decode(r io.Reader, opts ...dsg.Option) (*dsg.Graph, error) {
	return ReadJSON(r, opts...)
}
