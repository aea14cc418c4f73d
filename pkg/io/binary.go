package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/scenegraph/pkg/dsg"
)

// binaryMagic prefixes every binary graph.
var binaryMagic = []byte("SGDSG\x00")

func newEncoder(w io.Writer) *msgpack.Encoder {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	return enc
}

func newDecoder(r io.Reader) *msgpack.Decoder {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	return dec
}

func marshalBinary(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := newEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalBinary(data []byte, v any) error {
	return newDecoder(bytes.NewReader(data)).Decode(v)
}

// WriteBinary encodes g as MessagePack behind a short magic header.
func WriteBinary(g *dsg.Graph, w io.Writer, includeMesh bool) error {
	doc, err := toDocument[msgpack.RawMessage](g, includeMesh, marshalBinary)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(binaryMagic); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := newEncoder(bw).Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return bw.Flush()
}

// ReadBinary decodes a graph written by [WriteBinary].
func ReadBinary(r io.Reader, opts ...dsg.Option) (*dsg.Graph, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(binaryMagic))
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("decode: read header: %w", err)
	}
	if !bytes.Equal(header, binaryMagic) {
		return nil, fmt.Errorf("decode: not a binary scene graph")
	}
	var doc document[msgpack.RawMessage]
	if err := newDecoder(br).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fromDocument(&doc, unmarshalBinary, opts...)
}

type binaryCodec struct{}

func (binaryCodec) Encode(w io.Writer, g *dsg.Graph, includeMesh bool) error {
	return WriteBinary(g, w, includeMesh)
}

func (binaryCodec) Decode(r io.Reader, opts ...dsg.Option) (*dsg.Graph, error) {
	return ReadBinary(r, opts...)
}

func init() {
	dsg.RegisterCodec(dsg.FormatJSON, jsonCodec{})
	dsg.RegisterCodec(dsg.FormatBinary, binaryCodec{})
}
