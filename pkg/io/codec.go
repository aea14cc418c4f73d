package io

import (
	"bytes"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// Marshal encodes g in the given format.
func Marshal(g *dsg.Graph, format dsg.Format, includeMesh bool) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case dsg.FormatJSON:
		err = WriteJSON(g, &buf, includeMesh)
	case dsg.FormatBinary:
		err = WriteBinary(g, &buf, includeMesh)
	default:
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, dsg.ErrUnknownFormat, "cannot encode %s graphs", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a graph encoded by [Marshal].
func Unmarshal(data []byte, format dsg.Format, opts ...dsg.Option) (*dsg.Graph, error) {
	switch format {
	case dsg.FormatJSON:
		return ReadJSON(bytes.NewReader(data), opts...)
	case dsg.FormatBinary:
		return ReadBinary(bytes.NewReader(data), opts...)
	}
	return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, dsg.ErrUnknownFormat, "cannot decode %s graphs", format)
}

// Sniff guesses the format of encoded graph data from its first bytes.
func Sniff(data []byte) dsg.Format {
	switch {
	case bytes.HasPrefix(data, binaryMagic):
		return dsg.FormatBinary
	case len(bytes.TrimLeft(data, " \t\r\n")) > 0 && bytes.TrimLeft(data, " \t\r\n")[0] == '{':
		return dsg.FormatJSON
	}
	return dsg.FormatUnknown
}
