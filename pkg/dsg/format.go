package dsg

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/observability"
)

// Format is a graph file encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// DetectFormat picks a format from the file extension: ".json" is JSON and
// ".dsg", ".sparkdsg", ".msgpack" and ".bin" are binary.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".dsg", ".sparkdsg", ".msgpack", ".bin":
		return FormatBinary, nil
	}
	return FormatUnknown, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, ErrUnknownFormat,
		"cannot infer graph format from '%s'", filepath.Base(path))
}

// Codec reads and writes graphs in one format. pkg/io registers the JSON and
// binary codecs.
type Codec interface {
	Encode(w io.Writer, g *Graph, includeMesh bool) error
	Decode(r io.Reader, opts ...Option) (*Graph, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = map[Format]Codec{}
)

// RegisterCodec installs the codec for a format, replacing any previous one.
func RegisterCodec(f Format, c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[f] = c
}

// CodecFor returns the codec registered for f.
func CodecFor(f Format) (Codec, error) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[f]
	if !ok {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeUnsupported, ErrNoCodec, "no codec for %s graphs", f)
	}
	return c, nil
}

// Save writes g to path in the format implied by its extension.
func (g *Graph) Save(path string, includeMesh bool) (err error) {
	start := time.Now()
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	defer func() { observability.IO().OnSave(format.String(), time.Since(start), err) }()

	codec, err := CodecFor(format)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return codec.Encode(f, g, includeMesh)
}

// Load reads a graph from path in the format implied by its extension. The
// options configure the returned graph.
func Load(path string, opts ...Option) (g *Graph, err error) {
	start := time.Now()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeFileNotFound, err, "graph file '%s' not found", path)
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		n := 0
		if g != nil {
			n = g.NumNodes(false)
		}
		observability.IO().OnLoad(format.String(), n, time.Since(start), err)
	}()

	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.Decode(f, opts...)
}
