package dsg

import (
	"errors"

	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

// Sentinel errors returned (wrapped) by lookups and file operations. Each is
// wrapped in a coded [sgerrors.Error]; test with errors.Is.
var (
	ErrMissingLayer  = errors.New("missing layer")
	ErrMissingNode   = errors.New("missing node")
	ErrMissingEdge   = errors.New("missing edge")
	ErrUnknownFormat = errors.New("unknown file format")
	ErrNoCodec       = errors.New("no codec registered")
)

func missingLayer(what string) error {
	return sgerrors.Wrap(sgerrors.ErrCodeLayerNotFound, ErrMissingLayer, "missing layer '%s'", what)
}

func missingNode(id NodeID) error {
	return sgerrors.Wrap(sgerrors.ErrCodeNodeNotFound, ErrMissingNode, "missing node '%s'", id)
}

func missingEdge(source, target NodeID) error {
	return sgerrors.Wrap(sgerrors.ErrCodeEdgeNotFound, ErrMissingEdge, "missing edge '%s' -> '%s'", source, target)
}
