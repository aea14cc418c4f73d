package io

import (
	"sync"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
)

var (
	kindsMu   sync.RWMutex
	nodeKinds = map[string]func() dsg.NodeAttributes{
		dsg.KindNodeAttrs: func() dsg.NodeAttributes { return &dsg.NodeAttrs{} },
	}
	edgeKinds = map[string]func() dsg.EdgeAttributes{
		dsg.KindEdgeAttrs: func() dsg.EdgeAttributes { return &dsg.EdgeAttrs{} },
	}
)

// RegisterNodeAttributes makes a node payload type decodable. newFn must
// return a pointer that the decoder can fill.
func RegisterNodeAttributes(kind string, newFn func() dsg.NodeAttributes) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	nodeKinds[kind] = newFn
}

// RegisterEdgeAttributes makes an edge payload type decodable.
func RegisterEdgeAttributes(kind string, newFn func() dsg.EdgeAttributes) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	edgeKinds[kind] = newFn
}

func kindOf(v any) (string, error) {
	k, ok := v.(dsg.Kinded)
	if !ok {
		return "", sgerrors.New(sgerrors.ErrCodeUnsupported, "payload %T has no attribute kind", v)
	}
	return k.AttributeKind(), nil
}

func newNodeAttributes(kind string) (dsg.NodeAttributes, error) {
	if kind == "" {
		kind = dsg.KindNodeAttrs
	}
	kindsMu.RLock()
	newFn, ok := nodeKinds[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidFormat, "unknown node attribute kind %q", kind)
	}
	return newFn(), nil
}

func newEdgeAttributes(kind string) (dsg.EdgeAttributes, error) {
	if kind == "" {
		kind = dsg.KindEdgeAttrs
	}
	kindsMu.RLock()
	newFn, ok := edgeKinds[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, sgerrors.New(sgerrors.ErrCodeInvalidFormat, "unknown edge attribute kind %q", kind)
	}
	return newFn(), nil
}
