package store

import (
	"context"

	"github.com/matzehuels/scenegraph/pkg/dsg"
	sgerrors "github.com/matzehuels/scenegraph/pkg/errors"
	sgio "github.com/matzehuels/scenegraph/pkg/io"
)

// SaveGraph encodes g in the given format, mesh included, and stores it.
func SaveGraph(ctx context.Context, s Store, g *dsg.Graph, format dsg.Format) (Snapshot, error) {
	data, err := sgio.Marshal(g, format, true)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Put(ctx, data)
}

// LoadGraph fetches a snapshot and decodes it, detecting the format from the
// data itself.
func LoadGraph(ctx context.Context, s Store, id string, opts ...dsg.Option) (*dsg.Graph, error) {
	data, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	format := sgio.Sniff(data)
	if format == dsg.FormatUnknown {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidFormat, dsg.ErrUnknownFormat, "snapshot %s does not hold a graph", id)
	}
	return sgio.Unmarshal(data, format, opts...)
}
