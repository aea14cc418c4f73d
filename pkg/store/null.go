package store

import "context"

// NullStore accepts snapshots and keeps none of them.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Put returns the snapshot metadata without storing the data.
func (s *NullStore) Put(ctx context.Context, data []byte) (Snapshot, error) {
	return newSnapshot(data), nil
}

// Get always reports the snapshot as missing.
func (s *NullStore) Get(ctx context.Context, id string) ([]byte, error) {
	return nil, notFound(id)
}

// List returns nothing.
func (s *NullStore) List(ctx context.Context) ([]Snapshot, error) {
	return nil, nil
}

// Delete always reports the snapshot as missing.
func (s *NullStore) Delete(ctx context.Context, id string) error {
	return notFound(id)
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

var _ Store = (*NullStore)(nil)
