package dsg

// GraphMergeConfig controls how [Graph.MergeGraph] and [Layer.MergeLayer]
// fold one graph into another.
type GraphMergeConfig struct {
	// PreviousMerges maps ids that were merged away to the id that absorbed
	// them. Incoming edges are redirected through it.
	PreviousMerges map[NodeID]NodeID

	// EnforceParentConstraints inserts incoming interlayer edges as parent
	// edges, so every child keeps at most one parent.
	EnforceParentConstraints bool

	// ClearRemoved drains the source graph's removal ledgers while reading
	// them.
	ClearRemoved bool
}

// DefaultMergeConfig returns the configuration used when none is given.
func DefaultMergeConfig() GraphMergeConfig {
	return GraphMergeConfig{EnforceParentConstraints: true}
}

// MergedID follows PreviousMerges from id to the id that currently
// represents it. Chains are followed to their end; a cycle stops at the first
// repeated id.
func (c GraphMergeConfig) MergedID(id NodeID) NodeID {
	if len(c.PreviousMerges) == 0 {
		return id
	}
	seen := map[NodeID]struct{}{id: {}}
	for {
		next, ok := c.PreviousMerges[id]
		if !ok {
			return id
		}
		if _, loop := seen[next]; loop {
			return id
		}
		seen[next] = struct{}{}
		id = next
	}
}
