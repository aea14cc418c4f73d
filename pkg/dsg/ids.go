package dsg

import (
	"fmt"
	"strconv"
	"unicode"
)

// NodeID is a graph-wide unique node identifier.
//
// The top 8 bits hold a category character and the low 56 bits hold an index
// within that category, so an id like 'p'/12 prints as "p12". Dynamic layers
// additionally pack a prefix index into bits 32-55 (see [LayerPrefix.MakeID]).
type NodeID uint64

const (
	keyShift  = 56
	indexMask = uint64(1)<<keyShift - 1

	categoryShift = 32
	categoryMask  = uint64(1)<<categoryShift - 1
	prefixMask    = uint32(1)<<24 - 1
)

// NewNodeID builds an id from a category character and an index.
// Index bits above 56 are discarded.
func NewNodeID(key byte, index uint64) NodeID {
	return NodeID(uint64(key)<<keyShift | index&indexMask)
}

// Key returns the category character of the id.
func (id NodeID) Key() byte { return byte(uint64(id) >> keyShift) }

// Index returns the 56-bit index of the id within its category.
func (id NodeID) Index() uint64 { return uint64(id) & indexMask }

// Category returns the dynamic layer prefix encoded in the id.
func (id NodeID) Category() LayerPrefix {
	return NewIndexedPrefix(id.Key(), uint32(id.Index()>>categoryShift))
}

// CategoryIndex returns the index of the id within its dynamic layer prefix.
func (id NodeID) CategoryIndex() uint64 { return id.Index() & categoryMask }

// Label returns a human-readable form of the id, e.g. "p12".
// Ids without a printable category character are shown as plain numbers.
func (id NodeID) Label() string {
	k := id.Key()
	if !isLabelKey(k) {
		return strconv.FormatUint(uint64(id), 10)
	}
	return string(rune(k)) + strconv.FormatUint(id.Index(), 10)
}

// String implements fmt.Stringer.
func (id NodeID) String() string { return id.Label() }

// ParseNodeID parses the output of [NodeID.Label] back into an id.
// Plain decimal strings are accepted as raw ids.
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return 0, fmt.Errorf("parse node id: empty string")
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return NodeID(n), nil
	}
	if !isLabelKey(s[0]) {
		return 0, fmt.Errorf("parse node id %q: invalid category %q", s, s[0])
	}
	idx, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse node id %q: %w", s, err)
	}
	if idx > indexMask {
		return 0, fmt.Errorf("parse node id %q: index out of range", s)
	}
	return NewNodeID(s[0], idx), nil
}

func isLabelKey(k byte) bool {
	return k < unicode.MaxASCII && unicode.IsLetter(rune(k))
}

// LayerPrefix identifies one dynamic instantiation of a layer, e.g. the
// trajectory of a single robot. It packs a key character into the top 8 bits
// and an optional 24-bit index into the rest.
type LayerPrefix uint32

// NewPrefix returns a prefix with only a key character.
func NewPrefix(key byte) LayerPrefix { return LayerPrefix(uint32(key) << 24) }

// NewIndexedPrefix returns a prefix with a key character and an index.
func NewIndexedPrefix(key byte, index uint32) LayerPrefix {
	return LayerPrefix(uint32(key)<<24 | index&prefixMask)
}

// Key returns the prefix character.
func (p LayerPrefix) Key() byte { return byte(uint32(p) >> 24) }

// Index returns the prefix index (0 when unindexed).
func (p LayerPrefix) Index() uint32 { return uint32(p) & prefixMask }

// MakeID returns the id of the index-th node under this prefix.
// MakeID and [NodeID.Category]/[NodeID.CategoryIndex] round-trip for any
// index below 2^32.
func (p LayerPrefix) MakeID(index uint64) NodeID {
	return NewNodeID(p.Key(), uint64(p.Index())<<categoryShift|index&categoryMask)
}

// Matches reports whether id was generated under this prefix.
func (p LayerPrefix) Matches(id NodeID) bool { return id.Category() == p }

// String renders the prefix as "a" or, when indexed, "a3".
func (p LayerPrefix) String() string {
	key := string(rune(p.Key()))
	if !isLabelKey(p.Key()) {
		key = strconv.Itoa(int(p.Key()))
	}
	if p.Index() == 0 {
		return key
	}
	return key + strconv.FormatUint(uint64(p.Index()), 10)
}

// LayerID is the ordinal of a hierarchy level. Larger ids sit higher in the
// hierarchy: a node in a layer with a strictly greater id is a parent.
type LayerID uint32

// Default layer ids. Objects and agents share a level.
const (
	LayerObjects   LayerID = 2
	LayerAgents    LayerID = 2
	LayerPlaces    LayerID = 3
	LayerRooms     LayerID = 4
	LayerBuildings LayerID = 5
)

// Default layer names.
const (
	NameObjects   = "objects"
	NameAgents    = "agents"
	NamePlaces    = "places"
	NameRooms     = "rooms"
	NameBuildings = "buildings"
)

// DefaultLayerIDs returns the static layers a graph is created with.
func DefaultLayerIDs() []LayerID {
	return []LayerID{LayerObjects, LayerPlaces, LayerRooms, LayerBuildings}
}

// DefaultLayerNames returns the name→layer mapping a graph is created with.
func DefaultLayerNames() map[string]LayerID {
	return map[string]LayerID{
		NameObjects:   LayerObjects,
		NameAgents:    LayerAgents,
		NamePlaces:    LayerPlaces,
		NameRooms:     LayerRooms,
		NameBuildings: LayerBuildings,
	}
}

// LayerKey locates a node or edge: a layer id plus, for dynamic layers, the
// prefix of the instantiation. Keys built with [StaticKey] and [DynamicKey]
// are comparable with == and usable as map keys.
type LayerKey struct {
	Layer   LayerID
	Prefix  LayerPrefix
	Dynamic bool
}

// StaticKey returns the key of a static layer.
func StaticKey(layer LayerID) LayerKey { return LayerKey{Layer: layer} }

// DynamicKey returns the key of a dynamic layer.
func DynamicKey(layer LayerID, prefix LayerPrefix) LayerKey {
	return LayerKey{Layer: layer, Prefix: prefix, Dynamic: true}
}

// IsParent reports whether nodes under k are parents of nodes under other.
// Only layer ids are compared; dynamic and static keys are treated alike.
func (k LayerKey) IsParent(other LayerKey) bool { return k.Layer > other.Layer }

// Equal reports whether two keys refer to the same layer. Static keys ignore
// the prefix field.
func (k LayerKey) Equal(other LayerKey) bool {
	if k.Dynamic != other.Dynamic || k.Layer != other.Layer {
		return false
	}
	return !k.Dynamic || k.Prefix == other.Prefix
}

func (k LayerKey) String() string {
	if k.Dynamic {
		return fmt.Sprintf("%d(%s)", k.Layer, k.Prefix)
	}
	return strconv.FormatUint(uint64(k.Layer), 10)
}
