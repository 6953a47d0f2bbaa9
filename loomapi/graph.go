package loomapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime"
	_ "github.com/ipld/go-ipld-prime/codec/dagcbor" // registered for CID computation
	"github.com/ipld/go-ipld-prime/codec/json"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
)

func init() {
	TypeSystem.Accumulate(schema.SpawnString("Label"))
	TypeSystem.Accumulate(schema.SpawnString("Location"))
	TypeSystem.Accumulate(schema.SpawnString("KindID"))
	TypeSystem.Accumulate(schema.SpawnString("ContentCID"))
	TypeSystem.Accumulate(schema.SpawnMap("Metadata",
		"String", "String", false))
	TypeSystem.Accumulate(schema.SpawnUnion("NodeEnvelopeCapsule",
		[]schema.TypeName{
			"NodeEnvelope",
		},
		schema.SpawnUnionRepresentationKeyed(map[string]schema.TypeName{
			"node.v1": "NodeEnvelope",
		})))
	TypeSystem.Accumulate(schema.SpawnStruct("NodeEnvelope",
		[]schema.StructField{
			schema.SpawnStructField("kind", "KindID", false, false),
			schema.SpawnStructField("label", "Label", false, false),
			schema.SpawnStructField("metadata", "Metadata", false, false),
			schema.SpawnStructField("content", "ContentCID", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
	TypeSystem.Accumulate(schema.SpawnString("GraphNodeID"))
	TypeSystem.Accumulate(schema.SpawnList("GraphNodeIDs",
		"GraphNodeID", false))
	TypeSystem.Accumulate(schema.SpawnStruct("GraphRecord",
		[]schema.StructField{
			schema.SpawnStructField("id", "GraphNodeID", false, false),
			schema.SpawnStructField("kind", "KindID", false, false),
			schema.SpawnStructField("label", "Label", false, false),
			schema.SpawnStructField("key", "String", false, false),
			schema.SpawnStructField("location", "Location", false, false),
			schema.SpawnStructField("parent", "GraphNodeID", true, false),
			schema.SpawnStructField("children", "GraphNodeIDs", false, false),
			schema.SpawnStructField("content", "ContentCID", true, false),
		},
		schema.SpawnStructRepresentationMap(nil)))
}

// Label names a node's axis.  Axis labels within one node must be distinct.
type Label string

// Location is a storage address as understood by a store collaborator.
// For the filesystem store it is a slash-separated path; other stores may
// interpret it differently, but it is always opaque to the node model.
type Location string

func (l Location) String() string {
	return string(l)
}

// Join appends path segments to a location, slash-separated.
func (l Location) Join(segments ...string) Location {
	if l == "" {
		return Location(strings.Join(segments, "/"))
	}
	parts := append([]string{string(l)}, segments...)
	return Location(strings.Join(parts, "/"))
}

// KindID identifies a node kind.  It is the string form of the kind's UUID
// and is recorded in every envelope so readers can route construction back
// through the kind registry.
type KindID string

// ContentCID is the content identifier of a node's payload bytes, as
// reported by the store that persisted them.
type ContentCID string

// EnvelopeCID is the content identifier of a node envelope itself.
type EnvelopeCID string

// Metadata is an ordered map of string keys to string values.
// It fully determines a node's identity and its storage location.
//
// Metadata is immutable by convention: it is built once, via NewMetadata,
// and never mutated afterward.  Changing a node's metadata means
// constructing a new node.
type Metadata struct {
	Keys   []string
	Values map[string]string
}

// NewMetadata builds a Metadata with canonically sorted keys, so that two
// metadata values built from the same pairs serialize identically
// regardless of insertion order.
func NewMetadata(pairs map[string]string) Metadata {
	keys := make([]string, 0, len(pairs))
	values := make(map[string]string, len(pairs))
	for k, v := range pairs {
		keys = append(keys, k)
		values[k] = v
	}
	sort.Strings(keys)
	return Metadata{Keys: keys, Values: values}
}

// Value returns the value for a key and whether the key is present.
func (m Metadata) Value(key string) (string, bool) {
	v, ok := m.Values[key]
	return v, ok
}

// Int parses the value for a key as a base-10 integer.
//
// Errors:
//
//    - loom-error-invalid -- when the key is absent or the value is not an integer
func (m Metadata) Int(key string) (int, error) {
	v, ok := m.Values[key]
	if !ok {
		return 0, ErrorInvalid(fmt.Sprintf("metadata has no key %q", key), [2]string{"key", key})
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ErrorInvalid(fmt.Sprintf("metadata value for key %q is not an integer: %q", key, v),
			[2]string{"key", key}, [2]string{"value", v})
	}
	return n, nil
}

// Equal reports whether two metadata carry the same key/value pairs.
// Key order does not participate: both sides are canonical after NewMetadata.
func (m Metadata) Equal(o Metadata) bool {
	if len(m.Values) != len(o.Values) {
		return false
	}
	for k, v := range m.Values {
		if ov, ok := o.Values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	keys := make([]string, len(m.Keys))
	copy(keys, m.Keys)
	values := make(map[string]string, len(m.Values))
	for k, v := range m.Values {
		values[k] = v
	}
	return Metadata{Keys: keys, Values: values}
}

// String renders metadata as "k1=v1,k2=v2" in key order.
// Kinds lean on this for deterministic location fragments.
func (m Metadata) String() string {
	var sb strings.Builder
	for i, k := range m.Keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(m.Values[k])
	}
	return sb.String()
}

// NodeEnvelopeCapsule is a single-member union used to version envelope
// documents on disk.  The member key ("node.v1") is how we can tell this
// apart from future versions of the same document.
type NodeEnvelopeCapsule struct {
	NodeEnvelope *NodeEnvelope
}

// NodeEnvelope is the serialized identity of a node: which kind can
// reconstruct it, what its axis is called, the metadata determining its
// location, and (for saved files) the content ID of its payload.
type NodeEnvelope struct {
	Kind     KindID
	Label    Label
	Metadata Metadata
	Content  *ContentCID
}

// SerializeNodeEnvelope encodes an envelope, wrapped in its version capsule,
// as schema-checked JSON.
//
// Errors:
//
//    - loom-error-serialization -- when the envelope cannot be encoded
func SerializeNodeEnvelope(env *NodeEnvelope) ([]byte, error) {
	capsule := NodeEnvelopeCapsule{NodeEnvelope: env}
	data, err := ipld.Marshal(json.Encode, &capsule, TypeSystem.TypeByName("NodeEnvelopeCapsule"))
	if err != nil {
		return nil, ErrorSerialization("serializing node envelope", err)
	}
	return data, nil
}

// ParseNodeEnvelope is the inverse of SerializeNodeEnvelope.
//
// Errors:
//
//    - loom-error-metadata-parse -- when the data does not parse as an envelope
//    - loom-error-datatoonew -- when the envelope carries a version we do not understand
func ParseNodeEnvelope(data []byte) (*NodeEnvelope, error) {
	capsule := NodeEnvelopeCapsule{}
	_, err := ipld.Unmarshal(data, json.Decode, &capsule, TypeSystem.TypeByName("NodeEnvelopeCapsule"))
	if err != nil {
		return nil, ErrorMetadataParse("node envelope", err)
	}
	if capsule.NodeEnvelope == nil {
		return nil, ErrorDataTooNew("parsing node envelope", fmt.Errorf("envelope capsule contains no recognized version"))
	}
	return capsule.NodeEnvelope, nil
}

// GraphNodeID identifies one node within a graph index.  IDs are generated
// fresh per scan; they name index records, not node identities.
type GraphNodeID string

// GraphRecord is one indexed node: enough of its identity to answer
// structural questions without constructing the node, plus parent and child
// edges into the rest of the index.
type GraphRecord struct {
	Id       GraphNodeID
	Kind     KindID
	Label    Label
	Key      string
	Location Location
	Parent   *GraphNodeID
	Children []GraphNodeID
	Content  *ContentCID
}

// SerializeGraphRecord encodes one index record as schema-checked JSON.
//
// Errors:
//
//    - loom-error-serialization -- when the record cannot be encoded
func SerializeGraphRecord(rec *GraphRecord) ([]byte, error) {
	data, err := ipld.Marshal(json.Encode, rec, TypeSystem.TypeByName("GraphRecord"))
	if err != nil {
		return nil, ErrorSerialization("serializing graph record", err)
	}
	return data, nil
}

// ParseGraphRecord is the inverse of SerializeGraphRecord.
//
// Errors:
//
//    - loom-error-serialization -- when the data does not parse as a record
func ParseGraphRecord(data []byte) (*GraphRecord, error) {
	rec := GraphRecord{}
	_, err := ipld.Unmarshal(data, json.Decode, &rec, TypeSystem.TypeByName("GraphRecord"))
	if err != nil {
		return nil, ErrorSerialization("parsing graph record", err)
	}
	return &rec, nil
}

// Cid computes the envelope's own content identifier.
func (env *NodeEnvelope) Cid() EnvelopeCID {
	n := bindnode.Wrap(env, TypeSystem.TypeByName("NodeEnvelope"))

	lsys := cidlink.DefaultLinkSystem()
	lnk, errRaw := lsys.ComputeLink(cidlink.LinkPrototype{Prefix: cid.Prefix{
		Version:  1,    // Usually '1'.
		Codec:    0x71, // 0x71 means "dag-cbor" -- See the multicodecs table: https://github.com/multiformats/multicodec/
		MhType:   0x13, // 0x13 means "sha2-512" -- See the multicodecs table: https://github.com/multiformats/multicodec/
		MhLength: 64,   // sha2-512 hash has a 64-byte sum.
	}}, n.(schema.TypedNode).Representation())
	if errRaw != nil {
		// panic! this should never fail unless IPLD is broken
		panic(fmt.Sprintf("Fatal IPLD Error: lsys.ComputeLink failed for NodeEnvelope: %s", errRaw))
	}
	return EnvelopeCID(lnk.String())
}
