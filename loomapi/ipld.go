package loomapi

import (
	_ "github.com/ipld/go-ipld-prime/codec/json" // side-effecting import; registers a codec.
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/schema"
)

// IPLD plumbing shared by the rest of the package lives here.

// LinkSystem is the hashing and codec configuration used for all link
// handling.  A package global is fine for this; it's configuration, not state.
var LinkSystem = cidlink.DefaultLinkSystem()

// TypeSystem describes all our API data types and their representation strategies in IPLD Schema form.
//
// The prelude types are seeded here; each file in this package that declares
// serializable types accumulates its own types during package init.
var TypeSystem = func() *schema.TypeSystem {
	ts := new(schema.TypeSystem)
	ts.Init()
	ts.Accumulate(schema.SpawnString("String"))
	ts.Accumulate(schema.SpawnInt("Int"))
	ts.Accumulate(schema.SpawnBool("Bool"))
	ts.Accumulate(schema.SpawnBytes("Bytes"))
	return ts
}()
