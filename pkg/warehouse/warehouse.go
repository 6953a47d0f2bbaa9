// Package warehouse provides the byte stores that back node trees: a
// filesystem store, an in-memory store, and a bolt-backed store.  All three
// speak the same contract, so node trees are portable across them.
package warehouse

import (
	"context"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/warptools/loom/loomapi"
)

// Store is the byte store contract.  Locations are slash-separated document
// paths; stores may map them onto directories, flat keys, or buckets as they
// see fit.
type Store interface {
	// Get reads the document at a location.
	//
	// Errors:
	//
	//    - loom-error-missing -- when no document exists at the location
	//    - loom-error-io -- when reading fails
	Get(ctx context.Context, loc loomapi.Location) ([]byte, error)

	// Put writes a document, creating any intermediate structure, and
	// returns the content ID of the written bytes.
	//
	// Errors:
	//
	//    - loom-error-io -- when writing fails
	//    - loom-error-invalid -- when the store cannot write
	Put(ctx context.Context, loc loomapi.Location, data []byte) (loomapi.ContentCID, error)

	// Has reports whether a document or prefix exists at the location.
	//
	// Errors:
	//
	//    - loom-error-io -- when the existence check fails
	Has(ctx context.Context, loc loomapi.Location) (bool, error)

	// List returns document names directly under a prefix, in the store's
	// native order.
	//
	// Errors:
	//
	//    - loom-error-missing -- when the prefix does not exist
	//    - loom-error-io -- when listing fails
	List(ctx context.Context, prefix loomapi.Location) ([]string, error)

	// Prefixes returns the nested prefix names directly under a prefix, in
	// the store's native order.
	//
	// Errors:
	//
	//    - loom-error-missing -- when the prefix does not exist
	//    - loom-error-io -- when listing fails
	Prefixes(ctx context.Context, prefix loomapi.Location) ([]string, error)

	// Delete removes the document at a location.
	//
	// Errors:
	//
	//    - loom-error-missing -- when no document exists at the location
	//    - loom-error-io -- when removal fails
	Delete(ctx context.Context, loc loomapi.Location) error
}

// ContentID computes the content identifier reported for stored bytes:
// a CIDv1 over the raw multicodec with a sha2-256 multihash.
func ContentID(data []byte) loomapi.ContentCID {
	hash, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		// sha2-256 is a registered multihash; Sum cannot reject it.
		panic(err)
	}
	return loomapi.ContentCID(cid.NewCidV1(cid.Raw, hash).String())
}
