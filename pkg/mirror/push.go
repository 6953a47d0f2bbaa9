// Package mirror pushes node payloads out to remote, content-addressed
// mirrors.  The graph index supplies the list of payloads a tree owns; a
// publisher supplies the transport.  Pushing is idempotent: payloads the
// remote already holds are not re-sent.
package mirror

import (
	"context"

	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/graph"
	"github.com/warptools/loom/pkg/logging"
	"github.com/warptools/loom/pkg/tracing"
	"github.com/warptools/loom/pkg/warehouse"
)

// ConfigFilename is the name of the mirror configuration file, relative to
// the data root.  It sits beside the root collection's envelope directory
// rather than inside it, so tree scans do not mistake it for a node.
const ConfigFilename = "mirror.json"

type publisher interface {
	// Errors:
	//
	//    - loom-error-mirror -- when asking the remote fails
	//    - loom-error-invalid -- when the content ID cannot name a remote object
	hasNode(ctx context.Context, cid loomapi.ContentCID) (bool, error)
	// Errors:
	//
	//    - loom-error-mirror -- when the upload fails
	//    - loom-error-invalid -- when the content ID cannot name a remote object
	publishNode(ctx context.Context, cid loomapi.ContentCID, data []byte) error
}

// Errors:
//
//    - loom-error-mirror -- when the push target cannot be reached
func publisherFromConfig(ctx context.Context, cfg loomapi.MirrorConfig) (publisher, error) {
	if cfg.PushConfig.S3 != nil {
		pub, err := NewS3Publisher(ctx, *cfg.PushConfig.S3)
		if err != nil {
			return nil, err
		}
		return pub, nil
	} else if cfg.PushConfig.Mock != nil {
		return NewMockPublisher(), nil
	}
	// unreachable for configs that came through ParseMirrorConfig
	panic("no supported push configuration provided")
}

// Push mirrors every payload the graph index knows about to the target the
// config selects.  Payloads with no local copy are skipped; payloads the
// remote already holds are not re-sent.  A payload whose bytes no longer
// hash to the indexed content ID stops the push: the index is stale, and a
// content-addressed remote must not be fed mislabeled data.
//
// Errors:
//
//    - loom-error-mirror -- when the remote cannot be reached or refuses an upload
//    - loom-error-io -- when reading a payload from the local store fails
//    - loom-error-invalid -- when a payload no longer matches its indexed content ID
func Push(ctx context.Context, store warehouse.Store, idx *graph.Index, cfg loomapi.MirrorConfig) error {
	ctx, span := tracing.StartFn(ctx, "Push")
	defer span.End()
	pub, err := publisherFromConfig(ctx, cfg)
	if err != nil {
		tracing.SetSpanError(ctx, err)
		return err
	}
	if err := push(ctx, store, idx, pub); err != nil {
		tracing.SetSpanError(ctx, err)
		return err
	}
	return nil
}

// PushToS3 is Push with an S3 target.
//
// Errors:
//
//    - loom-error-mirror -- when the remote cannot be reached or refuses an upload
//    - loom-error-io -- when reading a payload from the local store fails
//    - loom-error-invalid -- when a payload no longer matches its indexed content ID
func PushToS3(ctx context.Context, store warehouse.Store, idx *graph.Index, cfg loomapi.S3PushConfig) error {
	return Push(ctx, store, idx, loomapi.MirrorConfig{PushConfig: loomapi.PushConfig{S3: &cfg}})
}

func push(ctx context.Context, store warehouse.Store, idx *graph.Index, pub publisher) error {
	log := logging.Ctx(ctx)

	for rec := range idx.Records() {
		if rec.Content == nil {
			// collections carry no payload
			continue
		}
		cid := *rec.Content

		data, err := store.Get(ctx, rec.Location)
		if err != nil {
			// it is possible we don't hold this payload, in which case we just skip over it
			if serum.Code(err) == loomapi.ECodeMissing {
				log.Debug("mirror", "no local payload at %q (index records %s), skipping", rec.Location, cid)
				continue
			}
			return err
		}
		if got := warehouse.ContentID(data); got != cid {
			return loomapi.ErrorInvalid("payload does not match its indexed content ID; rescan before mirroring",
				[2]string{"location", string(rec.Location)},
				[2]string{"indexed", string(cid)},
				[2]string{"actual", string(got)})
		}

		has, err := pub.hasNode(ctx, cid)
		if err != nil {
			return err
		}
		if has {
			log.Debug("mirror", "remote already has %s, skipping", cid)
			continue
		}

		log.Info("mirror", "pushing node: cid = %s, location = %s", cid, rec.Location)
		if err := pub.publishNode(ctx, cid, data); err != nil {
			return err
		}
	}
	return nil
}
