// Package ingest pins node payloads to revisions of source repositories.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/tracing"
	"github.com/warptools/loom/pkg/warehouse"
)

// Git names one file at one revision of a git repository.
//
// URL may be any transport go-git understands; a bare filesystem path is
// turned into a file:// URL.  Ref is anything `git rev-parse` would accept
// (branch, tag, hash); an empty Ref means HEAD.  Path is the slash-separated
// path of the wanted file inside the repository.
type Git struct {
	URL  string
	Ref  string
	Path string
}

func (g Git) String() string {
	ref := g.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("git:%s@%s:%s", g.URL, ref, g.Path)
}

// remoteURL normalizes the URL field for go-git.
//
// Errors:
//
//    - loom-error-invalid -- when the URL is empty
//    - loom-error-io -- when a filesystem path cannot be made absolute
func (g Git) remoteURL() (string, error) {
	if g.URL == "" {
		return "", loomapi.ErrorInvalid("git ingest has no repository URL")
	}
	if strings.Contains(g.URL, "://") {
		return g.URL, nil
	}
	path, errRaw := filepath.Abs(g.URL)
	if errRaw != nil {
		return "", loomapi.ErrorIo("failed to convert git host path to absolute path", g.URL, errRaw)
	}
	return "file://" + path, nil
}

// Resolve resolves Ref to a commit hash using an in-memory clone, so nothing
// touches disk until the caller decides to materialize.
//
// Errors:
//
//    - loom-error-invalid -- when the ingest names no repository
//    - loom-error-io -- when a filesystem path cannot be made absolute
//    - loom-error-git -- when cloning or revision resolution fails
func (g Git) Resolve(ctx context.Context) (string, error) {
	url, err := g.remoteURL()
	if err != nil {
		return "", err
	}
	ref := g.Ref
	if ref == "" {
		ref = "HEAD"
	}

	gitCtx, gitSpan := tracing.Start(ctx, "clone git repository", trace.WithAttributes(tracing.AttrFullExecNameGit, tracing.AttrFullExecOperationGitLs))
	repo, errRaw := git.CloneContext(gitCtx, memory.NewStorage(), nil, &git.CloneOptions{
		URL: url,
	})
	tracing.EndWithStatus(gitSpan, errRaw)
	if errRaw != nil {
		return "", loomapi.ErrorGit(fmt.Sprintf("failed to clone git repository at %q to memory", url), errRaw)
	}

	hash, errRaw := repo.ResolveRevision(plumbing.Revision(ref))
	if errRaw != nil {
		return "", loomapi.ErrorGit(fmt.Sprintf("failed to resolve git revision %q for repository %q", ref, url), errRaw)
	}
	return hash.String(), nil
}

// cachePath returns the checkout directory for a commit hash, fanned out the
// same way filesets are.
//
// Errors:
//
//    - loom-error-invalid -- when the hash is too short to fan out
func cachePath(cacheRoot, hash string) (string, error) {
	if len(hash) < 7 {
		return "", loomapi.ErrorInvalid("commit hash too short", [2]string{"hash", hash})
	}
	return filepath.Join(cacheRoot, "git", "fileset", hash[0:3], hash[3:6], hash), nil
}

// Materialize clones the repository into the cache keyed by resolved commit
// hash and checks out that commit.  An existing checkout is reused without
// touching the network.  Returns the checkout directory and the hash.
//
// Errors:
//
//    - loom-error-invalid -- when the ingest names no repository
//    - loom-error-io -- when filesystem populating fails
//    - loom-error-git -- when cloning, resolution, or checkout fails
func (g Git) Materialize(ctx context.Context, cacheRoot string) (string, string, error) {
	hash, err := g.Resolve(ctx)
	if err != nil {
		return "", "", err
	}
	dir, err := cachePath(cacheRoot, hash)
	if err != nil {
		return "", "", err
	}
	if _, errRaw := os.Stat(dir); errRaw == nil {
		return dir, hash, nil
	} else if !os.IsNotExist(errRaw) {
		return "", "", loomapi.ErrorIo("failed to probe ingest cache", dir, errRaw)
	}

	url, err := g.remoteURL()
	if err != nil {
		return "", "", err
	}
	gitCtx, gitSpan := tracing.Start(ctx, "checkout git ingest", trace.WithAttributes(tracing.AttrFullExecNameGit, tracing.AttrFullExecOperationGitClone))
	repo, errRaw := git.PlainCloneContext(gitCtx, dir, false, &git.CloneOptions{
		URL:               url,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if errRaw == nil {
		var wt *git.Worktree
		wt, errRaw = repo.Worktree()
		if errRaw == nil {
			errRaw = wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(hash)})
		}
	}
	tracing.EndWithStatus(gitSpan, errRaw)
	if errRaw != nil {
		os.RemoveAll(dir) // do not leave a half-made checkout where the next run would trust it
		return "", "", loomapi.ErrorGit(fmt.Sprintf("failed to checkout git ingest for repository %s", url), errRaw)
	}
	return dir, hash, nil
}

// Bytes materializes the pinned revision and reads Path from it.
// Returns the file bytes and the resolved commit hash.
//
// Errors:
//
//    - loom-error-invalid -- when the ingest is underspecified or Path escapes the repository
//    - loom-error-missing -- when Path does not exist at the pinned revision
//    - loom-error-io -- when filesystem reads fail
//    - loom-error-git -- when cloning, resolution, or checkout fails
func (g Git) Bytes(ctx context.Context, cacheRoot string) ([]byte, string, error) {
	if g.Path == "" {
		return nil, "", loomapi.ErrorInvalid("git ingest has no path")
	}
	rel := filepath.FromSlash(g.Path)
	if filepath.IsAbs(rel) || strings.HasPrefix(filepath.Clean(rel), "..") {
		return nil, "", loomapi.ErrorInvalid("git ingest path escapes the repository", [2]string{"path", g.Path})
	}
	dir, hash, err := g.Materialize(ctx, cacheRoot)
	if err != nil {
		return nil, "", err
	}
	data, errRaw := os.ReadFile(filepath.Join(dir, rel))
	if os.IsNotExist(errRaw) {
		return nil, "", loomapi.ErrorLocationMissing(loomapi.Location(g.Path))
	}
	if errRaw != nil {
		return nil, "", loomapi.ErrorIo("failed to read ingest file", g.Path, errRaw)
	}
	return data, hash, nil
}

// Pin reads the pinned file and writes it into a store document, so graph
// nodes can address the bytes without knowing about git at all.
// Returns the destination content ID and the resolved commit hash.
//
// Errors:
//
//    - loom-error-invalid -- when the ingest is underspecified or Path escapes the repository
//    - loom-error-missing -- when Path does not exist at the pinned revision
//    - loom-error-io -- when reading or writing fails
//    - loom-error-git -- when cloning, resolution, or checkout fails
func (g Git) Pin(ctx context.Context, store warehouse.Store, loc loomapi.Location, cacheRoot string) (loomapi.ContentCID, string, error) {
	data, hash, err := g.Bytes(ctx, cacheRoot)
	if err != nil {
		return "", "", err
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String(tracing.AttrKeyLoomIngestHash, hash),
		attribute.String(tracing.AttrKeyLoomIngestPath, g.Path),
		attribute.String(tracing.AttrKeyLoomIngestRev, g.Ref),
	)
	cid, err := store.Put(ctx, loc, data)
	if err != nil {
		return "", "", err
	}
	return cid, hash, nil
}
