package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/ingest"
	"github.com/warptools/loom/pkg/warehouse"
)

// seedRepo builds a throwaway git repository with one commit of the given files.
func seedRepo(t *testing.T, files map[string]string) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	qt.Assert(t, err, qt.IsNil)
	commitAll(t, dir, repo, files)
	return dir, repo
}

func commitAll(t *testing.T, dir string, repo *git.Repository, files map[string]string) string {
	t.Helper()
	wt, err := repo.Worktree()
	qt.Assert(t, err, qt.IsNil)
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		qt.Assert(t, os.MkdirAll(filepath.Dir(path), 0755), qt.IsNil)
		qt.Assert(t, os.WriteFile(path, []byte(body), 0644), qt.IsNil)
		_, err = wt.Add(name)
		qt.Assert(t, err, qt.IsNil)
	}
	hash, err := wt.Commit("seed", &git.CommitOptions{
		Author: &object.Signature{Name: "loom", Email: "loom@invalid", When: time.Now()},
	})
	qt.Assert(t, err, qt.IsNil)
	return hash.String()
}

func headHash(t *testing.T, repo *git.Repository) string {
	t.Helper()
	ref, err := repo.Head()
	qt.Assert(t, err, qt.IsNil)
	return ref.Hash().String()
}

func TestGitResolve(t *testing.T) {
	ctx := context.Background()
	dir, repo := seedRepo(t, map[string]string{"data/series.json": "[1,2,3]"})
	want := headHash(t, repo)

	for _, ref := range []string{"", "HEAD", "master", want} {
		got, err := ingest.Git{URL: dir, Ref: ref}.Resolve(ctx)
		qt.Assert(t, err, qt.IsNil, qt.Commentf("ref %q", ref))
		qt.Check(t, got, qt.Equals, want)
	}
}

func TestGitResolveBadRef(t *testing.T) {
	ctx := context.Background()
	dir, _ := seedRepo(t, map[string]string{"a": "1"})
	_, err := ingest.Git{URL: dir, Ref: "no-such-branch"}.Resolve(ctx)
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeGit)
}

func TestGitResolveNoURL(t *testing.T) {
	_, err := ingest.Git{Ref: "HEAD"}.Resolve(context.Background())
	qt.Assert(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid)
}

func TestGitBytesPinsRevision(t *testing.T) {
	ctx := context.Background()
	cache := t.TempDir()
	dir, repo := seedRepo(t, map[string]string{"data/series.json": "[1,2,3]"})
	first := headHash(t, repo)

	data, hash, err := ingest.Git{URL: dir, Ref: "master", Path: "data/series.json"}.Bytes(ctx, cache)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, string(data), qt.Equals, "[1,2,3]")
	qt.Check(t, hash, qt.Equals, first)

	// the checkout lands in the fanned-out cache
	checkout := filepath.Join(cache, "git", "fileset", first[0:3], first[3:6], first)
	_, err = os.Stat(filepath.Join(checkout, "data", "series.json"))
	qt.Assert(t, err, qt.IsNil)

	// advance the source repository; the pinned hash still reads the old bytes
	second := commitAll(t, dir, repo, map[string]string{"data/series.json": "[9]"})
	qt.Assert(t, second, qt.Not(qt.Equals), first)

	data, hash, err = ingest.Git{URL: dir, Ref: first, Path: "data/series.json"}.Bytes(ctx, cache)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, string(data), qt.Equals, "[1,2,3]")
	qt.Check(t, hash, qt.Equals, first)

	// while the moving ref now reads the new bytes
	data, hash, err = ingest.Git{URL: dir, Ref: "master", Path: "data/series.json"}.Bytes(ctx, cache)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, string(data), qt.Equals, "[9]")
	qt.Check(t, hash, qt.Equals, second)
}

func TestGitBytesPathValidation(t *testing.T) {
	ctx := context.Background()
	cache := t.TempDir()
	dir, _ := seedRepo(t, map[string]string{"a": "1"})

	for _, path := range []string{"", "../escape", "/etc/passwd"} {
		_, _, err := ingest.Git{URL: dir, Ref: "HEAD", Path: path}.Bytes(ctx, cache)
		qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeInvalid, qt.Commentf("path %q", path))
	}

	_, _, err := ingest.Git{URL: dir, Ref: "HEAD", Path: "data/nope.json"}.Bytes(ctx, cache)
	qt.Check(t, serum.Code(err), qt.Equals, loomapi.ECodeMissing)
}

func TestGitPin(t *testing.T) {
	ctx := context.Background()
	cache := t.TempDir()
	dir, _ := seedRepo(t, map[string]string{"data/series.json": "[4,5]"})
	store := warehouse.NewMemStore()

	cid, hash, err := ingest.Git{URL: dir, Ref: "HEAD", Path: "data/series.json"}.Pin(ctx, store, "data/trial", cache)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, cid, qt.Equals, warehouse.ContentID([]byte("[4,5]")))
	qt.Check(t, len(hash), qt.Equals, 40)

	data, err := store.Get(ctx, "data/trial")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, string(data), qt.Equals, "[4,5]")
}
