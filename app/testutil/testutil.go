package testutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"
	"github.com/warpfork/go-testmark"
	"github.com/warpfork/go-testmark/testexec"
	"golang.org/x/text/transform"

	loomapp "github.com/warptools/loom/app"
	"github.com/warptools/loom/app/base/util"
	"github.com/warptools/loom/pkg/config"
	"github.com/warptools/loom/pkg/testutil"
)

type tagset map[string]struct{}

func newTagSet(tags ...string) tagset {
	result := tagset(make(map[string]struct{}))
	for _, s := range tags {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		result[s] = struct{}{}
	}
	return result
}

func (t tagset) has(tag string) bool {
	if t == nil {
		return false
	}
	_, ok := t[tag]
	return ok
}

func TestFileContainingTestmarkexec(t *testing.T, fileName string, workDir *string) {
	t.Logf("loading test file: %q", fileName)
	doc, err := testmark.ReadFile(fileName)
	if err != nil {
		t.Fatalf("spec file parse failed?!: %s", err)
	}

	pwd, err := os.Getwd()
	qt.Assert(t, err, qt.IsNil)

	if workDir != nil {
		err = os.Chdir(*workDir)
		qt.Assert(t, err, qt.IsNil)
		t.Cleanup(func() { os.Chdir(pwd) })
	}

	doc.BuildDirIndex()
	patches := testmark.PatchAccumulator{}
	defer func() {
		if *testmark.Regen {
			patches.WriteFileWithPatches(doc, fileName)
		}
	}()
	for _, dir := range doc.DirEnt.ChildrenList {
		testName := dir.Name
		testDir := dir
		tags := getTags(testDir)
		if tags != nil {
			if len(testDir.Children) != 1 {
				t.Run(testName, func(t *testing.T) {
					t.Fatal("tagged tests must place children after the /tag=.../ dir")
				})
				continue
			}
			testDir = testDir.ChildrenList[0]
			testName = testName + "/" + testDir.Name
		}
		t.Run(testName, func(t *testing.T) {
			if tags.has("net") && *testutil.FlagOffline {
				t.Skip("skipping test", t.Name(), "due to offline flag")
			}
			// One mapper per test dir: fixtures stay comparable even when
			// `go test -run` selects a single test.
			mapper := NewIDMapper().Fix(
				string(util.KindIDDataset),
				string(util.KindIDDocument),
			)
			test := testexec.Tester{
				ExecFn:   buildExecFn(t, mapper),
				Patches:  &patches,
				AssertFn: assertFn,
			}
			test.Test(t, testDir)
		})
	}
}

// getTags will return the tagset for the first child it finds with the prefix `tags=`
// The tags following the prefix are expected to be comma separated strings.
func getTags(dir *testmark.DirEnt) tagset {
	for _, child := range dir.ChildrenList {
		if strings.HasPrefix(child.Name, "tags=") {
			return newTagSet(strings.Split(child.Name[len("tags="):], ",")...)
		}
	}
	return nil
}

// cleanOutput trims insignificant whitespace.  Node IDs were already mapped
// to deterministic values by the exec function, so nothing else needs
// rewriting before comparison.
func cleanOutput(str string) string {
	return strings.TrimSpace(str)
}

// Warning!  Impure function!  Cannot safely be used in parallel!
// This mutates the CLI app object to wire the IO streams.
// Also, it uses `os.Chdir` on this process (because we're "emulating a shell" rather than making subprocesses, whee).
func buildExecFn(t *testing.T, mapper *IDMapper) func([]string, io.Reader, io.Writer, io.Writer) (int, error) {
	return func(args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
		// The harness chdirs between commands; the config snapshot has to follow.
		if err := config.ReloadGlobalState(); err != nil {
			return 1, err
		}
		if args[0] == "cd" {
			if err := os.Chdir(args[1]); err != nil {
				return 1, err
			}
			if err := config.ReloadGlobalState(); err != nil {
				return 1, err
			}
			return 0, nil
		}

		bufout, buferr := &bytes.Buffer{}, &bytes.Buffer{}
		loomapp.App.Reader = stdin
		loomapp.App.Writer = bufout
		loomapp.App.ErrWriter = buferr
		err := loomapp.App.Run(args)

		exitCode := 0
		if err != nil {
			exitCode = 1
		}

		t.Logf("Args: %v", args)
		for err != nil {
			t.Logf("Code: %s", serum.Code(err))
			t.Logf("Message: %s", serum.Message(err))
			t.Logf("Details: %v", serum.Details(err))
			err = errors.Unwrap(err)
			if err != nil {
				t.Logf("caused by:")
			}
		}
		t.Logf("==============")
		t.Logf("⌄⌄⌄ stdout ⌄⌄⌄\n%s", bufout.String())
		t.Logf("⌄⌄⌄ stderr ⌄⌄⌄\n%s", buferr.String())
		t.Logf("==============")

		// Map fresh node IDs to deterministic substitutes before the
		// harness captures the streams for comparison or regeneration.
		if err := forwardMapped(stdout, bufout, mapper); err != nil {
			return exitCode, err
		}
		if err := forwardMapped(stderr, buferr, mapper); err != nil {
			return exitCode, err
		}
		return exitCode, nil
	}
}

func forwardMapped(dst io.Writer, src *bytes.Buffer, mapper *IDMapper) error {
	if dst == nil || src.Len() == 0 {
		return nil
	}
	mapped, _, err := transform.String(mapper.Transformer(), src.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(dst, mapped)
	return err
}

func assertFn(t *testing.T, actual, expect string) {
	actual = cleanOutput(actual)
	expect = cleanOutput(expect)
	qt.Assert(t, actual, qt.Equals, expect)
}
