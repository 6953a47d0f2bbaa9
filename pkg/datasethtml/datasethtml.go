// Package datasethtml renders a scanned dataset tree as a browsable static
// site: one index page, one page per collection, one page per file with a
// highlighted payload preview.  Pages are generated from the graph index;
// payload bytes and envelope metadata come from the store.
package datasethtml

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"reflect"

	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"

	"github.com/warptools/loom/loomapi"
	"github.com/warptools/loom/pkg/datagraph"
	"github.com/warptools/loom/pkg/graph"
	"github.com/warptools/loom/pkg/warehouse"
)

var (
	//go:embed treeIndex.tmpl.html
	treeIndexTemplate string

	//go:embed collection.tmpl.html
	collectionTemplate string

	//go:embed file.tmpl.html
	fileTemplate string

	//go:embed css/main.css
	mainCssBody []byte
)

type SiteConfig struct {
	Ctx context.Context

	// Store resolves envelope documents and payload bytes for previews.
	Store warehouse.Store

	// Index supplies the records and edges the pages enumerate.
	Index *graph.Index

	// Root is the location the index was scanned from.  Root records keep
	// their envelope documents under it.
	Root loomapi.Location

	// A plain string for output path prefix is used because golang still
	// lacks an interface for filesystem *writing* -- io/fs is only reading.
	OutputPath string

	// Set to "/" if you'll be publishing at the root of a subdomain.
	URLPrefix string

	// URL of a mirror to use for payload download links in generated HTML.
	// If nil, download links will be disabled.
	DownloadURL *string
}

func (cfg SiteConfig) tfuncs() map[string]interface{} {
	return map[string]interface{}{
		"string": func(x interface{}) string {
			// Very small helper function to stringify things.
			// This is useful for things that are literally typedefs of string but the template package isn't smart enough to be calm about unboxing it.
			return reflect.ValueOf(x).String()
		},
		"url": func(parts ...string) string {
			return path.Join(append([]string{cfg.URLPrefix}, parts...)...)
		},
		"cid": func(c *loomapi.ContentCID) string {
			if c == nil {
				return ""
			}
			return string(*c)
		},
		"page": func(rec *loomapi.GraphRecord) string {
			// records with a payload get a file page, the rest a collection page
			if rec.Content != nil {
				return "_file.html"
			}
			return "_collection.html"
		},
	}
}

// TreeAndChildrenToHtml performs TreeToHtml, and also proceeds to invoke the
// html'ing of every record in the index.  Additionally, it does the other
// "once" things (namely, outputs a copy of the css).
//
// Errors:
//
//   - loom-error-io -- in case of errors writing out the new html content.
//   - loom-error-internal -- in case of templating or highlighting errors.
//   - loom-error-missing -- when a record's envelope or payload document is gone.
//   - loom-error-metadata-parse -- when a record's envelope fails to parse.
//   - loom-error-datatoonew -- when a record's envelope carries an unknown version.
func (cfg SiteConfig) TreeAndChildrenToHtml() error {
	if err := cfg.TreeToHtml(); err != nil {
		return err
	}

	p := filepath.Join(cfg.OutputPath, "main.css")
	if err := os.WriteFile(p, mainCssBody, 0644); err != nil {
		return loomapi.ErrorIo("couldn't write css during site emission", p, err)
	}

	for rec := range cfg.Index.Records() {
		var err error
		if rec.Content == nil {
			err = cfg.CollectionToHtml(rec)
		} else {
			err = cfg.FileToHtml(rec)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// doTemplate does the common bits of making files, processing the template,
// and getting the output where it needs to go.
//
// Errors:
//
//   - loom-error-io -- in case of errors writing out the new html content.
//   - loom-error-internal -- in case of templating errors.
func (cfg SiteConfig) doTemplate(outputPath string, tmpl string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0775); err != nil {
		return loomapi.ErrorIo("couldn't mkdir during site emission", outputPath, err)
	}
	f, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return loomapi.ErrorIo("couldn't open file for writing during site emission", outputPath, err)
	}
	defer f.Close()

	t := template.Must(template.New("main").Funcs(cfg.tfuncs()).Parse(tmpl))
	if err := t.Execute(f, data); err != nil {
		return loomapi.ErrorInternal("templating failed", err)
	}
	return nil
}

// TreeToHtml generates the root page, which links to all the root records.
//
// Errors:
//
//   - loom-error-io -- in case of errors writing out the new html content.
//   - loom-error-internal -- in case of templating errors.
func (cfg SiteConfig) TreeToHtml() error {
	return cfg.doTemplate(
		filepath.Join(cfg.OutputPath, "index.html"),
		treeIndexTemplate,
		map[string]interface{}{
			"Root":  cfg.Root,
			"Roots": cfg.Index.Roots(),
		},
	)
}

// envelope fetches the stored envelope document behind an indexed record.
// Root records keep their envelopes under the scan root; everything else
// keeps them under its parent's location.
//
// Errors:
//
//   - loom-error-missing -- when the envelope document is gone.
//   - loom-error-io -- when reading it fails.
//   - loom-error-metadata-parse -- when it fails to parse.
//   - loom-error-datatoonew -- when it carries an unknown version.
func (cfg SiteConfig) envelope(rec *loomapi.GraphRecord) (*loomapi.NodeEnvelope, error) {
	parentLoc := cfg.Root
	if rec.Parent != nil {
		if parent, ok := cfg.Index.Get(*rec.Parent); ok {
			parentLoc = parent.Location
		}
	}
	data, err := cfg.Store.Get(cfg.Ctx, datagraph.EnvelopeLocation(parentLoc, rec.Key))
	if err != nil {
		return nil, err
	}
	return loomapi.ParseNodeEnvelope(data)
}

// CollectionToHtml generates a page for a collection record which enumerates
// and links to all the children within it, as well as enumerates all the
// metadata attached to the collection.
//
// Errors:
//
//   - loom-error-io -- in case of errors writing out the new html content.
//   - loom-error-internal -- in case of templating errors.
//   - loom-error-missing -- when the record's envelope document is gone.
//   - loom-error-metadata-parse -- when the record's envelope fails to parse.
//   - loom-error-datatoonew -- when the record's envelope carries an unknown version.
func (cfg SiteConfig) CollectionToHtml(rec *loomapi.GraphRecord) error {
	env, err := cfg.envelope(rec)
	if err != nil {
		return err
	}
	return cfg.doTemplate(
		filepath.Join(cfg.OutputPath, filepath.FromSlash(string(rec.Location)), "_collection.html"),
		collectionTemplate,
		map[string]interface{}{
			"Record":   rec,
			"Metadata": env.Metadata,
			"Children": cfg.Index.Children(rec.Id),
		},
	)
}

// FileToHtml generates a page for a file record: its metadata, a download
// link when a mirror URL is configured, and a highlighted preview of the
// payload document.
//
// Errors:
//
//   - loom-error-io -- in case of errors writing out the new html content.
//   - loom-error-internal -- in case of templating or highlighting errors.
//   - loom-error-missing -- when the record's envelope or payload document is gone.
//   - loom-error-metadata-parse -- when the record's envelope fails to parse.
//   - loom-error-datatoonew -- when the record's envelope carries an unknown version.
func (cfg SiteConfig) FileToHtml(rec *loomapi.GraphRecord) error {
	env, err := cfg.envelope(rec)
	if err != nil {
		return err
	}
	raw, err := cfg.Store.Get(cfg.Ctx, rec.Location)
	if err != nil {
		return err
	}
	preview, err := jsonPreview(raw)
	if err != nil {
		return err
	}
	var download string
	if cfg.DownloadURL != nil {
		download = downloadURL(*cfg.DownloadURL, *rec.Content)
	}
	return cfg.doTemplate(
		filepath.Join(cfg.OutputPath, filepath.FromSlash(string(rec.Location)), "_file.html"),
		fileTemplate,
		map[string]interface{}{
			"Record":   rec,
			"Metadata": env.Metadata,
			"Preview":  preview,
			"Download": download,
		},
	)
}

// jsonPreview pretty-prints a payload document and applies syntax
// highlighting to it, yielding a fragment ready to drop into a page.
//
// Errors:
//
//   - loom-error-internal -- when indenting or highlighting fails.
func jsonPreview(raw []byte) (template.HTML, error) {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return "", loomapi.ErrorInternal("failed to indent payload json", err)
	}

	lexer := lexers.Get("json")
	style := styles.Get("dracula")
	formatter := formatters.Get("html")
	if lexer == nil || style == nil || formatter == nil {
		return "", loomapi.ErrorInternal("failed to set up syntax highlighting",
			fmt.Errorf("missing json lexer, style, or formatter"))
	}
	iterator, err := lexer.Tokenise(nil, indented.String())
	if err != nil {
		return "", loomapi.ErrorInternal("failed to tokenize payload json", err)
	}
	var out bytes.Buffer
	if err := formatter.Format(&out, style, iterator); err != nil {
		return "", loomapi.ErrorInternal("failed to apply syntax highlighting", err)
	}
	return template.HTML(out.String()), nil
}

// downloadURL points at the mirrored object for a content ID, following the
// same key fan-out the mirror push uses.
func downloadURL(prefix string, cid loomapi.ContentCID) string {
	s := string(cid)
	if len(s) < 7 {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/%s", prefix, s[0:3], s[3:6], s)
}
