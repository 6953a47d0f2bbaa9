package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
	"golang.org/x/term"
)

// Render re-renders markdown for the given output mode.
//
// If the mode asks for any ANSI behaviors, the writer is feature-detected
// to find the terminal width, which is then used for wrapping.
//
// Render in plain markdown mode also works as a sort of fmt'er,
// which is useful when the markdown source came out of golang templates
// (famously unhelpful about whitespace control).
func Render(markdown []byte, wr io.Writer, m Mode) {
	md := goldmark.New(
		goldmark.WithRenderer(renderer.NewRenderer(
			renderer.WithNodeRenderers(
				util.PrioritizedValue{Value: &gmRenderer{m, terminalWidth(wr)}, Priority: 1},
			),
		)),
	)
	if err := md.Convert(markdown, wr); err != nil {
		panic(err)
	}
}

// terminalWidth reports the column count of the terminal behind wr,
// or -1 if wr isn't a terminal.  Widths under 60 columns read as 60;
// wrapping tighter than that mangles more than it helps.
func terminalWidth(wr io.Writer) int {
	fd, ok := wr.(interface{ Fd() uintptr })
	if !ok {
		return -1
	}
	w, _, err := term.GetSize(int(fd.Fd()))
	if err != nil || w <= 0 {
		return -1
	}
	if w < 60 {
		return 60
	}
	return w
}

type Mode uint8

const (
	Mode_Markdown Mode = iota // Markdown in, markdown out; whitespace gets normalized, nothing else changes.
	Mode_ANSI                 // ANSI color codes, indentation following heading depth, and wrapping at the detected terminal width.
	Mode_ANSIdown             // Same as Mode_ANSI except the markdown annotations stay in.  Strip the ANSI codes and leading spaces and it parses again.
	Mode_Plain                // Not implemented.  Would be Mode_ANSI spacing without the colors.
	Mode_HTML                 // Not implemented.  The web docs pipeline consumes Mode_Markdown output instead.
)

func panicUnsupportedMode(m Mode) { panic(fmt.Errorf("unsupported mode %d", m)) }

type gmRenderer struct {
	mode  Mode
	width int
}

// RegisterFuncs is to meet `goldmark/renderer.NodeRenderer`, and goldmark calls it to get further configuration done.
//
// Our help documents only use a handful of node kinds; the rest stay unregistered,
// which goldmark treats as "walk through without emitting anything".
func (r *gmRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	// blocks
	reg.Register(ast.KindDocument, r.renderDocument)
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindParagraph, r.renderParagraph)

	// inlines
	reg.Register(ast.KindRawHTML, r.renderRawHTML) // not actually what this is :(
	reg.Register(ast.KindText, r.renderText)       // Most leaf nodes are ultimately this.  The simplest paragraph contains one element of text.
}

func (r *gmRenderer) renderDocument(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	// The document root emits nothing of its own.
	return ast.WalkContinue, nil
}

// Heading styling by level.  Levels absent here (the page title is an h2;
// nothing in our docs goes deeper than h4) render with no color or indent.
var headingStyle = map[int]struct {
	indent int
	color  ansiColor
}{
	2: {0, ansiFgHiMagenta},
	3: {4, ansiFgHiCyan},
	4: {8, ansiFgHiBlue},
}

func (r *gmRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	if !entering {
		if r.mode != Mode_Markdown {
			writeAnsi(w, ansiReset)
		}
		w.WriteByte('\n')
		return ast.WalkContinue, nil
	}
	switch r.mode {
	case Mode_Markdown:
		w.WriteString(strings.Repeat("#", n.Level) + " ")
	case Mode_ANSI, Mode_ANSIdown:
		if st, ok := headingStyle[n.Level]; ok {
			if st.indent > 0 {
				w.WriteString(strings.Repeat(" ", st.indent))
			}
			writeAnsi(w, ansiBold, st.color)
		}
		if r.mode == Mode_ANSIdown {
			w.WriteString(strings.Repeat("#", n.Level) + " ")
		}
	default:
		panicUnsupportedMode(r.mode)
	}
	return ast.WalkContinue, nil
}

func (r *gmRenderer) renderParagraph(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		w.WriteByte('\n')
		return ast.WalkSkipChildren, nil
	}
	n := node.(*ast.Paragraph)
	switch r.mode {
	case Mode_Markdown:
		w.WriteString(string(n.Text(source)))
		w.WriteByte('\n')
	case Mode_ANSI, Mode_ANSIdown:
		left := 4 * findHeading(node)
		body := n.Text(source)
		if r.width > 0 {
			body = wordwrap.Bytes(body, r.width-2-left)
		}
		body = indent.Bytes(body, uint(left))
		w.Write(body)
		w.WriteByte('\n')
		// The .Text() getter flattens all children to plain text, so nested
		// styling elements like emphasis get no special treatment here.
		// Handling those would mean buffering children for wrapping ourselves,
		// outside the goldmark walk system.
	default:
		panicUnsupportedMode(r.mode)
	}
	return ast.WalkSkipChildren, nil
}

func (r *gmRenderer) renderText(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.WriteString(string(node.Text(source)))
	}
	return ast.WalkContinue, nil
}

// In our domain, this isn't generally actual raw HTML; it's just bracket characters,
// so we pass the plain text through.
func (r *gmRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*ast.RawHTML)
		for i := 0; i < n.Segments.Len(); i++ {
			segment := n.Segments.At(i)
			w.WriteString(string(segment.Value(source)))
		}
	}
	return ast.WalkContinue, nil
}

// findHeading reports the level of the heading this node sits under,
// or zero if there's no heading since the last thematic break.
// Used to decide indentation depth.
func findHeading(node ast.Node) int {
	for sib := node.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		switch sib.Kind() {
		case ast.KindHeading:
			return sib.(*ast.Heading).Level
		case ast.KindThematicBreak:
			return 0
		}
	}
	return 0
}
