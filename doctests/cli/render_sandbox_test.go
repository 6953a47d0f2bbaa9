package doctests_cli

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"

	loomapp "github.com/warptools/loom/app"
)

// TestRenderSandbox is a scratchpad for tuning the ANSI help styling.
// It prints the app help twice: once raw, and once through a glamour
// renderer configured by sandboxStyle, so the two can be eyeballed side
// by side.  Nothing is asserted.
func TestRenderSandbox(t *testing.T) {
	loomapp.App.Writer = os.Stdout
	loomapp.App.ErrWriter = os.Stderr
	_ = loomapp.App.Run([]string{"loom", "-h"})

	fmt.Println("--------")

	r, _ := glamour.NewTermRenderer(
		glamour.WithStyles(sandboxStyle()),
		glamour.WithWordWrap(80), // Larger values misbehave in some terminals; 80 reads fine for a scratchpad.
	)
	loomapp.App.Writer = r
	loomapp.App.ErrWriter = r
	_ = loomapp.App.Run([]string{"loom", "-h"})

	r.Close()
	io.Copy(os.Stdout, r)

	fmt.Println("--------")
}

// sandboxStyle tweaks the stock dark style into something closer to what
// the help renderer does natively.  (glamour.ASCIIStyleConfig drops the
// colors but keeps the block shapes, which is handy when diffing.)
func sandboxStyle() ansi.StyleConfig {
	strp := func(s string) *string { return &s }
	uintp := func(u uint) *uint { return &u }
	style := glamour.DarkStyleConfig
	style.Document.Margin = uintp(0)
	style.Paragraph.Margin = uintp(6)
	style.Code.Prefix = "`"
	style.Code.Suffix = "`"
	style.CodeBlock.Margin = uintp(8)
	style.CodeBlock.Prefix = "```\n"
	style.CodeBlock.Suffix = "```\n"
	style.H3.BlockSuffix = " "
	style.H3.Margin = uintp(2)
	style.H3.Color = strp("135")
	style.H4.BlockSuffix = " "
	style.H4.Margin = uintp(2)
	style.H4.Color = strp("67")
	return style
}
