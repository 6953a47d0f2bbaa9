package render

import (
	"io"
	"strconv"
)

// Yet another small ANSI color code table.
//
// The ecosystem's styling libraries all wrap vastly more than we need
// (environments get probed, styles get composed through maps, allocations
// abound), and several of them read env vars from inside a utility library,
// which is a bit much.  All we need here is a few SGR codes and a way to
// write them to a stream.

type ansiColor int

// writeAnsi emits one CSI..m sequence selecting the given attributes.
func writeAnsi(wr io.Writer, codes ...ansiColor) (int, error) {
	seq := make([]byte, 0, 8)
	seq = append(seq, 0x1b, '[')
	for i, code := range codes {
		if i > 0 {
			seq = append(seq, ';')
		}
		seq = strconv.AppendInt(seq, int64(code), 10)
	}
	seq = append(seq, 'm')
	return wr.Write(seq)
}

// Attributes.
const (
	ansiReset ansiColor = iota
	ansiBold
	ansiFaint
	ansiItalic
	ansiUnderline
)

// Foreground colors, normal and high intensity.
const (
	ansiFgBlack ansiColor = iota + 30
	ansiFgRed
	ansiFgGreen
	ansiFgYellow
	ansiFgBlue
	ansiFgMagenta
	ansiFgCyan
	ansiFgWhite
)

const (
	ansiFgHiBlack ansiColor = iota + 90
	ansiFgHiRed
	ansiFgHiGreen
	ansiFgHiYellow
	ansiFgHiBlue
	ansiFgHiMagenta
	ansiFgHiCyan
	ansiFgHiWhite
)
