package helpgen

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// Flag stringing.  The templates lean on `{{$e.String}}` to describe each
// flag, and `urfave/cli` routes that through yet another package var, so
// the markdown-speaking replacement gets installed here.

func init() {
	cli.FlagStringer = flagStringer
}

func flagStringer(f cli.Flag) string {
	// Flags must implement DocGenerationFlag; there is no reflection fallback.
	df := f.(cli.DocGenerationFlag)

	placeholder, usage := unquoteUsage(df.GetUsage())
	if df.TakesValue() && placeholder == "" {
		placeholder = "VALUE"
	}

	// Bool flags can opt out of showing a default.  Everything else shows
	// one whenever the flag declares default text.
	defaultText := ""
	if bf, ok := f.(*cli.BoolFlag); !ok || !bf.DisableDefaultText {
		if s := df.GetDefaultText(); s != "" {
			defaultText = fmt.Sprintf("\n\n(default: **%s**)", s)
		}
	}

	pn := prefixedNames(df.Names(), placeholder)
	if sf, ok := f.(cli.DocGenerationSliceFlag); ok && sf.IsSliceFlag() {
		pn = pn + " [ " + pn + " ]"
	}

	return withEnvHint(df.GetEnvVars(), fmt.Sprintf("#### %s\n\n%s\n", pn, strings.TrimSpace(usage+defaultText)))
}

// unquoteUsage pulls the backtick-quoted placeholder out of a usage string,
// if there is one.  Returns the placeholder and the usage with the backticks
// dropped.
func unquoteUsage(usage string) (string, string) {
	i := strings.IndexByte(usage, '`')
	if i < 0 {
		return "", usage
	}
	j := strings.IndexByte(usage[i+1:], '`')
	if j < 0 {
		return "", usage
	}
	name := usage[i+1 : i+1+j]
	return name, usage[:i] + name + usage[i+2+j:]
}

func prefixedNames(names []string, placeholder string) string {
	var sb strings.Builder
	for i, name := range names {
		if name == "" {
			continue
		}
		if len(name) == 1 {
			sb.WriteString("-")
		} else {
			sb.WriteString("--")
		}
		sb.WriteString(name)
		if placeholder != "" {
			sb.WriteString("=<" + placeholder + ">")
		}
		if i < len(names)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

func withEnvHint(envVars []string, str string) string {
	if len(envVars) == 0 {
		return str
	}
	return str + fmt.Sprintf("\n(env var: $**%s**)", strings.Join(envVars, ", $"))
}
