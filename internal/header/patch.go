// Package header locates and rewrites the generated version header that
// lets a firmware build report its own provenance.
package header

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// BuildStampLayout is the time layout of the build identifier written into
// the artifact. The value is a timestamp rendered as a bare token, not an
// incrementing build counter, even though the macro name suggests one.
const BuildStampLayout = "20060102-150405"

// Macros names the three #define directives rewritten on every stamp.
type Macros struct {
	Hash   string
	Branch string
	Build  string
}

// DefaultMacros returns the macro names used by the stock firmware header.
func DefaultMacros() Macros {
	return Macros{
		Hash:   "FW_GIT_HASH",
		Branch: "FW_GIT_BRANCH",
		Build:  "FW_VERSION_BUILD",
	}
}

// Values holds the replacement values for one stamping pass. Hash carries
// the dirty suffix already applied.
type Values struct {
	Hash   string
	Branch string
	Build  string
}

// Patcher rewrites macro values in header text. It is a pure transform
// from old text to new text: anything that matches none of its patterns
// round-trips byte-for-byte.
type Patcher struct {
	hash   *macroPattern
	branch *macroPattern
	build  *macroPattern
	extra  []*macroPattern
}

// macroPattern matches one #define directive. Group 1 captures the
// directive up to and including the whitespace before the value, group 2
// the old value.
type macroPattern struct {
	name  string
	re    *regexp.Regexp
	value string // replacement for extra defines; unused for the core three
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quotedPattern matches a macro whose value is a double-quoted string.
func quotedPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(#define[ \t]+` + regexp.QuoteMeta(name) + `[ \t]+)("[^"]*")`)
}

// barePattern matches a macro whose value is an integer-like token. The
// token may contain hyphens so that an already-stamped timestamp is
// matched in full, which keeps repeated runs idempotent. A quoted value
// deliberately does not match.
func barePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(#define[ \t]+` + regexp.QuoteMeta(name) + `[ \t]+)([0-9][0-9-]*)`)
}

// anyPattern matches a macro with either value shape.
func anyPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(#define[ \t]+` + regexp.QuoteMeta(name) + `[ \t]+)("[^"]*"|[^ \t\r\n]+)`)
}

// NewPatcher compiles substitution patterns for the named macros plus any
// extra defines. Macro and define names must be valid C identifiers, and
// an extra define may not reuse one of the stamped macro names.
func NewPatcher(m Macros, defines map[string]string) (*Patcher, error) {
	for _, name := range []string{m.Hash, m.Branch, m.Build} {
		if !identRe.MatchString(name) {
			return nil, fmt.Errorf("invalid macro name %q", name)
		}
	}

	p := &Patcher{
		hash:   &macroPattern{name: m.Hash, re: quotedPattern(m.Hash)},
		branch: &macroPattern{name: m.Branch, re: quotedPattern(m.Branch)},
		build:  &macroPattern{name: m.Build, re: barePattern(m.Build)},
	}

	names := make([]string, 0, len(defines))
	for name := range defines {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !identRe.MatchString(name) {
			return nil, fmt.Errorf("invalid define name %q", name)
		}
		if name == m.Hash || name == m.Branch || name == m.Build {
			return nil, fmt.Errorf("define %q collides with a stamped macro", name)
		}
		p.extra = append(p.extra, &macroPattern{name: name, re: anyPattern(name), value: defines[name]})
	}
	return p, nil
}

// Apply rewrites the macro values in text and returns the new text. Each
// substitution is independent: a macro whose declaration is absent is
// skipped without error, so partially matching templates are tolerated.
func (p *Patcher) Apply(text string, v Values) string {
	text = replaceValue(p.hash.re, text, `"`+v.Hash+`"`)
	text = replaceValue(p.branch.re, text, `"`+v.Branch+`"`)
	text = replaceValue(p.build.re, text, v.Build)
	for _, d := range p.extra {
		text = replaceShaped(d.re, text, d.value)
	}
	return text
}

// Extract reads the current macro values out of text, unquoted. Macros
// without a matching declaration are absent from the result.
func (p *Patcher) Extract(text string) map[string]string {
	out := make(map[string]string)
	patterns := []*macroPattern{p.hash, p.branch, p.build}
	patterns = append(patterns, p.extra...)
	for _, d := range patterns {
		if sub := d.re.FindStringSubmatch(text); sub != nil {
			out[d.name] = strings.Trim(sub[2], `"`)
		}
	}
	return out
}

// replaceValue swaps the captured value for repl, keeping the directive
// prefix. ReplaceAllStringFunc sidesteps $-expansion of the replacement.
func replaceValue(re *regexp.Regexp, text, repl string) string {
	return re.ReplaceAllStringFunc(text, func(match string) string {
		sub := re.FindStringSubmatch(match)
		return sub[1] + repl
	})
}

// replaceShaped keeps the existing value shape: a quoted value stays
// quoted, a bare token stays bare.
func replaceShaped(re *regexp.Regexp, text, value string) string {
	return re.ReplaceAllStringFunc(text, func(match string) string {
		sub := re.FindStringSubmatch(match)
		if strings.HasPrefix(sub[2], `"`) {
			return sub[1] + `"` + value + `"`
		}
		return sub[1] + value
	})
}
