package dbf

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when a layer ships no .cpg member.
const DefaultEncoding = "gb2312"

var (
	codePage = regexp.MustCompile(`^(?i:ANSI\s*)?(\d{3,5})$`)
	iso8859  = regexp.MustCompile(`^(?i:ISO[\s_-]*)?8859[\s_-]*(\d{1,2})$`)
)

// LookupEncoding resolves a .cpg style encoding name. Bare code page
// numbers map to windows-N, "88591" style names to iso-8859-N. Unknown or
// empty names resolve to UTF-8.
func LookupEncoding(name string) encoding.Encoding {
	name = strings.TrimSpace(name)
	if name == "" {
		return unicode.UTF8
	}

	candidates := []string{name}
	if m := iso8859.FindStringSubmatch(name); m != nil {
		candidates = append(candidates, "iso-8859-"+m[1])
	}
	if m := codePage.FindStringSubmatch(name); m != nil {
		if m[1] == "65001" {
			return unicode.UTF8
		}
		candidates = append(candidates, "windows-"+m[1])
	}

	for _, c := range candidates {
		if e, err := htmlindex.Get(c); err == nil && e != nil {
			return e
		}
		if e, err := ianaindex.IANA.Encoding(c); err == nil && e != nil {
			return e
		}
	}

	return unicode.UTF8
}
