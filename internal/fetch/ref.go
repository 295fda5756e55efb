package fetch

import (
	"path"
	"path/filepath"
	"strings"
)

// split separates the path part of ref from a trailing URL query or fragment.
func split(ref string) (p, tail string) {
	if !IsRemote(ref) {
		return ref, ""
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// Sibling returns the reference of the base.ext member, keeping any URL
// query string after the path.
func Sibling(base, ext string) string {
	p, tail := split(base)
	return p + "." + ext + tail
}

// StripShp removes a trailing .shp (any case) from the path of ref.
func StripShp(ref string) string {
	p, tail := split(ref)
	if len(p) >= 4 && strings.EqualFold(p[len(p)-4:], ".shp") {
		p = p[:len(p)-4]
	}
	return p + tail
}

// IsZip reports whether the path of ref ends in .zip, ignoring case.
func IsZip(ref string) bool {
	p, _ := split(ref)
	return len(p) >= 4 && strings.EqualFold(p[len(p)-4:], ".zip")
}

// Basename returns the last path element of ref.
func Basename(ref string) string {
	p, _ := split(ref)
	if IsRemote(p) {
		return path.Base(p)
	}
	return filepath.Base(p)
}
