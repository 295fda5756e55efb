package archive

import (
	"path"
	"strings"
)

// Role is the part a member plays in a shapefile bundle.
type Role int

// Roles.
const (
	Unknown Role = iota
	Geometry
	Attribute
	Projection
	Encoding
	PassThrough
)

func (r Role) String() string {
	switch r {
	case Geometry:
		return "geometry"
	case Attribute:
		return "attribute"
	case Projection:
		return "projection"
	case Encoding:
		return "encoding"
	case PassThrough:
		return "pass-through"
	}
	return "unknown"
}

const macOSMeta = "__MACOSX"

// Classify assigns a role to a member name. Extensions match regardless of
// case, and so do allow-list entries. Resource fork entries and directories
// are Unknown.
func Classify(name string, allow []string) Role {
	if strings.Contains(name, macOSMeta) || strings.HasSuffix(name, "/") {
		return Unknown
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "shp":
		return Geometry
	case "prj":
		return Projection
	}

	if strings.HasSuffix(strings.ToLower(name), "json") {
		return PassThrough
	}
	for _, a := range allow {
		if ext != "" && strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return PassThrough
		}
	}

	switch ext {
	case "dbf":
		return Attribute
	case "cpg":
		return Encoding
	}
	return Unknown
}

// stem returns name without its extension.
func stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// isJSON reports whether a pass-through member is parsed as JSON.
func isJSON(name string) bool {
	return strings.Contains(strings.ToLower(path.Ext(name)), "json")
}
