// Package epsg maps coordinate system names to EPSG codes and EPSG codes to
// projection definition strings.
package epsg

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed epsg.yaml
var builtin []byte

// Definition is a single registry entry.
type Definition struct {
	Proj4 string   `yaml:"proj4"`
	Names []string `yaml:"names"`
	Code  int      `yaml:"code"`
}

// Registry answers name and code lookups. It is read-only after Load.
type Registry struct {
	byName map[string]int
	byCode map[int]string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded table.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(builtin)
		if err != nil {
			panic(fmt.Sprintf("epsg: embedded table: %v", err))
		}
		defaultRegistry = r
	})

	return defaultRegistry
}

// Load parses a YAML list of definitions.
func Load(data []byte) (*Registry, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	r := &Registry{
		byName: make(map[string]int),
		byCode: make(map[int]string, len(defs)),
	}

	for i, d := range defs {
		if d.Code <= 0 {
			return nil, fmt.Errorf("entry %d: invalid code %d", i, d.Code)
		}
		if d.Proj4 != "" {
			r.byCode[d.Code] = d.Proj4
		}
		for _, n := range d.Names {
			r.byName[n] = d.Code
		}
	}

	return r, nil
}

// Code returns the EPSG code registered for a coordinate system name.
func (r *Registry) Code(name string) (int, bool) {
	code, ok := r.byName[name]
	return code, ok
}

// Definition returns the projection definition for an EPSG code.
func (r *Registry) Definition(code int) (string, bool) {
	def, ok := r.byCode[code]
	return def, ok
}
