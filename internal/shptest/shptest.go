// Package shptest builds in-memory shapefile members for tests.
package shptest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// SHP encodes geometries as a shapefile main file. Supported inputs are nil
// (null shape), orb.Point, orb.MultiPoint, orb.LineString, orb.MultiLineString,
// orb.Polygon and orb.MultiPolygon. Rings are written as given.
func SHP(geoms ...orb.Geometry) []byte {
	var body bytes.Buffer
	for i, g := range geoms {
		content := record(g)
		_ = binary.Write(&body, binary.BigEndian, int32(i+1))
		_ = binary.Write(&body, binary.BigEndian, int32(len(content)/2))
		body.Write(content)
	}

	header := make([]byte, 100)
	binary.BigEndian.PutUint32(header[0:], 9994)
	binary.BigEndian.PutUint32(header[24:], uint32((100+body.Len())/2))
	binary.LittleEndian.PutUint32(header[28:], 1000)
	if len(geoms) > 0 {
		binary.LittleEndian.PutUint32(header[32:], uint32(shapeType(geoms[0])))
	}

	return append(header, body.Bytes()...)
}

func shapeType(g orb.Geometry) int32 {
	switch g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return 8
	case orb.LineString, orb.MultiLineString:
		return 3
	case orb.Polygon, orb.MultiPolygon:
		return 5
	}
	return 0
}

func record(g orb.Geometry) []byte {
	var b bytes.Buffer
	le := func(v any) { _ = binary.Write(&b, binary.LittleEndian, v) }

	le(shapeType(g))
	switch v := g.(type) {
	case nil:
	case orb.Point:
		le(v[0])
		le(v[1])
	case orb.MultiPoint:
		le([4]float64{})
		le(int32(len(v)))
		for _, p := range v {
			le(p[0])
			le(p[1])
		}
	case orb.LineString:
		writeParts(le, [][]orb.Point{v})
	case orb.MultiLineString:
		parts := make([][]orb.Point, len(v))
		for i, l := range v {
			parts[i] = l
		}
		writeParts(le, parts)
	case orb.Polygon:
		writeParts(le, rings(v))
	case orb.MultiPolygon:
		var parts [][]orb.Point
		for _, p := range v {
			parts = append(parts, rings(p)...)
		}
		writeParts(le, parts)
	default:
		panic(fmt.Sprintf("shptest: unsupported geometry %T", g))
	}

	return b.Bytes()
}

func rings(p orb.Polygon) [][]orb.Point {
	out := make([][]orb.Point, len(p))
	for i, r := range p {
		out[i] = r
	}
	return out
}

func writeParts(le func(any), parts [][]orb.Point) {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	le([4]float64{})
	le(int32(len(parts)))
	le(int32(total))

	start := 0
	for _, p := range parts {
		le(int32(start))
		start += len(p)
	}
	for _, p := range parts {
		for _, pt := range p {
			le(pt[0])
			le(pt[1])
		}
	}
}

// Field describes a DBF column.
type Field struct {
	Name     string
	Type     byte
	Size     int
	Decimals int
}

// DBF encodes records as a dBASE III table. Values are written verbatim,
// left-aligned and space padded to the field size. A record whose first
// value starts with "*" is marked deleted and the marker is stripped.
func DBF(fields []Field, records ...[]string) []byte {
	recordLen := 1
	for _, f := range fields {
		recordLen += f.Size
	}
	headerLen := 32 + 32*len(fields) + 1

	var b bytes.Buffer
	header := make([]byte, 32)
	header[0] = 0x03
	header[1], header[2], header[3] = 124, 1, 1
	binary.LittleEndian.PutUint32(header[4:], uint32(len(records)))
	binary.LittleEndian.PutUint16(header[8:], uint16(headerLen))
	binary.LittleEndian.PutUint16(header[10:], uint16(recordLen))
	b.Write(header)

	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc[0:11], f.Name)
		desc[11] = f.Type
		desc[16] = byte(f.Size)
		desc[17] = byte(f.Decimals)
		b.Write(desc)
	}
	b.WriteByte(0x0d)

	for _, rec := range records {
		flag := byte(' ')
		for i, f := range fields {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			if i == 0 && strings.HasPrefix(v, "*") {
				flag = '*'
				v = v[1:]
			}
			if i == 0 {
				b.WriteByte(flag)
			}
			cell := make([]byte, f.Size)
			for j := range cell {
				cell[j] = ' '
			}
			copy(cell, v)
			b.Write(cell)
		}
	}
	b.WriteByte(0x1a)

	return b.Bytes()
}

// Entry is a named zip member.
type Entry struct {
	Name string
	Data []byte
}

// Zip writes entries, in order, into a zip archive.
func Zip(entries ...Entry) []byte {
	var b bytes.Buffer
	w := zip.NewWriter(&b)
	for _, e := range entries {
		f, err := w.Create(e.Name)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write(e.Data); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// Square returns a closed clockwise ring with its lower left corner at (x, y).
func Square(x, y, size float64) orb.Ring {
	return orb.Ring{{x, y}, {x, y + size}, {x + size, y + size}, {x + size, y}, {x, y}}
}

// Reverse returns r with its vertex order reversed.
func Reverse(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Equal reports whether a and b are within 1e-9 of each other.
func Equal(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < 1e-9 && math.Abs(a[1]-b[1]) < 1e-9
}
