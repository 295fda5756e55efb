// Package shp decodes the geometry member (.shp) of an ESRI shapefile into
// orb geometries.
package shp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	fileCode   = 9994
	headerSize = 100
)

// ShapeType is the record type code stored in the SHP header and each record.
type ShapeType int32

// Shape types. Z and M variants decode to the same planar geometry as their
// base type; the extra ordinates are dropped.
const (
	Null        ShapeType = 0
	Point       ShapeType = 1
	PolyLine    ShapeType = 3
	Polygon     ShapeType = 5
	MultiPoint  ShapeType = 8
	PointZ      ShapeType = 11
	PolyLineZ   ShapeType = 13
	PolygonZ    ShapeType = 15
	MultiPointZ ShapeType = 18
	PointM      ShapeType = 21
	PolyLineM   ShapeType = 23
	PolygonM    ShapeType = 25
	MultiPointM ShapeType = 28
)

func (t ShapeType) String() string {
	switch t {
	case Null:
		return "Null"
	case Point, PointZ, PointM:
		return "Point"
	case PolyLine, PolyLineZ, PolyLineM:
		return "PolyLine"
	case Polygon, PolygonZ, PolygonM:
		return "Polygon"
	case MultiPoint, MultiPointZ, MultiPointM:
		return "MultiPoint"
	}
	return fmt.Sprintf("ShapeType(%d)", int32(t))
}

var (
	// ErrInvalidHeader indicates the data is not a shapefile main file.
	ErrInvalidHeader = errors.New("shp: invalid header")

	// ErrTruncated indicates a record extends past the end of the data.
	ErrTruncated = errors.New("shp: truncated record")
)

// ErrUnsupportedShape reports a record type this decoder cannot read.
type ErrUnsupportedShape struct {
	Record int
	Type   ShapeType
}

func (e *ErrUnsupportedShape) Error() string {
	return fmt.Sprintf("shp: record %d: unsupported shape type %d", e.Record, int32(e.Type))
}

// Decode returns one geometry per record, in file order. Null shapes decode
// to a nil geometry. A nil transform leaves coordinates untouched.
func Decode(data []byte, transform orb.Projection) ([]orb.Geometry, error) {
	if len(data) < headerSize || binary.BigEndian.Uint32(data[0:4]) != fileCode {
		return nil, ErrInvalidHeader
	}

	end := len(data)
	if declared := int(binary.BigEndian.Uint32(data[24:28])) * 2; declared >= headerSize && declared < end {
		end = declared
	}

	geoms := make([]orb.Geometry, 0)
	offset := headerSize
	for n := 1; offset+8 <= end; n++ {
		length := int(binary.BigEndian.Uint32(data[offset+4:offset+8])) * 2
		offset += 8
		if length < 4 || offset+length > end {
			return nil, fmt.Errorf("record %d: %w", n, ErrTruncated)
		}

		g, err := decodeRecord(data[offset:offset+length], n)
		if err != nil {
			return nil, err
		}
		if g != nil && transform != nil {
			g = project.Geometry(g, transform)
		}

		geoms = append(geoms, g)
		offset += length
	}

	return geoms, nil
}

type record struct {
	buf []byte
	n   int
}

func (r *record) need(off, size int) error {
	if off < 0 || size < 0 || off+size > len(r.buf) {
		return fmt.Errorf("record %d: %w", r.n, ErrTruncated)
	}
	return nil
}

func (r *record) float(off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(r.buf[off:]))
}

func (r *record) int32(off int) int {
	return int(int32(binary.LittleEndian.Uint32(r.buf[off:])))
}

func (r *record) points(off, count int) ([]orb.Point, error) {
	if err := r.need(off, count*16); err != nil {
		return nil, err
	}

	pts := make([]orb.Point, count)
	for i := range pts {
		pts[i] = orb.Point{r.float(off + i*16), r.float(off + i*16 + 8)}
	}
	return pts, nil
}

func decodeRecord(buf []byte, n int) (orb.Geometry, error) {
	r := &record{buf: buf, n: n}
	typ := ShapeType(r.int32(0))

	switch typ {
	case Null:
		return nil, nil
	case Point, PointZ, PointM:
		pts, err := r.points(4, 1)
		if err != nil {
			return nil, err
		}
		return pts[0], nil
	case MultiPoint, MultiPointZ, MultiPointM:
		return r.multiPoint()
	case PolyLine, PolyLineZ, PolyLineM:
		parts, err := r.parts()
		if err != nil {
			return nil, err
		}
		if len(parts) == 1 {
			return orb.LineString(parts[0]), nil
		}
		mls := make(orb.MultiLineString, len(parts))
		for i, p := range parts {
			mls[i] = orb.LineString(p)
		}
		return mls, nil
	case Polygon, PolygonZ, PolygonM:
		parts, err := r.parts()
		if err != nil {
			return nil, err
		}
		return polygon(parts), nil
	}

	return nil, &ErrUnsupportedShape{Record: n, Type: typ}
}

// multiPoint layout: type, bbox (4 doubles), count, points.
func (r *record) multiPoint() (orb.Geometry, error) {
	if err := r.need(36, 4); err != nil {
		return nil, err
	}

	count := r.int32(36)
	if count < 0 {
		return nil, fmt.Errorf("record %d: %w", r.n, ErrTruncated)
	}
	pts, err := r.points(40, count)
	if err != nil {
		return nil, err
	}

	if len(pts) == 1 {
		return pts[0], nil
	}
	return orb.MultiPoint(pts), nil
}

// parts layout: type, bbox (4 doubles), numParts, numPoints, part offsets, points.
func (r *record) parts() ([][]orb.Point, error) {
	if err := r.need(36, 8); err != nil {
		return nil, err
	}

	numParts, numPoints := r.int32(36), r.int32(40)
	if numParts < 0 || numPoints < 0 {
		return nil, fmt.Errorf("record %d: %w", r.n, ErrTruncated)
	}
	if err := r.need(44, numParts*4); err != nil {
		return nil, err
	}

	pts, err := r.points(44+numParts*4, numPoints)
	if err != nil {
		return nil, err
	}

	out := make([][]orb.Point, 0, numParts)
	for i := 0; i < numParts; i++ {
		start := r.int32(44 + i*4)
		stop := numPoints
		if i+1 < numParts {
			stop = r.int32(44 + (i+1)*4)
		}
		if start < 0 || stop > numPoints || start > stop {
			return nil, fmt.Errorf("record %d: part %d: %w", r.n, i, ErrTruncated)
		}
		out = append(out, pts[start:stop])
	}

	return out, nil
}

// polygon groups rings into polygons: a clockwise ring starts a new polygon,
// a counter-clockwise ring is a hole of the polygon before it.
func polygon(rings [][]orb.Point) orb.Geometry {
	var polys orb.MultiPolygon
	for _, pts := range rings {
		ring := orb.Ring(pts)
		if ring.Orientation() == orb.CCW && len(polys) > 0 {
			polys[len(polys)-1] = append(polys[len(polys)-1], ring)
			continue
		}
		polys = append(polys, orb.Polygon{ring})
	}

	switch len(polys) {
	case 0:
		return orb.Polygon{}
	case 1:
		return polys[0]
	}
	return polys
}
