package geo

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidDocument is returned for pass-through JSON members that do not parse.
var ErrInvalidDocument = errors.New("geo: invalid JSON document")

// Kind tells which of its payloads a Layer carries.
type Kind int

// Layer kinds.
const (
	KindFeatures Kind = iota
	KindDocument
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindFeatures:
		return "features"
	case KindDocument:
		return "document"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Layer is one entry of a conversion result: a decoded shapefile, a JSON
// document carried through from the archive, or plain text carried through.
type Layer struct {
	FileName   string
	kind       Kind
	collection FeatureCollection
	document   json.RawMessage
	text       string
}

// FeatureLayer tags fc with name and wraps it. An empty name leaves the
// collection without a fileName member.
func FeatureLayer(name string, fc FeatureCollection) Layer {
	fc.FileName = name
	return Layer{FileName: name, kind: KindFeatures, collection: fc}
}

// DocumentLayer wraps a pass-through JSON document. When the document is an
// object its fileName member is set to name; other JSON values are kept as is.
func DocumentLayer(name string, doc []byte) (Layer, error) {
	if !gjson.ValidBytes(doc) {
		return Layer{}, ErrInvalidDocument
	}

	if gjson.ParseBytes(doc).IsObject() {
		tagged, err := sjson.SetBytes(doc, "fileName", name)
		if err != nil {
			return Layer{}, err
		}
		doc = tagged
	}

	return Layer{FileName: name, kind: KindDocument, document: doc}, nil
}

// TextLayer wraps a pass-through member that is not JSON.
func TextLayer(name, text string) Layer {
	return Layer{FileName: name, kind: KindText, text: text}
}

// Kind reports the payload carried by l.
func (l Layer) Kind() Kind { return l.kind }

// Collection returns the feature collection of a KindFeatures layer.
func (l Layer) Collection() (FeatureCollection, bool) {
	return l.collection, l.kind == KindFeatures
}

// Document returns the JSON document of a KindDocument layer.
func (l Layer) Document() json.RawMessage { return l.document }

// Text returns the content of a KindText layer.
func (l Layer) Text() string { return l.text }

type textLayer struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

// MarshalJSON encodes the payload: the collection, the document verbatim, or
// a {fileName, content} object for text.
func (l Layer) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case KindDocument:
		return l.document, nil
	case KindText:
		return json.Marshal(textLayer{FileName: l.FileName, Content: l.text})
	default:
		return json.Marshal(l.collection)
	}
}

// Result is the output of a conversion: exactly one layer (Single) or an
// ordered sequence of layers (Multiple).
type Result struct {
	layers []Layer
}

// NewResult collects layers in discovery order.
func NewResult(layers ...Layer) Result {
	return Result{layers: layers}
}

// Single returns the layer when the result holds exactly one.
func (r Result) Single() (Layer, bool) {
	if len(r.layers) != 1 {
		return Layer{}, false
	}
	return r.layers[0], true
}

// Multiple returns the layers when the result does not hold exactly one.
func (r Result) Multiple() ([]Layer, bool) {
	if len(r.layers) == 1 {
		return nil, false
	}
	return r.layers, true
}

// Layers returns every layer regardless of the variant.
func (r Result) Layers() []Layer { return r.layers }

// IsZero reports whether r was never populated.
func (r Result) IsZero() bool { return r.layers == nil }

// MarshalJSON encodes Single as the layer itself and Multiple as an array.
func (r Result) MarshalJSON() ([]byte, error) {
	if l, ok := r.Single(); ok {
		return json.Marshal(l)
	}
	if r.layers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.layers)
}

// Clone returns a deep copy of r. Geometries, property maps and pass-through
// payloads are not shared with r.
func (r Result) Clone() Result {
	if r.layers == nil {
		return Result{}
	}

	layers := make([]Layer, len(r.layers))
	for i, l := range r.layers {
		layers[i] = l.clone()
	}
	return Result{layers: layers}
}

func (l Layer) clone() Layer {
	l.collection = l.collection.Clone()
	if l.document != nil {
		l.document = append(json.RawMessage(nil), l.document...)
	}
	return l
}
