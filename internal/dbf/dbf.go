// Package dbf decodes the attribute member (.dbf) of a shapefile into one
// property map per record.
package dbf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
)

// ErrInvalidHeader indicates the data is not a dBASE table.
var ErrInvalidHeader = errors.New("dbf: invalid header")

// Field is a column descriptor.
type Field struct {
	Name     string
	Type     byte
	Size     int
	Decimals int
	offset   int
}

// Decode returns the records of a dBASE table. Strings, including field
// names, are decoded with the named character encoding (see LookupEncoding).
// Deleted records are kept so record i still pairs with shape i.
func Decode(data []byte, encodingName string) ([]map[string]interface{}, error) {
	if len(data) < 32 {
		return nil, ErrInvalidHeader
	}

	numRecords := int(binary.LittleEndian.Uint32(data[4:8]))
	headerLen := int(binary.LittleEndian.Uint16(data[8:10]))
	recordLen := int(binary.LittleEndian.Uint16(data[10:12]))
	if headerLen < 33 || headerLen > len(data) || recordLen < 1 {
		return nil, ErrInvalidHeader
	}

	dec := LookupEncoding(encodingName).NewDecoder()
	fields, err := readFields(data[:headerLen], recordLen, dec)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0, numRecords)
	for i := 0; i < numRecords; i++ {
		start := headerLen + i*recordLen
		if start+recordLen > len(data) {
			break
		}
		row := data[start : start+recordLen]

		props := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			props[f.Name] = parseValue(f, row[f.offset:f.offset+f.Size], dec)
		}
		records = append(records, props)
	}

	return records, nil
}

func readFields(header []byte, recordLen int, dec *encoding.Decoder) ([]Field, error) {
	var fields []Field
	offset := 1 // deletion flag
	for pos := 32; pos+32 <= len(header) && header[pos] != 0x0d; pos += 32 {
		desc := header[pos : pos+32]

		rawName := desc[0:11]
		if i := bytes.IndexByte(rawName, 0); i >= 0 {
			rawName = rawName[:i]
		}

		f := Field{
			Name:     decodeString(rawName, dec),
			Type:     desc[11],
			Size:     int(desc[16]),
			Decimals: int(desc[17]),
			offset:   offset,
		}
		offset += f.Size
		if offset > recordLen {
			return nil, fmt.Errorf("%w: field %q exceeds record length", ErrInvalidHeader, f.Name)
		}
		fields = append(fields, f)
	}

	return fields, nil
}

func decodeString(b []byte, dec *encoding.Decoder) string {
	out, err := dec.Bytes(b)
	if err != nil {
		out = b
	}
	return strings.TrimSpace(strings.TrimRight(string(out), "\x00"))
}

func parseValue(f Field, raw []byte, dec *encoding.Decoder) interface{} {
	switch f.Type {
	case 'N', 'F', 'O':
		s := strings.TrimSpace(string(raw))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return v
	case 'L':
		switch strings.TrimSpace(string(raw)) {
		case "Y", "y", "T", "t":
			return true
		case "N", "n", "F", "f":
			return false
		}
		return nil
	case 'D':
		s := strings.TrimSpace(string(raw))
		d, err := time.Parse("20060102", s)
		if err != nil {
			return nil
		}
		return d
	default:
		return decodeString(raw, dec)
	}
}
