package libcache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"jaivals/internal/symbols"
)

// Current schema version - increment when the msgpack payload changes.
const schemaVersion uint16 = 1

// ErrSchemaMismatch means a msgpack cache was written by an incompatible version.
var ErrSchemaMismatch = errors.New("library cache schema mismatch")

// Format selects the on-disk encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFor picks explicit when set, otherwise infers the format from the file extension.
func FormatFor(path string, explicit string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(explicit))) {
	case "":
	case FormatJSON:
		return FormatJSON, nil
	case FormatMsgpack, "mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown library cache format %q", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp", ".msgpack":
		return FormatMsgpack, nil
	default:
		return FormatJSON, nil
	}
}

// Encode writes set in format f.
func Encode(w io.Writer, set *Set, f Format) error {
	switch f {
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(toPayload(set))
	case FormatJSON, "":
		data, err := MarshalJSON(set)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown library cache format %q", f)
	}
}

// Decode reads a set in format f.
func Decode(r io.Reader, f Format) (*Set, error) {
	switch f {
	case FormatMsgpack:
		var p payload
		if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
			return nil, err
		}
		return fromPayload(&p)
	case FormatJSON, "":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return UnmarshalJSON(data)
	default:
		return nil, fmt.Errorf("unknown library cache format %q", f)
	}
}

type payload struct {
	Schema    uint16
	Libraries []libraryPayload
}

type libraryPayload struct {
	Path    string
	Names   []string
	Records [][]symbols.Record
}

func toPayload(set *Set) *payload {
	p := &payload{Schema: schemaVersion}
	for _, path := range set.Paths() {
		idx, _ := set.Lookup(path)
		lib := libraryPayload{Path: path}
		for name, records := range idx.All() {
			lib.Names = append(lib.Names, name)
			lib.Records = append(lib.Records, records)
		}
		p.Libraries = append(p.Libraries, lib)
	}
	return p
}

func fromPayload(p *payload) (*Set, error) {
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrSchemaMismatch, p.Schema, schemaVersion)
	}
	set := NewSet()
	for _, lib := range p.Libraries {
		if len(lib.Names) != len(lib.Records) {
			return nil, fmt.Errorf("library %s: %d names for %d record lists", lib.Path, len(lib.Names), len(lib.Records))
		}
		idx := symbols.NewIndex()
		for i, name := range lib.Names {
			idx.Add(name, lib.Records[i]...)
		}
		set.Put(lib.Path, idx.CompactEmpty())
	}
	return set, nil
}

// MarshalJSON renders set as {"path": {"name": [record, ...]}} keeping path and name order.
func MarshalJSON(set *Set) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, path := range set.Paths() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, path); err != nil {
			return nil, err
		}
		idx, _ := set.Lookup(path)
		buf.WriteByte('{')
		j := 0
		for name, records := range idx.All() {
			if j > 0 {
				buf.WriteByte(',')
			}
			j++
			if err := writeJSONKey(&buf, name); err != nil {
				return nil, err
			}
			data, err := json.Marshal(records)
			if err != nil {
				return nil, fmt.Errorf("library %s symbol %s: %w", path, name, err)
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(data)
	buf.WriteByte(':')
	return nil
}

// UnmarshalJSON parses the lib.json shape, keeping document order. Empty name lists are dropped.
func UnmarshalJSON(data []byte) (*Set, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	set := NewSet()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		path, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		idx := symbols.NewIndex()
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("library %s: %w", path, err)
		}
		for dec.More() {
			name, err := readKey(dec)
			if err != nil {
				return nil, fmt.Errorf("library %s: %w", path, err)
			}
			var records []symbols.Record
			if err := dec.Decode(&records); err != nil {
				return nil, fmt.Errorf("library %s symbol %s: %w", path, name, err)
			}
			idx.Add(name, records...)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("library %s: %w", path, err)
		}
		set.Put(path, idx.CompactEmpty())
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return set, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}
