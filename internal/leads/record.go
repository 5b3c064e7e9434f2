package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Entry is one key/value pair of a Record.
type Entry struct {
	Key   string
	Value interface{}
}

// Record is an ordered lead input. Entry order decides which value wins on conflicts.
type Record []Entry

// RecordFromMap builds a Record from m with keys in sorted order. Nested maps are
// converted too.
func RecordFromMap(m map[string]interface{}) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := make(Record, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]interface{}); ok {
			v = RecordFromMap(nested)
		}
		rec = append(rec, Entry{Key: k, Value: v})
	}
	return rec
}

// Get returns the value of the first entry named key.
func (r Record) Get(key string) (interface{}, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Map flattens r into a map. Later duplicates win.
func (r Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for _, e := range r {
		if nested, ok := e.Value.(Record); ok {
			out[e.Key] = nested.Map()
			continue
		}
		out[e.Key] = e.Value
	}
	return out
}

// MarshalJSON writes r as a JSON object in entry order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", e.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping its key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := ParseRecordJSON(data)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// ParseRecordJSON decodes a JSON object into a Record, preserving key order at every
// level. Numbers are kept as json.Number.
func ParseRecordJSON(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("read record: expected object, got %v", tok)
	}

	rec, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("read record: trailing data after object")
	}
	return rec, nil
}

func decodeObject(dec *json.Decoder) (Record, error) {
	rec := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("read record: expected key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec = append(rec, Entry{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return rec, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		list := []interface{}{}
		for dec.More() {
			item, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("read record: unexpected %v", delim)
	}
}

// asRecord accepts the mapping shapes a group alias value may take.
func asRecord(v interface{}) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]interface{}:
		return RecordFromMap(m), true
	case Mapping:
		return RecordFromMap(m), true
	case map[string]string:
		generic := make(map[string]interface{}, len(m))
		for k, s := range m {
			generic[k] = s
		}
		return RecordFromMap(generic), true
	default:
		return nil, false
	}
}
