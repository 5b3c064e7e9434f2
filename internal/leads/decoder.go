package leads

import (
	"fmt"

	"lead-workers/internal/common/errors"
)

// Mapping is the nested key/value form of a response document.
type Mapping map[string]interface{}

// String returns the string value at key, or "" when absent or nested.
func (m Mapping) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Sub returns the nested mapping at key, or nil.
func (m Mapping) Sub(key string) Mapping {
	sub, _ := m[key].(Mapping)
	return sub
}

// Decode converts a response document into a Mapping. doc may be raw XML (string or
// []byte), a *Document or a *Branch. Leaves become strings and branches become nested
// mappings; repeated sibling elements have no single value and are left out.
func Decode(doc interface{}) (Mapping, error) {
	body, err := documentBody(doc)
	if err != nil {
		return nil, err
	}
	return decodeBranch(body), nil
}

func decodeBranch(b *Branch) Mapping {
	out := make(Mapping, b.Len())
	for _, key := range b.Keys() {
		child, _ := b.Get(key)
		switch n := child.(type) {
		case Leaf:
			out[key] = string(n)
		case *Branch:
			out[key] = decodeBranch(n)
		}
	}
	return out
}

func documentBody(doc interface{}) (*Branch, error) {
	switch d := doc.(type) {
	case string:
		return parseBody([]byte(d))
	case []byte:
		return parseBody(d)
	case *Document:
		if d == nil || d.Body == nil {
			return nil, errors.NewMalformedResponseError(fmt.Errorf("empty document"))
		}
		return d.Body, nil
	case *Branch:
		if d == nil {
			return nil, errors.NewMalformedResponseError(fmt.Errorf("empty document"))
		}
		return d, nil
	default:
		return nil, errors.NewMalformedResponseError(fmt.Errorf("unsupported document type %T", doc))
	}
}

func parseBody(raw []byte) (*Branch, error) {
	parsed, err := ParseDocument(raw)
	if err != nil {
		return nil, errors.NewMalformedResponseError(err)
	}
	return parsed.Body, nil
}
