package leads

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema holds the accepted fields of both groups, keyed by field name.
type Schema struct {
	fields map[Group]map[string]FieldSpec
	order  map[Group][]string
}

func newSchema() *Schema {
	return &Schema{
		fields: map[Group]map[string]FieldSpec{
			GroupLead:     {},
			GroupCustomer: {},
		},
		order: map[Group][]string{},
	}
}

// NewSchema builds a schema from explicit field specs. Both groups must declare at least
// one field.
func NewSchema(specs ...FieldSpec) (*Schema, error) {
	s := newSchema()
	for _, spec := range specs {
		if spec.Group.Table() == "" {
			return nil, fmt.Errorf("field %q has unknown group %q", spec.Name, spec.Group)
		}
		s.add(spec.Name, spec)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseSchema reads the schema document returned by the lead service. Each group is a
// section named after its table; each child of a section is one field with type_name,
// length, values and name children.
func ParseSchema(raw []byte) (*Schema, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}

	s := newSchema()
	for _, g := range Groups {
		node, ok := doc.Body.Get(g.Table())
		if !ok {
			return nil, fmt.Errorf("schema document has no %s section", g.Table())
		}
		section, ok := node.(*Branch)
		if !ok {
			return nil, fmt.Errorf("schema section %s is not a list of fields", g.Table())
		}

		for _, key := range section.Keys() {
			child, _ := section.Get(key)
			field, ok := child.(*Branch)
			if !ok {
				continue
			}
			s.add(key, fieldSpecFrom(g, key, field))
		}
	}

	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func fieldSpecFrom(g Group, key string, field *Branch) FieldSpec {
	spec := FieldSpec{
		Group: g,
		Name:  key,
		Type:  ParseFieldType(field.Text("type_name")),
	}
	if name := strings.TrimSpace(field.Text("name")); name != "" {
		spec.Name = name
	}
	if n, err := strconv.Atoi(strings.TrimSpace(field.Text("length"))); err == nil && n > 0 {
		spec.Length = n
	}
	if values, ok := field.Get("values"); ok {
		spec.AllowedValues = allowedValues(values)
	}
	return spec
}

// allowedValues accepts either a list of child elements or a comma separated leaf.
func allowedValues(n Node) []string {
	var out []string
	switch v := n.(type) {
	case Leaf:
		for _, part := range strings.Split(string(v), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case *Branch:
		for _, key := range v.Keys() {
			child, _ := v.Get(key)
			out = append(out, allowedValues(child)...)
		}
	case *Repeated:
		for _, item := range v.Items {
			out = append(out, allowedValues(item)...)
		}
	}
	return out
}

func (s *Schema) add(key string, spec FieldSpec) {
	group := s.fields[spec.Group]
	if _, exists := group[key]; !exists {
		s.order[spec.Group] = append(s.order[spec.Group], key)
	}
	group[key] = spec
}

func (s *Schema) check() error {
	for _, g := range Groups {
		if len(s.fields[g]) == 0 {
			return fmt.Errorf("schema declares no %s fields", g)
		}
	}
	return nil
}

// Ready reports whether s can be used for routing.
func (s *Schema) Ready() bool {
	return s != nil && s.check() == nil
}

// Lookup returns the spec for name within g.
func (s *Schema) Lookup(g Group, name string) (FieldSpec, bool) {
	if s == nil {
		return FieldSpec{}, false
	}
	spec, ok := s.fields[g][name]
	return spec, ok
}

// Resolve finds the group declaring name, checking groups in priority order.
func (s *Schema) Resolve(name string) (Group, bool) {
	for _, g := range Groups {
		if _, ok := s.Lookup(g, name); ok {
			return g, true
		}
	}
	return "", false
}

// Fields returns the specs of g in document order.
func (s *Schema) Fields(g Group) []FieldSpec {
	if s == nil {
		return nil
	}
	out := make([]FieldSpec, 0, len(s.order[g]))
	for _, key := range s.order[g] {
		out = append(out, s.fields[g][key])
	}
	return out
}
