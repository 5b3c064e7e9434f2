package leads

import (
	"fmt"
	"time"

	"lead-workers/internal/common/errors"
)

// DropReason explains why an input field was left out of a request.
type DropReason string

const (
	ReasonUnknownField DropReason = "unknown_field"
	ReasonInvalidValue DropReason = "invalid_value"
	ReasonNotAMapping  DropReason = "not_a_mapping"
	ReasonConflict     DropReason = "conflict"
)

// Resolution records what happened to one input field. Key is the top-level record key;
// for fields nested under a group alias Field differs from Key and Tagged is set.
type Resolution struct {
	Key    string
	Field  string
	Group  Group
	Tagged bool
	Routed bool
	Value  string
	Reason DropReason
}

// Field is a validated name/value pair.
type Field struct {
	Name  string
	Value string
}

// FieldSet holds validated fields per group in insertion order. The same field name may
// appear in both groups when each copy was routed there explicitly.
type FieldSet struct {
	names  map[Group][]string
	values map[Group]map[string]string
}

func NewFieldSet() *FieldSet {
	return &FieldSet{
		names:  map[Group][]string{},
		values: map[Group]map[string]string{GroupLead: {}, GroupCustomer: {}},
	}
}

// Add stores value under name in g. Re-adding a name in the same group replaces its value
// and keeps its position.
func (fs *FieldSet) Add(g Group, name, value string) {
	if _, exists := fs.values[g][name]; !exists {
		fs.names[g] = append(fs.names[g], name)
	}
	fs.values[g][name] = value
}

func (fs *FieldSet) Get(g Group, name string) (string, bool) {
	v, ok := fs.values[g][name]
	return v, ok
}

// GroupOf returns the first group holding name.
func (fs *FieldSet) GroupOf(name string) (Group, bool) {
	for _, g := range Groups {
		if _, ok := fs.values[g][name]; ok {
			return g, true
		}
	}
	return "", false
}

func (fs *FieldSet) Fields(g Group) []Field {
	if fs == nil {
		return nil
	}
	out := make([]Field, 0, len(fs.names[g]))
	for _, name := range fs.names[g] {
		out = append(out, Field{Name: name, Value: fs.values[g][name]})
	}
	return out
}

func (fs *FieldSet) Len(g Group) int {
	if fs == nil {
		return 0
	}
	return len(fs.names[g])
}

type routeOptions struct {
	loc *time.Location
}

// RouteOption adjusts how Route validates values.
type RouteOption func(*routeOptions)

// RouteIn renders DATE and DATETIME values in loc.
func RouteIn(loc *time.Location) RouteOption {
	return func(o *routeOptions) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Route splits record into lead and customer fields. A key naming a group alias takes its
// mapping value as fields of that group, even when the other group already holds a field
// of the same name. Any other key goes to the first group whose schema declares it and is
// dropped as a conflict if an earlier entry already put that name in another group. Each
// value is validated against its field spec; fields that are unknown or invalid are
// dropped too. The returned resolutions hold one entry per input field, in input order.
func Route(record Record, schema *Schema, aliases GroupAliases, opts ...RouteOption) (*FieldSet, []Resolution, error) {
	if !schema.Ready() {
		return nil, nil, errors.NewSchemaUnavailableError("", fmt.Errorf("schema has no fields"))
	}

	o := routeOptions{loc: DefaultLocation}
	for _, opt := range opts {
		opt(&o)
	}

	fs := NewFieldSet()
	resolutions := make([]Resolution, 0, len(record))

	for _, e := range record {
		if g, ok := aliases.GroupFor(e.Key); ok {
			inner, ok := asRecord(e.Value)
			if !ok {
				resolutions = append(resolutions, Resolution{
					Key: e.Key, Field: e.Key, Group: g, Tagged: true, Reason: ReasonNotAMapping,
				})
				continue
			}
			for _, f := range inner {
				resolutions = append(resolutions, routeField(fs, schema, g, e.Key, f.Key, f.Value, true, o.loc))
			}
			continue
		}

		g, ok := schema.Resolve(e.Key)
		if !ok {
			resolutions = append(resolutions, Resolution{Key: e.Key, Field: e.Key, Reason: ReasonUnknownField})
			continue
		}
		resolutions = append(resolutions, routeField(fs, schema, g, e.Key, e.Key, e.Value, false, o.loc))
	}

	return fs, resolutions, nil
}

func routeField(fs *FieldSet, schema *Schema, g Group, key, field string, value interface{}, tagged bool, loc *time.Location) Resolution {
	r := Resolution{Key: key, Field: field, Group: g, Tagged: tagged}

	spec, ok := schema.Lookup(g, field)
	if !ok {
		r.Reason = ReasonUnknownField
		return r
	}

	normalized, ok := ValidateIn(value, spec, loc)
	if !ok {
		r.Reason = ReasonInvalidValue
		return r
	}

	if !tagged {
		if owner, held := fs.GroupOf(field); held && owner != g {
			r.Reason = ReasonConflict
			return r
		}
	}

	fs.Add(g, field, normalized)
	r.Routed = true
	r.Value = normalized
	return r
}

// Dropped returns the resolutions of fields left out of the request.
func Dropped(resolutions []Resolution) []Resolution {
	var out []Resolution
	for _, r := range resolutions {
		if !r.Routed {
			out = append(out, r)
		}
	}
	return out
}
