package leads

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// GroupAliases lists, per group, the top-level record keys whose value is a mapping of
// fields that all belong to that group.
type GroupAliases map[Group][]string

func DefaultGroupAliases() GroupAliases {
	return GroupAliases{
		GroupLead:     {TableLead, string(GroupLead)},
		GroupCustomer: {TableCustomer, string(GroupCustomer)},
	}
}

func (a GroupAliases) Clone() GroupAliases {
	out := make(GroupAliases, len(a))
	for g, keys := range a {
		out[g] = append([]string(nil), keys...)
	}
	return out
}

// GroupFor returns the group key is an alias of. Lead aliases are checked first.
func (a GroupAliases) GroupFor(key string) (Group, bool) {
	for _, g := range Groups {
		for _, alias := range a[g] {
			if alias == key {
				return g, true
			}
		}
	}
	return "", false
}

// MergeGroupAliases applies overrides on top of base. A list replaces base entries
// position by position and appends the rest; a scalar replaces the whole list with a
// single alias. Keys other than "lead" and "customer" are ignored.
func MergeGroupAliases(base GroupAliases, overrides map[string]interface{}) (GroupAliases, error) {
	out := base.Clone()

	for key, raw := range overrides {
		g := Group(strings.ToLower(strings.TrimSpace(key)))
		if g.Table() == "" || raw == nil {
			continue
		}

		var list []interface{}
		switch v := raw.(type) {
		case []interface{}:
			list = v
		case []string:
			for _, s := range v {
				list = append(list, s)
			}
		default:
			alias, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf("alias for %s: %w", g, err)
			}
			out[g] = []string{alias}
			continue
		}

		merged := out[g]
		for i, item := range list {
			alias, err := cast.ToStringE(item)
			if err != nil {
				return nil, fmt.Errorf("alias %d for %s: %w", i, g, err)
			}
			if i < len(merged) {
				merged[i] = alias
			} else {
				merged = append(merged, alias)
			}
		}
		out[g] = merged
	}

	return out, nil
}
