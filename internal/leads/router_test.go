package leads

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-workers/internal/common/errors"
)

func fieldMap(fs *FieldSet, g Group) map[string]string {
	out := map[string]string{}
	for _, f := range fs.Fields(g) {
		out[f.Name] = f.Value
	}
	return out
}

// ==========================
// Route Tests
// ==========================

func TestRoute_FlatRecord(t *testing.T) {
	record := Record{
		{Key: "email", Value: " a@b.com "},
		{Key: "phone", Value: "0031612345678901"},
	}

	fs, res, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"email": "a@b.com"}, fieldMap(fs, GroupLead))
	assert.Equal(t, map[string]string{"phone": "0031612345"}, fieldMap(fs, GroupCustomer))
	require.Len(t, res, 2)
	assert.True(t, res[0].Routed)
	assert.Equal(t, GroupLead, res[0].Group)
	assert.False(t, res[0].Tagged)
	assert.Equal(t, GroupCustomer, res[1].Group)
}

func TestRoute_AliasWinsOverFallback(t *testing.T) {
	schema := mustSchema(t)

	tests := []struct {
		name  string
		key   string
		group Group
	}{
		{"customer table name", TableCustomer, GroupCustomer},
		{"customer short alias", "customer", GroupCustomer},
		{"lead table name", TableLead, GroupLead},
		{"lead short alias", "lead", GroupLead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Record{{Key: tt.key, Value: map[string]interface{}{"shared_note": "hello"}}}

			fs, res, err := Route(record, schema, DefaultGroupAliases())
			require.NoError(t, err)

			require.Len(t, res, 1)
			assert.True(t, res[0].Routed)
			assert.True(t, res[0].Tagged)
			assert.Equal(t, tt.group, res[0].Group)

			got, ok := fs.Get(tt.group, "shared_note")
			require.True(t, ok)
			assert.Equal(t, "hello", got)
		})
	}
}

func TestRoute_UntaggedCollisionPrefersLead(t *testing.T) {
	fs, _, err := Route(Record{{Key: "shared_note", Value: "x"}}, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)

	assert.Equal(t, 1, fs.Len(GroupLead))
	assert.Equal(t, 0, fs.Len(GroupCustomer))
}

func TestRoute_DropReasons(t *testing.T) {
	record := Record{
		{Key: "shared_note", Value: "lead copy"},
		{Key: "customer", Value: Record{
			{Key: "shared_note", Value: "customer copy"},
			{Key: "email", Value: "wrong@group.example"},
			{Key: "lastname", Value: "Jansen"},
		}},
		{Key: "lead", Value: "not a mapping"},
		{Key: "vin", Value: "WVWZZZ1JZXW000001"},
		{Key: "interest", Value: "Lease"},
		{Key: "birth_date", Value: "someday"},
	}

	fs, res, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"shared_note": "lead copy"}, fieldMap(fs, GroupLead))
	assert.Equal(t, map[string]string{"shared_note": "customer copy", "lastname": "Jansen"}, fieldMap(fs, GroupCustomer))

	type drop struct {
		field  string
		group  Group
		reason DropReason
	}
	var dropped []drop
	for _, r := range Dropped(res) {
		dropped = append(dropped, drop{r.Field, r.Group, r.Reason})
	}
	assert.Equal(t, []drop{
		{"email", GroupCustomer, ReasonUnknownField},
		{"lead", GroupLead, ReasonNotAMapping},
		{"vin", "", ReasonUnknownField},
		{"interest", GroupLead, ReasonInvalidValue},
		{"birth_date", GroupCustomer, ReasonInvalidValue},
	}, dropped)
	assert.Len(t, res, 8)
}

func TestRoute_GroupedCopiesInBothBranches(t *testing.T) {
	record := Record{
		{Key: "lead", Value: map[string]interface{}{"shared_note": "web"}},
		{Key: "customer", Value: map[string]interface{}{"shared_note": "dealer"}},
	}

	fs, res, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)

	assert.Empty(t, Dropped(res))
	assert.Equal(t, []Field{{Name: "shared_note", Value: "web"}}, fs.Fields(GroupLead))
	assert.Equal(t, []Field{{Name: "shared_note", Value: "dealer"}}, fs.Fields(GroupCustomer))

	doc, err := Encode(fs)
	require.NoError(t, err)
	decoded, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "web", decoded[TableLead].(Mapping)["shared_note"])
	assert.Equal(t, "dealer", decoded[TableCustomer].(Mapping)["shared_note"])
}

func TestRoute_UntaggedAfterGroupedCopyConflicts(t *testing.T) {
	record := Record{
		{Key: "customer", Value: map[string]interface{}{"shared_note": "dealer"}},
		{Key: "shared_note", Value: "web"},
	}

	fs, res, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)

	assert.Equal(t, 0, fs.Len(GroupLead))
	assert.Equal(t, []Field{{Name: "shared_note", Value: "dealer"}}, fs.Fields(GroupCustomer))
	require.Len(t, res, 2)
	assert.False(t, res[1].Routed)
	assert.Equal(t, GroupLead, res[1].Group)
	assert.Equal(t, ReasonConflict, res[1].Reason)
}

func TestRoute_RouteInRendersDatesInLocation(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	record := Record{{Key: "date_created", Value: "2024-03-05T23:30:00Z"}}

	fs, _, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)
	utc, _ := fs.Get(GroupLead, "date_created")

	fs, _, err = Route(record, mustSchema(t), DefaultGroupAliases(), RouteIn(amsterdam))
	require.NoError(t, err)
	local, _ := fs.Get(GroupLead, "date_created")

	assert.NotEqual(t, utc, local)
	assert.Contains(t, local, "2024-03-06")
}

func TestRoute_AllFieldsInvalidIsNotAnError(t *testing.T) {
	fs, res, err := Route(Record{{Key: "email", Value: "   "}}, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)
	assert.Equal(t, 0, fs.Len(GroupLead))
	assert.Equal(t, 0, fs.Len(GroupCustomer))
	assert.Len(t, Dropped(res), 1)
}

func TestRoute_EmptySchemaFails(t *testing.T) {
	_, _, err := Route(Record{{Key: "email", Value: "a@b.com"}}, nil, DefaultGroupAliases())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSchemaUnavailable))

	_, _, err = Route(Record{}, &Schema{}, DefaultGroupAliases())
	assert.True(t, errors.HasCode(err, errors.ErrCodeSchemaUnavailable))
}

func TestRoute_SameGroupDuplicateKeepsFirstPosition(t *testing.T) {
	record := Record{
		{Key: "email", Value: "first@example.com"},
		{Key: "interest", Value: "New"},
		{Key: "lead", Value: map[string]interface{}{"email": "second@example.com"}},
	}

	fs, _, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Name: "email", Value: "second@example.com"},
		{Name: "interest", Value: "New"},
	}, fs.Fields(GroupLead))
}

func TestRoute_CustomAliases(t *testing.T) {
	aliases, err := MergeGroupAliases(DefaultGroupAliases(), map[string]interface{}{
		"customer": "klant",
	})
	require.NoError(t, err)

	record := Record{
		{Key: "klant", Value: map[string]string{"lastname": "de Vries"}},
		{Key: "customer", Value: map[string]interface{}{"lastname": "ignored"}},
	}

	fs, res, err := Route(record, mustSchema(t), aliases)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lastname": "de Vries"}, fieldMap(fs, GroupCustomer))
	assert.Equal(t, ReasonUnknownField, res[1].Reason)
}

// ==========================
// GroupAliases Tests
// ==========================

func TestMergeGroupAliases(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
		want      GroupAliases
	}{
		{
			name:      "no overrides",
			overrides: nil,
			want:      DefaultGroupAliases(),
		},
		{
			name:      "scalar replaces list",
			overrides: map[string]interface{}{"lead": "lead_data"},
			want: GroupAliases{
				GroupLead:     {"lead_data"},
				GroupCustomer: {TableCustomer, "customer"},
			},
		},
		{
			name:      "list replaces by position",
			overrides: map[string]interface{}{"customer": []interface{}{"klant"}},
			want: GroupAliases{
				GroupLead:     {TableLead, "lead"},
				GroupCustomer: {"klant", "customer"},
			},
		},
		{
			name:      "list extends",
			overrides: map[string]interface{}{"Customer": []string{"a", "b", "c"}},
			want: GroupAliases{
				GroupLead:     {TableLead, "lead"},
				GroupCustomer: {"a", "b", "c"},
			},
		},
		{
			name:      "unknown group ignored",
			overrides: map[string]interface{}{"vehicle": "car"},
			want:      DefaultGroupAliases(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := DefaultGroupAliases()
			got, err := MergeGroupAliases(base, tt.overrides)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, DefaultGroupAliases(), base, "base must not change")
		})
	}
}

func TestMergeGroupAliases_RejectsNonScalar(t *testing.T) {
	_, err := MergeGroupAliases(DefaultGroupAliases(), map[string]interface{}{
		"lead": []interface{}{map[string]interface{}{"x": 1}},
	})
	assert.Error(t, err)
}

func TestGroupAliases_LeadCheckedFirst(t *testing.T) {
	aliases := GroupAliases{
		GroupLead:     {"data"},
		GroupCustomer: {"data"},
	}
	g, ok := aliases.GroupFor("data")
	require.True(t, ok)
	assert.Equal(t, GroupLead, g)
}

// ==========================
// Record Tests
// ==========================

func TestParseRecordJSON_KeepsOrder(t *testing.T) {
	rec, err := ParseRecordJSON([]byte(`{"zeta": 1, "alpha": "a", "customer": {"phone": "06", "lastname": "Bakker"}, "tags": [1, "x"], "flag": true, "none": null}`))
	require.NoError(t, err)

	var keys []string
	for _, e := range rec {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "customer", "tags", "flag", "none"}, keys)

	assert.Equal(t, json.Number("1"), rec[0].Value)
	assert.Equal(t, Record{{Key: "phone", Value: "06"}, {Key: "lastname", Value: "Bakker"}}, rec[2].Value)
	assert.Equal(t, []interface{}{json.Number("1"), "x"}, rec[3].Value)
	assert.Equal(t, true, rec[4].Value)
	assert.Nil(t, rec[5].Value)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"a","customer":{"phone":"06","lastname":"Bakker"},"tags":[1,"x"],"flag":true,"none":null}`, string(out))
}

func TestParseRecordJSON_Errors(t *testing.T) {
	for _, raw := range []string{``, `[1,2]`, `{"a":1} {"b":2}`, `{"a":}`} {
		_, err := ParseRecordJSON([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	var input struct {
		Record Record `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"record": {"b": "2", "a": "1"}}`), &input))
	assert.Equal(t, Record{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}, input.Record)
}

func TestRecordFromMap_SortsKeys(t *testing.T) {
	rec := RecordFromMap(map[string]interface{}{
		"phone": "06",
		"email": "a@b.com",
		"lead":  map[string]interface{}{"z": 1, "a": 2},
	})

	assert.Equal(t, Record{
		{Key: "email", Value: "a@b.com"},
		{Key: "lead", Value: Record{{Key: "a", Value: 2}, {Key: "z", Value: 1}}},
		{Key: "phone", Value: "06"},
	}, rec)
	assert.Equal(t, map[string]interface{}{"a": 2, "z": 1}, rec.Map()["lead"])
}
