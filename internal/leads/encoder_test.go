package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	fs := NewFieldSet()
	fs.Add(GroupLead, "email", "a@b.com")
	fs.Add(GroupLead, "remark", `Tom & Jerry <via web>`)

	got, err := Encode(fs)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<lead><automotive_leads><email>a@b.com</email><remark>Tom &amp; Jerry &lt;via web&gt;</remark></automotive_leads>` +
		`<automotive_leads_info_customer></automotive_leads_info_customer></lead>`
	assert.Equal(t, want, got)
}

func TestEncode_EmptySet(t *testing.T) {
	for _, fs := range []*FieldSet{nil, NewFieldSet()} {
		got, err := Encode(fs)
		require.NoError(t, err)

		m, err := Decode(got)
		require.NoError(t, err)
		assert.Equal(t, Mapping{TableLead: Mapping{}, TableCustomer: Mapping{}}, m)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	record := Record{
		{Key: "email", Value: "  jan@example.com "},
		{Key: "date_created", Value: "2024-03-05T14:30:00Z"},
		{Key: "tpson_flag", Value: true},
		{Key: "interest", Value: "used"},
		{Key: "customer", Value: Record{
			{Key: "lastname", Value: "van den Berg & Zn"},
			{Key: "phone", Value: "0031612345678901"},
			{Key: "birth_date", Value: "1980-07-14"},
		}},
	}

	fs, _, err := Route(record, mustSchema(t), DefaultGroupAliases())
	require.NoError(t, err)

	encoded, err := Encode(fs)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	for _, g := range Groups {
		section := decoded.Sub(g.Table())
		require.NotNil(t, section, g)
		require.Len(t, section, fs.Len(g))
		for _, f := range fs.Fields(g) {
			assert.Equal(t, f.Value, section.String(f.Name), "%s.%s", g, f.Name)
		}
	}

	assert.Equal(t, "2024-03-05 14:30:00", decoded.Sub(TableLead).String("date_created"))
	assert.Equal(t, "Y", decoded.Sub(TableLead).String("tpson_flag"))
	assert.Equal(t, "0031612345", decoded.Sub(TableCustomer).String("phone"))
}
