// Package leads validates, routes and serializes lead/customer records against the field
// schema published by the remote lead service, and interprets the service's responses.
package leads

import "strings"

// Group is one of the two record partitions the lead service expects.
type Group string

const (
	GroupLead     Group = "lead"
	GroupCustomer Group = "customer"
)

// Groups lists the groups in routing priority order.
var Groups = []Group{GroupLead, GroupCustomer}

// Table names used for each group in schema and request documents.
const (
	TableLead     = "automotive_leads"
	TableCustomer = "automotive_leads_info_customer"

	requestRoot = "lead"
)

// Table returns the wire element name for g.
func (g Group) Table() string {
	switch g {
	case GroupLead:
		return TableLead
	case GroupCustomer:
		return TableCustomer
	}
	return ""
}

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeInt      FieldType = "INT"
	TypeText     FieldType = "TEXT"
	TypeVarchar  FieldType = "VARCHAR"
	TypeDate     FieldType = "DATE"
	TypeDateTime FieldType = "DATETIME"
	TypeEnum     FieldType = "ENUM"
)

// ParseFieldType normalizes a type name from the schema document.
func ParseFieldType(s string) FieldType {
	return FieldType(strings.ToUpper(strings.TrimSpace(s)))
}

// FieldSpec describes one accepted field. Length bounds text-like values in characters;
// zero means unbounded.
type FieldSpec struct {
	Group         Group
	Name          string
	Type          FieldType
	Length        int
	AllowedValues []string
}
