package leads

import (
	"strconv"
	"strings"
)

// SuccessStatus is the request_status the lead service reports for a processed request.
const SuccessStatus = "request processed"

// Verdict is the interpretation of a submission response.
type Verdict struct {
	Status        string
	Created       bool
	Identifier    string
	HasIdentifier bool
	ReferenceID   int64
}

// Accepted reports whether the lead was processed, created and given a positive id.
func (v Verdict) Accepted() bool {
	return v.Status == SuccessStatus && v.Created && v.ReferenceID > 0
}

// Interpret reads the status fields of a submission response.
func Interpret(doc interface{}) (Verdict, error) {
	body, err := documentBody(doc)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		Status:  body.Text("request_status"),
		Created: numericOne(body.Text("created")),
	}

	if node, ok := body.Get("returnID"); ok {
		switch n := node.(type) {
		case Leaf:
			v.Identifier, v.HasIdentifier = string(n), true
		case *Branch:
			if n.Len() == 0 {
				v.HasIdentifier = true
			}
		}
		v.ReferenceID = leadingInt(v.Identifier)
	}
	return v, nil
}

// AsBoolean reports whether doc describes an accepted lead. Unreadable documents are not
// accepted.
func AsBoolean(doc interface{}) bool {
	v, err := Interpret(doc)
	if err != nil {
		return false
	}
	return v.Accepted()
}

// AsIdentifier returns the returnID text of doc when the request was processed and the
// lead created. The id is returned as sent, whatever its numeric value; a response without
// a returnID gives "".
func AsIdentifier(doc interface{}) (string, bool) {
	v, err := Interpret(doc)
	if err != nil || v.Status != SuccessStatus || !v.Created {
		return "", false
	}
	return v.Identifier, true
}

func numericOne(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f == 1
}

// leadingInt parses the optional sign and digits at the start of s, ignoring the rest.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
