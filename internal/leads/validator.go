package leads

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"

	// ENUM fields with this name prefix accept booleans as Y/N flags.
	flagFieldPrefix = "tpson"
)

// dayFirst matches dates written day-month-year with "-" or "." separators, the way
// Dutch users enter them.
var dayFirst = regexp.MustCompile(`^\d{1,2}([-.])\d{1,2}([-.])\d{4}(\s|$)`)

// DefaultLocation is the zone timestamps are rendered in unless a caller picks another.
var DefaultLocation = time.UTC

// Validate normalizes value according to spec, rendering timestamps in DefaultLocation.
// The second result is false when the value is not acceptable for the field; such fields
// are left out of the request.
func Validate(value interface{}, spec FieldSpec) (string, bool) {
	return ValidateIn(value, spec, DefaultLocation)
}

// ValidateIn is Validate with timestamps rendered in loc. Timestamps without an offset are
// read as wall-clock time in loc; those with one are converted to loc.
func ValidateIn(value interface{}, spec FieldSpec, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = DefaultLocation
	}
	switch spec.Type {
	case TypeInt, TypeText, TypeVarchar:
		return validateText(value, spec.Length)
	case TypeDate:
		return validateTimestamp(value, dateLayout, loc)
	case TypeDateTime:
		return validateTimestamp(value, dateTimeLayout, loc)
	case TypeEnum:
		return validateEnum(value, spec)
	default:
		return "", false
	}
}

func validateText(value interface{}, length int) (string, bool) {
	s, ok := stringForm(value)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)

	if length > 0 {
		if r := []rune(s); len(r) > length {
			return string(r[:length]), true
		}
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func validateTimestamp(value interface{}, layout string, loc *time.Location) (string, bool) {
	var s string
	switch v := value.(type) {
	case time.Time:
		return v.In(loc).Format(layout), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return v.In(loc).Format(layout), true
	default:
		str, ok := stringForm(value)
		if !ok {
			return "", false
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		return "", false
	}

	t, err := parseTimestamp(s, loc)
	if err != nil {
		return "", false
	}
	return t.In(loc).Format(layout), true
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if m := dayFirst.FindStringSubmatch(s); m != nil {
		if m[1] != m[2] {
			return time.Time{}, fmt.Errorf("mixed date separators in %q", s)
		}
		return parseDayFirst(s, m[1], loc)
	}
	return dateparse.ParseIn(s, loc)
}

func parseDayFirst(s, sep string, loc *time.Location) (time.Time, error) {
	date := "2" + sep + "1" + sep + "2006"
	var err error
	for _, layout := range []string{date, date + " 15:04", date + " 15:04:05"} {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func validateEnum(value interface{}, spec FieldSpec) (string, bool) {
	if b, ok := value.(bool); ok && strings.HasPrefix(spec.Name, flagFieldPrefix) {
		if b {
			return "Y", true
		}
		return "N", true
	}

	s, ok := stringForm(value)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)

	for _, allowed := range spec.AllowedValues {
		if strings.EqualFold(allowed, s) {
			return s, true
		}
	}
	return "", false
}

// stringForm renders a scalar the way the lead service expects it. Booleans become "1"
// and "" so that false never passes as a non-empty text value.
func stringForm(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		if v {
			return "1", true
		}
		return "", true
	case time.Time:
		return v.Format(dateTimeLayout), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return v.Format(dateTimeLayout), true
	case json.Number:
		return v.String(), true
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return "", false
	}
	return s, true
}
