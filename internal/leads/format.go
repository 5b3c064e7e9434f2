package leads

import (
	"strings"

	"lead-workers/internal/common/errors"
)

// OutputFormat selects how an operation returns the service response.
type OutputFormat string

const (
	FormatXML        OutputFormat = "xml"
	FormatMapping    OutputFormat = "array"
	FormatBoolean    OutputFormat = "boolean"
	FormatIdentifier OutputFormat = "integer"
)

var formatNames = map[string]OutputFormat{
	"xml":        FormatXML,
	"raw":        FormatXML,
	"array":      FormatMapping,
	"mapping":    FormatMapping,
	"bool":       FormatBoolean,
	"boolean":    FormatBoolean,
	"int":        FormatIdentifier,
	"integer":    FormatIdentifier,
	"identifier": FormatIdentifier,
}

// ParseOutputFormat resolves a format name. Names are case-insensitive; an empty name
// selects xml.
func ParseOutputFormat(name string) (OutputFormat, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return FormatXML, nil
	}
	if f, ok := formatNames[key]; ok {
		return f, nil
	}
	return "", errors.NewUnsupportedOutputFormatError(name, "parse")
}

const (
	opGetLeadHeaders = "getLeadHeaders"
	opGetLeadStatus  = "getLead"
	opSetLead        = "setLead"
)

var supportedFormats = map[string][]OutputFormat{
	opGetLeadHeaders: {FormatXML, FormatMapping},
	opGetLeadStatus:  {FormatXML, FormatMapping},
	opSetLead:        {FormatXML, FormatMapping, FormatBoolean, FormatIdentifier},
}

func checkFormat(format OutputFormat, operation string) error {
	for _, f := range supportedFormats[operation] {
		if f == format {
			return nil
		}
	}
	return errors.NewUnsupportedOutputFormatError(string(format), operation)
}
