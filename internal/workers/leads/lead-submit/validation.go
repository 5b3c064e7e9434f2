package leadsubmit

import "lead-workers/internal/common/validation"

// InputSchema describes the job variables read by the worker. Other process variables
// are ignored.
const InputSchema = `{
	"type": "object",
	"required": ["record"],
	"properties": {
		"providerCode": {"type": "string"},
		"record": {"type": "object"},
		"groupAliases": {
			"type": "object",
			"additionalProperties": {"type": ["string", "array", "null"], "items": {"type": "string"}}
		}
	}
}`

var (
	inputSchema  = validation.MustCompile(InputSchema)
	recordSchema = validation.MustCompile(validation.LeadRecordSchema)
)
