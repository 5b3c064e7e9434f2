package leadstatus

import "lead-workers/internal/common/validation"

const InputSchema = `{
	"type": "object",
	"required": ["referenceId"],
	"properties": {
		"providerCode": {"type": "string"},
		"referenceId": {"type": ["string", "integer"], "pattern": "^[0-9]+$", "minimum": 1}
	}
}`

var inputSchema = validation.MustCompile(InputSchema)
