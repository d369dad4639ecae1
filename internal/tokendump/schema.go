package tokendump

import "github.com/santhosh-tekuri/jsonschema/v5"

// JSON token dumps are validated before use: external tools produce them and
// a silently malformed dump would otherwise surface as an empty scan.
const tokenDumpSchema = `{
	"type": "object",
	"properties": {
		"tokens": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"text":       {"type": "string", "minLength": 1},
					"line_num":   {"type": "integer", "minimum": 0},
					"confidence": {"type": "integer", "minimum": -1, "maximum": 100}
				},
				"required": ["text", "line_num"]
			}
		}
	},
	"required": ["tokens"]
}`

var dumpSchema = jsonschema.MustCompileString("tokendump.schema.json", tokenDumpSchema)
