package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSessionConfig marks a session-creation body that failed
// schema validation.
var ErrInvalidSessionConfig = errors.New("httpapi: invalid session config")

// sessionConfigSchema constrains session creation bodies: an optional id
// plus an optional subset of the known slots as the required set.
var sessionConfigSchema = jsonschema.MustCompileString("session_config.json", `{
	"type": "object",
	"properties": {
		"session_id": {"type": "string", "maxLength": 128},
		"required_slots": {
			"type": "array",
			"items": {
				"type": "string",
				"enum": ["caller_name", "phone_number", "day_preference", "time_preference", "service_type"]
			},
			"minItems": 1,
			"uniqueItems": true
		}
	},
	"additionalProperties": false
}`)

// ValidateSessionConfig checks a raw session-creation body against the
// schema before it is bound.
func ValidateSessionConfig(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: malformed json", ErrInvalidSessionConfig)
	}
	if err := sessionConfigSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSessionConfig, err)
	}
	return nil
}
