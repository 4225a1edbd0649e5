package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"borrowhub-notify/internal/common/errors"
)

// listEnvelopeSchema pins the shape of the GET /notifications envelope.
// unreadCount must be a non-negative integer and every record must carry the
// fields the store relies on for its counter bookkeeping.
const listEnvelopeSchema = `{
	"type": "object",
	"required": ["data", "unreadCount"],
	"properties": {
		"data": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "title", "message", "type", "isRead", "createdAt"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"title": {"type": "string"},
					"message": {"type": "string"},
					"type": {"type": "string", "enum": ["Info", "Success", "Warning", "Error"]},
					"isRead": {"type": "boolean"},
					"createdAt": {"type": "string"}
				}
			}
		},
		"unreadCount": {"type": "integer", "minimum": 0}
	}
}`

var listSchema = gojsonschema.NewStringLoader(listEnvelopeSchema)

func validateListEnvelope(body []byte) error {
	result, err := gojsonschema.Validate(listSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.NewResponseDecodeError(err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.NewResponseInvalidError(strings.Join(details, "; "))
}
