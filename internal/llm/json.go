package llm

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// CleanJSONResponse removes markdown code fences and trims a model response
// down to its outermost JSON object.
func CleanJSONResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start >= 0 && end > start {
		response = response[start : end+1]
	}

	return strings.TrimSpace(response)
}

// ParseJSONResponse parses a potentially messy model JSON response into
// target after cleaning.
func ParseJSONResponse(response string, target interface{}) error {
	cleaned := CleanJSONResponse(response)
	return json.Unmarshal([]byte(cleaned), target)
}

// ProbeJSON reports whether the cleaned response is a JSON object containing
// every given field. Useful for deciding between a schema decode and a
// strict-format re-ask without committing to the full struct.
func ProbeJSON(response string, fields ...string) bool {
	cleaned := CleanJSONResponse(response)
	if !gjson.Valid(cleaned) {
		return false
	}
	for _, field := range fields {
		if !gjson.Get(cleaned, field).Exists() {
			return false
		}
	}
	return true
}

// StringField extracts a single string field from a messy JSON response,
// returning "" when absent.
func StringField(response, field string) string {
	cleaned := CleanJSONResponse(response)
	return gjson.Get(cleaned, field).String()
}
