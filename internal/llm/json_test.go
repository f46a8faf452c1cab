package llm

import (
	"testing"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"clean object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fences", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `Here you go: {"a": 1} hope that helps!`, `{"a": 1}`},
		{"no object", "sure thing", "sure thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSONResponse(tt.response); got != tt.want {
				t.Errorf("CleanJSONResponse(%q) = %q, want %q", tt.response, got, tt.want)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	var target struct {
		Dimension string `json:"dimension"`
		Detail    string `json:"detail"`
	}

	err := ParseJSONResponse("```json\n{\"dimension\": \"length\", \"detail\": \"shorter\"}\n```", &target)
	if err != nil {
		t.Fatalf("ParseJSONResponse() error = %v", err)
	}
	if target.Dimension != "length" || target.Detail != "shorter" {
		t.Errorf("target = %+v", target)
	}

	if err := ParseJSONResponse("not json at all", &target); err == nil {
		t.Error("ParseJSONResponse() error = nil for non-JSON input")
	}
}

func TestProbeJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		fields   []string
		want     bool
	}{
		{"all fields present", `{"overall_score": 8, "creativity": 6}`, []string{"overall_score", "creativity"}, true},
		{"missing field", `{"overall_score": 8}`, []string{"overall_score", "creativity"}, false},
		{"prose", "it's an 8 out of 10", []string{"overall_score"}, false},
		{"fenced object", "```json\n{\"kind\": \"chat\"}\n```", []string{"kind"}, true},
		{"no fields asked", `{"a": 1}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProbeJSON(tt.response, tt.fields...); got != tt.want {
				t.Errorf("ProbeJSON(%q, %v) = %v, want %v", tt.response, tt.fields, got, tt.want)
			}
		})
	}
}

func TestStringField(t *testing.T) {
	if got := StringField(`{"dimension": "tone"}`, "dimension"); got != "tone" {
		t.Errorf("StringField = %q, want tone", got)
	}
	if got := StringField(`{"dimension": "tone"}`, "missing"); got != "" {
		t.Errorf("StringField = %q, want empty for absent field", got)
	}
}
