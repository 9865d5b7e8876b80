// Package outputparser converts raw model text into structured values.
// Model output is rarely clean JSON: it arrives wrapped in markdown code
// fences, with single quotes, unquoted keys, trailing commas, or cut off
// mid-object. The JSON parser strips the wrapping and repairs what
// remains before giving up.
package outputparser

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

const formatTemplate = "Respond with a single JSON value matching this schema, with no surrounding text or code fences:\n%s"

// JSON parses model output into T and knows how to tell the model what
// shape to produce. Create one with NewJSON.
type JSON[T any] struct {
	instructions string
}

// NewJSON creates a parser for T. The JSON schema of T is reflected once
// and embedded in the format instructions.
//
//	type Verdict struct {
//		Sentiment string `json:"sentiment"`
//		Score     int    `json:"score"`
//	}
//
//	parser, err := outputparser.NewJSON[Verdict]()
func NewJSON[T any]() (JSON[T], error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		var zero JSON[T]
		return zero, fmt.Errorf("outputparser: reflect schema for %T: %w", v, err)
	}

	return JSON[T]{instructions: fmt.Sprintf(formatTemplate, data)}, nil
}

// Parse converts model output into T.
func (p JSON[T]) Parse(content string) (T, error) {
	return ParseJSON[T](content)
}

// FormatInstructions returns prompt text describing the expected output,
// meant to be appended to the system or human message.
func (p JSON[T]) FormatInstructions() string {
	return p.instructions
}

// ParseJSON parses content into T. Markdown code fences are stripped
// first; when direct unmarshaling fails the content is run through
// jsonrepair and parsed again.
func ParseJSON[T any](content string) (T, error) {
	var result T
	text := StripFences(content)

	if err := json.Unmarshal([]byte(text), &result); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return result, fmt.Errorf("outputparser: parse as %T: %w (repair failed: %v)", result, err, repairErr)
		}
		if err := json.Unmarshal([]byte(repaired), &result); err != nil {
			return result, fmt.Errorf("outputparser: parse repaired output as %T: %w", result, err)
		}
	}
	return result, nil
}

// StripFences removes a markdown code fence wrapper from model output.
// Text without fences is returned trimmed and otherwise unchanged.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
