// Package prompts renders message templates from named values. Templates
// use single braces for variables ("{question}") and doubled braces for
// literals ("{{" renders "{").
package prompts

import (
	"fmt"
	"strings"

	"github.com/Jflick58/langchain/pkg/schema"
)

// interpolate substitutes {name} references in template with values.
// Referencing a missing variable is an error; formatting never silently
// drops a hole in the prompt.
func interpolate(template string, values map[string]any) (string, error) {
	var out strings.Builder
	out.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				out.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("prompts: unclosed variable reference at offset %d", i)
			}
			name := template[i+1 : i+end]
			if name == "" {
				return "", fmt.Errorf("prompts: empty variable reference at offset %d", i)
			}
			value, ok := values[name]
			if !ok {
				return "", fmt.Errorf("prompts: missing value for variable %q", name)
			}
			out.WriteString(stringify(value))
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				out.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("prompts: unmatched '}' at offset %d", i)
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// extractVariables returns the variable names referenced by template, in
// order of first appearance.
func extractVariables(template string) []string {
	var names []string
	seen := map[string]bool{}

	for i := 0; i < len(template); {
		if template[i] != '{' {
			i++
			continue
		}
		if i+1 < len(template) && template[i+1] == '{' {
			i += 2
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			break
		}
		name := template[i+1 : i+end]
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i += end + 1
	}
	return names
}

// PromptTemplate renders a single string from named values.
type PromptTemplate struct {
	Template       string
	InputVariables []string
}

// NewPromptTemplate creates a template and records its input variables.
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{
		Template:       template,
		InputVariables: extractVariables(template),
	}
}

// Format renders the template with values.
func (p PromptTemplate) Format(values map[string]any) (string, error) {
	return interpolate(p.Template, values)
}

// FormatMessages renders the template as a single human message, so a
// string template can stand wherever chat messages are expected.
func (p PromptTemplate) FormatMessages(values map[string]any) ([]schema.Message, error) {
	content, err := p.Format(values)
	if err != nil {
		return nil, err
	}
	return []schema.Message{schema.NewHumanMessage(content)}, nil
}
