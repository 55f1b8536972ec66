package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

var fenceRe = regexp.MustCompile("(?i)```json\\s*|\\s*```")

// cleanResponse strips markdown code fences and surrounding whitespace.
func cleanResponse(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

const responseSchemaJSON = `{
  "type": "object",
  "required": ["taskName", "assignee", "dueDate"],
  "properties": {
    "taskName": {"type": "string", "pattern": "\\S"},
    "assignee": {"type": "string", "pattern": "\\S"},
    "dueDate":  {"type": "string", "pattern": "\\S"},
    "priority": {"type": ["string", "boolean", "number", "null"]}
  }
}`

var responseSchema = mustSchema(responseSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("extractor: invalid response schema: " + err.Error())
	}
	return s
}

// parseResponse turns raw model output into task fields. The decoded document stays
// untyped until it has passed the schema check.
func parseResponse(text string) (domain.TaskFields, error) {
	cleaned := cleanResponse(text)
	if cleaned == "" {
		return domain.TaskFields{}, errors.New("empty response")
	}

	var raw any
	if err := sonic.UnmarshalString(cleaned, &raw); err != nil {
		return domain.TaskFields{}, fmt.Errorf("response is not JSON: %w", err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return domain.TaskFields{}, fmt.Errorf("response is %T, not a JSON object", raw)
	}

	res, err := responseSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return domain.TaskFields{}, fmt.Errorf("validate response: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.TaskFields{}, fmt.Errorf("invalid response format: %s", strings.Join(msgs, "; "))
	}

	due, err := domain.ParseDueDate(doc["dueDate"].(string))
	if err != nil {
		return domain.TaskFields{}, err
	}
	priority, err := coercePriority(doc["priority"])
	if err != nil {
		return domain.TaskFields{}, err
	}

	return domain.TaskFields{
		TaskName: strings.TrimSpace(doc["taskName"].(string)),
		Assignee: strings.ToUpper(strings.TrimSpace(doc["assignee"].(string))),
		DueDate:  due,
		Priority: priority,
	}, nil
}

// coercePriority defaults falsy values to P3. Unknown strings pass through so the
// store's enum check rejects them.
func coercePriority(v any) (domain.Priority, error) {
	switch p := v.(type) {
	case nil:
		return domain.DefaultPriority, nil
	case bool:
		if !p {
			return domain.DefaultPriority, nil
		}
	case float64:
		if p == 0 {
			return domain.DefaultPriority, nil
		}
	case string:
		s := strings.ToUpper(strings.TrimSpace(p))
		if s == "" {
			return domain.DefaultPriority, nil
		}
		return domain.Priority(s), nil
	}
	return "", fmt.Errorf("priority %v is not a string", v)
}
