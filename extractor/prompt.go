package extractor

import "strings"

const promptTemplate = `Parse the following task description and extract the task details in JSON format:
"{{text}}"

Extract:
1. Task name (the main action/activity)
2. Assignee (the person responsible)
3. Due date and time (in ISO 8601 format)
4. Priority (P1, P2, P3, or P4 - default to P3 if not specified)

Return ONLY the JSON object without any markdown formatting or code blocks:
{
  "taskName": "string",
  "assignee": "string",
  "dueDate": "string (ISO 8601)",
  "priority": "P1|P2|P3|P4"
}`

func buildPrompt(text string) string {
	return strings.Replace(promptTemplate, "{{text}}", text, 1)
}
