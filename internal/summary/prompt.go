package summary

import "fmt"

const promptTemplate = `You are a note-taking assistant. Read the notes below and reply with ONLY a JSON object in exactly this form:
{"title": "<short descriptive title, at most %d characters>", "summary": "<concise summary of the key points and main ideas>"}

Rules:
- Do not start with phrases such as "Here is", "This is" or "The following is".
- Do not wrap the JSON in markdown or add any text before or after it.
- The title must not exceed %d characters.

Notes:
%s`

// BuildPrompt returns the generation prompt for content.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, MaxTitleLen, MaxTitleLen, content)
}
