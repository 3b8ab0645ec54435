package ai

import "strings"

// ExtractJSONObject returns the first top-level JSON object embedded in raw
// model output, from the first '{' to the last '}'. Models wrap JSON in prose
// or markdown fences often enough that decoding the raw reply directly is not
// reliable. Returns "" when no object is present.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}
