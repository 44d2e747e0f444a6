package sanitize

import (
	"encoding/json"
	"strings"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// truthyTokens are the accepted tokens for boolean coercion, matched
// case-insensitively. Anything else maps to false with a
// low-confidence note, never an error.
var truthyTokens = map[string]bool{
	"true":   true,
	"1":      true,
	"yes":    true,
	"urgent": true,
}

var falsyTokens = map[string]bool{
	"false":      true,
	"0":          true,
	"no":         true,
	"not urgent": true,
	"non-urgent": true,
}

// PlainText returns the trimmed text verbatim. Empty output is a parse
// error: a successful call that said nothing is not a usable summary.
func PlainText(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", goerr.New("empty text output", goerr.T(types.ErrTagParse))
	}
	return trimmed, nil
}

// Boolean coerces a model response into a boolean. The returned note is
// non-empty when the token was not recognized and the value defaulted
// to false. Re-sanitizing a canonical "true"/"false" yields the same
// value (idempotent coercion).
func Boolean(raw string) (bool, string) {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.Trim(token, ".!\"'`")

	if truthyTokens[token] {
		return true, ""
	}
	if falsyTokens[token] {
		return false, ""
	}

	return false, "unrecognized classification token, defaulted to false (low confidence): " + raw
}

// JSONObject strips common wrapping artifacts from raw model output,
// parses it as a JSON object, and restricts the result to the schema's
// allow-list with per-field kind coercion. On parse failure the raw
// text is preserved on the error for audit.
func JSONObject(raw string, schema *model.ExtractionSchema) (map[string]model.FieldValue, error) {
	candidate := StripFences(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		// Second chance: isolate the outermost braces from stray prose
		if inner, ok := extractObject(candidate); ok {
			if err2 := json.Unmarshal([]byte(inner), &parsed); err2 == nil {
				return schema.Coerce(parsed), nil
			}
		}
		return nil, goerr.Wrap(err, "model output is not a JSON object",
			goerr.T(types.ErrTagParse),
			goerr.V("raw", raw))
	}

	return schema.Coerce(parsed), nil
}

// StripFences removes a wrapping Markdown code fence, with or without a
// language tag, and trims surrounding whitespace.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the opening fence line
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || isLanguageTag(first) {
			s = s[idx+1:]
		}
	}

	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// extractObject returns the substring from the first '{' to the last
// '}', if both exist in order.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
