package evaluation

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/cv-screener/internal/utils"
)

const (
	// sentinelKey marks a payload that could not be parsed as JSON.
	sentinelKey = "error"
	sentinelMsg = "unparseable model response"

	maxRawSnippet      = 200
	maxFeedbackSnippet = 500

	defaultMatchRate    = 0.5
	defaultProjectScore = 3.0
)

// Parse extracts a structured payload from raw generated text. The fallback
// chain is fixed: strict parse of the whole text, then the substring between
// the first '{' and the last '}', then a sentinel payload carrying a
// truncated copy of the raw text. Parse never fails; malformed model output
// is an expected condition, not an error.
func Parse(raw string) map[string]any {
	trimmed := strings.TrimSpace(raw)

	if data, ok := tryDecode(trimmed); ok {
		return data
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		if data, ok := tryDecode(trimmed[start : end+1]); ok {
			return data
		}
	}

	return map[string]any{
		sentinelKey: sentinelMsg,
		"raw":       utils.TruncateForLog(raw, maxRawSnippet),
	}
}

// IsSentinel reports whether the payload marks an unparseable response.
func IsSentinel(data map[string]any) bool {
	_, ok := data[sentinelKey]
	return ok
}

func tryDecode(candidate string) (map[string]any, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil || data == nil {
		return nil, false
	}
	return data, true
}

// CVResultFrom interprets raw generated text as a CV stage result, applying
// the default and clamping rules: a missing or non-numeric match rate becomes
// 0.5 clamped to [0, 1]; missing feedback falls back to a truncated copy of
// the raw text; missing scores become an empty mapping.
func CVResultFrom(raw string) CVResult {
	data := Parse(raw)
	return CVResult{
		MatchRate: clamp(numberOr(data["match_rate"], defaultMatchRate), 0, 1),
		Feedback:  feedbackOr(data["feedback"], raw),
		RawScores: decodeScores(data["raw_scores"]),
	}
}

// ProjectResultFrom interprets raw generated text as a project stage result.
// The default score is 3.0, clamped to [1, 5].
func ProjectResultFrom(raw string) ProjectResult {
	data := Parse(raw)
	return ProjectResult{
		ProjectScore: clamp(numberOr(data["project_score"], defaultProjectScore), 1, 5),
		Feedback:     feedbackOr(data["feedback"], raw),
		RawScores:    decodeScores(data["raw_scores"]),
	}
}

func numberOr(v any, fallback float64) float64 {
	f, ok := asNumber(v)
	if !ok {
		return fallback
	}
	return f
}

func asNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func feedbackOr(v any, raw string) string {
	if s, ok := v.(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return utils.TruncateForLog(raw, maxFeedbackSnippet)
}

// decodeScores leans on mapstructure's weakly-typed decoding so models that
// return score values as strings still produce a usable mapping.
func decodeScores(v any) map[string]float64 {
	scores := make(map[string]float64)

	if v == nil {
		return scores
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &scores,
	})
	if err != nil {
		return map[string]float64{}
	}
	if err := decoder.Decode(v); err != nil {
		return map[string]float64{}
	}

	return scores
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
