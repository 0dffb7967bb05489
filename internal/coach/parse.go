package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dvloznov/moneymagic/internal/pipeline"
)

const maxSteps = 4

// ParseModelResponse validates and coerces raw model output. Malformed
// recommendations are dropped; an answer with none left is an error.
func ParseModelResponse(raw string) (Response, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return Response{}, errors.New("ParseModelResponse: empty response from model")
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return Response{}, fmt.Errorf("ParseModelResponse: unmarshal JSON: %w", err)
	}

	summaryText, _ := payload["summary_text"].(string)
	if strings.TrimSpace(summaryText) == "" {
		return Response{}, errors.New("ParseModelResponse: missing summary_text")
	}

	items, ok := payload["recommendations"].([]interface{})
	if !ok {
		return Response{}, errors.New("ParseModelResponse: missing recommendations list")
	}
	if len(items) > MaxRecommendations {
		items = items[:MaxRecommendations]
	}

	recs := make([]Recommendation, 0, len(items))
	for _, item := range items {
		if rec, ok := coerceRecommendation(item); ok {
			recs = append(recs, rec)
		}
	}
	if len(recs) == 0 {
		return Response{}, errors.New("ParseModelResponse: no valid recommendations")
	}

	return Response{
		SummaryText:     strings.TrimSpace(summaryText),
		Recommendations: recs,
	}, nil
}

func coerceRecommendation(item interface{}) (Recommendation, bool) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return Recommendation{}, false
	}

	title, _ := m["title"].(string)
	title = strings.TrimSpace(title)
	rawSteps, ok := m["steps"].([]interface{})
	if title == "" || !ok {
		return Recommendation{}, false
	}

	steps := make([]string, 0, maxSteps)
	for _, s := range rawSteps {
		step, ok := s.(string)
		if !ok || strings.TrimSpace(step) == "" {
			continue
		}
		steps = append(steps, step)
		if len(steps) == maxSteps {
			break
		}
	}
	if len(steps) == 0 {
		return Recommendation{}, false
	}

	return Recommendation{
		Title:         title,
		SavingsImpact: pipeline.Round2(toFloat(m["savings_impact"])),
		Steps:         steps,
	}, true
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// cleanModelJSON strips Markdown fences and any prose around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
