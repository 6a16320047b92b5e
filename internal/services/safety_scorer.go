package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"safe-route-service/internal/domain"
	"safe-route-service/internal/platform/obs"
	"safe-route-service/internal/ports"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	maxPromptIncidents = 50
	maxLoggedPayload   = 512
)

// LLMSafetyScorer scores a route by prompting a text generator and
// validating its reply.
type LLMSafetyScorer struct {
	gen     ports.TextGenerator
	timeout time.Duration
}

var _ ports.SafetyScorer = (*LLMSafetyScorer)(nil)

func NewLLMSafetyScorer(gen ports.TextGenerator, timeout time.Duration) *LLMSafetyScorer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LLMSafetyScorer{gen: gen, timeout: timeout}
}

func (s *LLMSafetyScorer) Score(
	ctx context.Context,
	route domain.RouteCandidate,
	incidents []domain.IncidentRecord,
) (_ domain.SafetyAssessment, err error) {
	defer obs.Time(ctx, "scorer.Score")(&err)

	if s.gen == nil {
		return domain.SafetyAssessment{}, domain.ErrScoringUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, BuildSafetyPrompt(route, incidents))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScoringUnavailable):
			return domain.SafetyAssessment{}, err
		case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
			return domain.SafetyAssessment{}, fmt.Errorf("%w: route %s: %w", domain.ErrScoringTimeout, route.ID, err)
		}
		return domain.SafetyAssessment{}, fmt.Errorf("score route %s: %w", route.ID, err)
	}

	a, err := ParseAssessment(text, incidents)
	if err != nil {
		obs.Ctx(ctx).Warn().
			Str("route_id", route.ID).
			Str("payload", truncate(text, maxLoggedPayload)).
			Err(err).
			Msg("discarding malformed scorer payload")
		return domain.SafetyAssessment{}, err
	}

	return a, nil
}

// BuildSafetyPrompt renders the route and its nearby incidents into the
// instruction sent to the model.
func BuildSafetyPrompt(route domain.RouteCandidate, incidents []domain.IncidentRecord) string {
	var b strings.Builder

	b.WriteString("Analyze the safety of the following walking route based on the provided data.\n\n")
	fmt.Fprintf(&b, "Route: %s\n", route.Label)
	if route.Summary != "" {
		fmt.Fprintf(&b, "Route summary: %s\n", route.Summary)
	}
	fmt.Fprintf(&b, "Distance: %d m\nDuration: %d min\n\n", route.DistanceMeters, (route.DurationSeconds+59)/60)

	if len(incidents) == 0 {
		b.WriteString("Crime reports near the route: none on record.\n")
	} else {
		fmt.Fprintf(&b, "Crime reports near the route (%d):\n", len(incidents))
		for i, inc := range incidents {
			if i == maxPromptIncidents {
				fmt.Fprintf(&b, "... and %d more reports not listed.\n", len(incidents)-maxPromptIncidents)
				break
			}
			when := inc.Date
			if inc.TimeFrom != "" {
				when += " " + inc.TimeFrom
			}
			fmt.Fprintf(&b, "- id=%s category=%q date=%s", inc.ID, inc.Category, when)
			if place := joinNonEmpty(", ", inc.Area, inc.City); place != "" {
				fmt.Fprintf(&b, " place=%q", place)
			}
			if inc.Description != "" {
				fmt.Fprintf(&b, " description=%q", inc.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(`
Respond with only a JSON object of the form:
{"safetyScore": <integer 0-100, higher is safer>, "riskFactors": [<string>], "friendlyTips": [<string>], "summary": <string>, "incidentIds": [<ids of the listed reports that affect this route>]}
`)

	return b.String()
}

type rawAssessment struct {
	SafetyScore  json.RawMessage `json:"safetyScore"`
	RiskFactors  []string        `json:"riskFactors"`
	FriendlyTips []string        `json:"friendlyTips"`
	Summary      string          `json:"summary"`
	IncidentIDs  []string        `json:"incidentIds"`
}

// ParseAssessment extracts and validates the first decodable JSON object in
// text. Model replies may wrap the object in code fences or prose, and the
// prose itself may contain braces.
// Any validation failure is reported as ErrScoringMalformed.
func ParseAssessment(text string, incidents []domain.IncidentRecord) (domain.SafetyAssessment, error) {
	raw, err := firstObject(text)
	if err != nil {
		return domain.SafetyAssessment{}, fmt.Errorf("%w: %w", domain.ErrScoringMalformed, err)
	}

	score, err := parseScore(raw.SafetyScore)
	if err != nil {
		return domain.SafetyAssessment{}, fmt.Errorf("%w: %w", domain.ErrScoringMalformed, err)
	}

	return domain.SafetyAssessment{
		Score:        score,
		RiskFactors:  cleanStrings(raw.RiskFactors),
		FriendlyTips: cleanStrings(raw.FriendlyTips),
		Summary:      strings.TrimSpace(raw.Summary),
		IncidentIDs:  attributedIDs(raw.IncidentIDs, incidents),
	}, nil
}

// firstObject decodes from each '{' in turn until one parses. The decoder
// stops after the first complete value; trailing prose is ignored.
func firstObject(text string) (rawAssessment, error) {
	var firstErr error
	for start := strings.IndexByte(text, '{'); start >= 0; {
		var raw rawAssessment
		err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&raw)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if firstErr == nil {
		return rawAssessment{}, errors.New("no JSON object in reply")
	}
	return rawAssessment{}, firstErr
}

func parseScore(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, errors.New("safetyScore missing")
	}

	// Quoted values fail here, which rejects "85" as non-numeric.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("safetyScore is not a number: %s", truncate(s, 32))
	}
	if f < 0 || f > 100 {
		return 0, fmt.Errorf("safetyScore %v out of range [0,100]", f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("safetyScore %v is not a whole number", f)
	}
	return int(f), nil
}

// attributedIDs keeps only ids the scorer was actually given. When the
// scorer names none, every supplied incident is attributed.
func attributedIDs(claimed []string, incidents []domain.IncidentRecord) []string {
	if claimed == nil {
		return domain.IncidentIDs(incidents)
	}

	known := make(map[string]struct{}, len(incidents))
	for _, inc := range incidents {
		known[inc.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(claimed))
	out := make([]string, 0, len(claimed))
	for _, id := range claimed {
		id = strings.TrimSpace(id)
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
