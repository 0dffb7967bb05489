package coach

import (
	"context"
	"time"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/rs/zerolog"
)

const (
	SourceGemini = "gemini"
	SourceRules  = "rules"

	// MaxRecommendations caps every response, whichever path produced it.
	MaxRecommendations = 3

	DefaultTimeout = 20 * time.Second
)

// Recommendation is one actionable coaching item.
type Recommendation struct {
	Title         string   `json:"title"`
	SavingsImpact float64  `json:"savings_impact"`
	Steps         []string `json:"steps"`
}

// Response is what the coach endpoint returns.
type Response struct {
	SummaryText     string           `json:"summary_text"`
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
}

// Advisor produces raw model output for a prompt.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// Responder answers coaching questions. It tries the advisor first and falls
// back to the rule-based answer on any failure, so Respond never fails.
type Responder struct {
	advisor Advisor
	timeout time.Duration
	log     zerolog.Logger
}

// NewResponder creates a responder. A nil advisor means rules only.
func NewResponder(advisor Advisor, timeout time.Duration, log zerolog.Logger) *Responder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Responder{advisor: advisor, timeout: timeout, log: log}
}

// Result is the outcome of consulting the advisor. When OK is false the
// caller falls back to RuleBased; Err says why, and is nil when no advisor
// is configured.
type Result struct {
	Response Response
	OK       bool
	Err      error
}

// Consult asks the advisor only. It performs no fallback of its own.
func (r *Responder) Consult(ctx context.Context, question string, summary domain.Summary, subs []domain.Subscription) Result {
	if r.advisor == nil {
		return Result{}
	}
	resp, err := r.fromAdvisor(ctx, question, summary, subs)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Response: resp, OK: true}
}

// Respond builds recommendations for question from the dataset's derived state.
func (r *Responder) Respond(ctx context.Context, question string, summary domain.Summary, subs []domain.Subscription) Response {
	res := r.Consult(ctx, question, summary, subs)
	if res.OK {
		return res.Response
	}
	if res.Err != nil {
		r.log.Warn().Err(res.Err).Msg("Coach advisor failed, using rule-based answer")
	}
	return RuleBased(question, summary, subs)
}

func (r *Responder) fromAdvisor(ctx context.Context, question string, summary domain.Summary, subs []domain.Subscription) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt, err := BuildPrompt(question, summary, subs)
	if err != nil {
		return Response{}, err
	}

	raw, err := r.advisor.Advise(ctx, prompt)
	if err != nil {
		return Response{}, err
	}

	resp, err := ParseModelResponse(raw)
	if err != nil {
		return Response{}, err
	}
	resp.Source = SourceGemini
	return resp, nil
}
