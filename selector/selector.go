package selector

import (
	"context"

	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/logging"
)

// Weights controls the blend of the three scoring signals. They are
// expected to sum to 1 but the selector does not enforce it.
type Weights struct {
	Capability  float64
	Performance float64
	IdleBonus   float64
}

// DefaultWeights is the standard blend: capability fit dominates,
// historical success rate second, idleness a tiebreaker-sized bonus.
var DefaultWeights = Weights{
	Capability:  0.6,
	Performance: 0.3,
	IdleBonus:   0.1,
}

// InferenceFunc derives the capability names a message calls for.
// Implementations may be a keyword table or a model call; the selector
// only needs the resulting names.
type InferenceFunc func(ctx context.Context, message string) []string

// Options configures a Selector.
type Options struct {
	Weights Weights
	Infer   InferenceFunc
	Logger  logging.Logger
}

// Selector picks the best-scoring agent for a message.
type Selector struct {
	weights Weights
	infer   InferenceFunc
	logger  logging.Logger
}

// New creates a Selector. Without options it uses DefaultWeights and
// the keyword-based inference table.
func New(optFns ...func(o *Options)) *Selector {
	opts := Options{
		Weights: DefaultWeights,
		Infer:   KeywordInference,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Selector{
		weights: opts.Weights,
		infer:   opts.Infer,
		logger:  opts.Logger,
	}
}

// Select returns the best-scoring agent for the message, or nil when no
// agent is eligible (empty fleet, or every agent offline). Offline
// agents are never selected. Ties keep the earliest-registered agent:
// candidates are scanned in registration order and only a strictly
// higher score displaces the current best.
func (s *Selector) Select(ctx context.Context, message string, agents []core.Agent) *core.Agent {
	if len(agents) == 0 {
		return nil
	}

	var required []string
	if s.infer != nil {
		required = s.infer(ctx, message)
	}

	var (
		best      *core.Agent
		bestScore float64
	)

	for i := range agents {
		a := agents[i]
		if a.Status == core.StatusOffline {
			continue
		}

		score := s.score(a, required)

		s.logger.Debug("Agent scored", "agent_id", a.ID, "score", score, "required", required)

		if best == nil || score > bestScore {
			best = &agents[i]
			bestScore = score
		}
	}

	if best == nil {
		return nil
	}

	s.logger.Debug("Agent selected", "agent_id", best.ID, "score", bestScore)

	return best
}

// score blends capability fit, success rate and idleness. Capability
// fit is the mean confidence of the agent's capabilities whose names
// appear in required; zero when nothing matches.
func (s *Selector) score(a core.Agent, required []string) float64 {
	var capScore float64

	if len(required) > 0 {
		var (
			sum     float64
			matched int
		)

		for _, name := range required {
			if c, ok := a.Capability(name); ok {
				sum += c.Confidence
				matched++
			}
		}

		if matched > 0 {
			capScore = sum / float64(matched)
		}
	}

	score := s.weights.Capability * capScore
	score += s.weights.Performance * (a.Stats.SuccessRate() / 100.0)

	if a.Status == core.StatusIdle {
		score += s.weights.IdleBonus
	}

	return score
}
