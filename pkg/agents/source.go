package agents

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
)

// VoteSource is an alternate producer of votes, such as a trained
// classifier. Its output is normalised before use.
type VoteSource interface {
	Votes(ctx context.Context, summary session.Summary) ([]contracts.Vote, error)
}

// Panel evaluates the three rule agents.
type Panel struct {
	Thresholds Thresholds
	// Source, when set, is consulted first; rule agents fill any gaps.
	Source VoteSource
	Logger *slog.Logger
}

// NewPanel returns a panel using th.
func NewPanel(th Thresholds) *Panel {
	return &Panel{Thresholds: th, Logger: slog.Default().With("component", "agents")}
}

// Evaluate returns exactly one vote per known agent, in hierarchy order.
// The rule agents run concurrently; each sees only its own slice.
func (p *Panel) Evaluate(ctx context.Context, summary session.Summary) ([]contracts.Vote, error) {
	rules, err := p.ruleVotes(ctx, summary)
	if err != nil {
		return nil, err
	}
	if p.Source == nil {
		return rules, nil
	}
	external, err := p.Source.Votes(ctx, summary)
	if err != nil {
		p.logger().WarnContext(ctx, "vote source failed, using rule votes", "error", err)
		return rules, nil
	}
	for _, v := range external {
		if !IsKnown(v.AgentID) {
			p.logger().WarnContext(ctx, "vote from unknown agent, ranking it last", "agent", v.AgentID)
		}
	}
	return Normalize(external, rules), nil
}

func (p *Panel) ruleVotes(ctx context.Context, summary session.Summary) ([]contracts.Vote, error) {
	votes := make([]contracts.Vote, len(Known))
	g, gctx := errgroup.WithContext(ctx)

	structural := summary.Structural
	metabolic := summary.Metabolic
	fueling := summary.Fueling

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		votes[0] = Structural(structural, p.Thresholds.Structural)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		votes[1] = Metabolic(metabolic, p.Thresholds.Metabolic)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		votes[2] = Fueling(fueling, p.Thresholds.Fueling)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}
	return votes, nil
}

func (p *Panel) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Normalize reduces external votes to one per known agent. The first vote
// seen for an agent wins; votes with an invalid color are discarded; any
// agent without a vote takes the matching fallback vote. Unknown agents are
// kept and sort last.
func Normalize(external, fallback []contracts.Vote) []contracts.Vote {
	seen := make(map[contracts.AgentID]bool)
	var out []contracts.Vote
	for _, v := range external {
		if !v.Color.Valid() || seen[v.AgentID] {
			continue
		}
		seen[v.AgentID] = true
		out = append(out, v)
	}
	for _, id := range Known {
		if seen[id] {
			continue
		}
		if v, ok := Find(fallback, id); ok {
			out = append(out, v)
		}
	}
	return SortByPriority(out)
}
