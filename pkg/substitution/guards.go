package substitution

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// Guards evaluates the optional `when` expressions attached to overrides.
// Expressions see `workout` (type, zone, duration_minutes) and `phase`.
type Guards struct {
	env      *cel.Env
	prgCache map[string]cel.Program
	mu       sync.RWMutex
}

// NewGuards builds the CEL environment.
func NewGuards() (*Guards, error) {
	env, err := cel.NewEnv(
		cel.Variable("workout", cel.DynType),
		cel.Variable("phase", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Guards{env: env, prgCache: make(map[string]cel.Program)}, nil
}

// Compile checks expr and caches its program.
func (g *Guards) Compile(expr string) error {
	_, err := g.program(expr)
	return err
}

// Match reports whether the guard holds for w in phase. An empty guard
// always matches.
func (g *Guards) Match(expr string, w contracts.Workout, phase string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := g.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"workout": map[string]any{
			"type":             string(w.Type),
			"zone":             int64(w.PrimaryZone),
			"duration_minutes": int64(w.DurationMinutes),
		},
		"phase": phase,
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("guard %q: result not bool", expr)
	}
	return val, nil
}

func (g *Guards) program(expr string) (cel.Program, error) {
	g.mu.RLock()
	prg, hit := g.prgCache[expr]
	g.mu.RUnlock()
	if hit {
		return prg, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if prg, hit = g.prgCache[expr]; hit {
		return prg, nil
	}
	ast, issues := g.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	p, err := g.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(1000),
	)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	g.prgCache[expr] = p
	return p, nil
}
