// Package phase resolves the training phase in force on a calendar day.
package phase

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// ErrNoPhase is returned when no block covers the requested day.
var ErrNoPhase = errors.New("no phase covers date")

// Block is one calendar-bounded phase. Start and End are inclusive days.
type Block struct {
	Start      string                    `yaml:"start" json:"start"`
	End        string                    `yaml:"end" json:"end"`
	Definition contracts.PhaseDefinition `yaml:",inline" json:"definition"`

	start time.Time
	end   time.Time
}

// Calendar is an ordered, non-overlapping set of blocks.
type Calendar struct {
	Blocks []Block `yaml:"blocks" json:"blocks"`
	// Fallback is used for days outside every block. Nil means no fallback.
	Fallback *contracts.PhaseDefinition `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// DefaultFallback is a conservative base phase.
func DefaultFallback() contracts.PhaseDefinition {
	return contracts.PhaseDefinition{
		PhaseNumber:      1,
		MaxAllowedZone:   contracts.Zone3,
		MaxWeeklyVolume:  60,
		MaxMonthlyVolume: 240,
	}
}

// Parse decodes and validates a calendar document.
func Parse(data []byte) (*Calendar, error) {
	var c Calendar
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse phase calendar: %w", err)
	}
	if err := c.prepare(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a calendar file.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load phase calendar %q: %w", path, err)
	}
	return Parse(data)
}

// Static returns a calendar that resolves every day to def.
func Static(def contracts.PhaseDefinition) *Calendar {
	return &Calendar{Fallback: &def}
}

func (c *Calendar) prepare() error {
	for i := range c.Blocks {
		b := &c.Blocks[i]
		var err error
		if b.start, err = contracts.ParseDate(b.Start); err != nil {
			return fmt.Errorf("phase block %d start: %w", i, err)
		}
		if b.end, err = contracts.ParseDate(b.End); err != nil {
			return fmt.Errorf("phase block %d end: %w", i, err)
		}
		if b.end.Before(b.start) {
			return fmt.Errorf("phase block %d ends before it starts", i)
		}
		if b.Definition.PhaseName() == "" {
			return fmt.Errorf("phase block %d: phase_number must be 1..4 or a name must be given", i)
		}
		if b.Definition.MaxAllowedZone != 0 && !b.Definition.MaxAllowedZone.Valid() {
			return fmt.Errorf("phase block %d: max_allowed_zone %d out of range", i, b.Definition.MaxAllowedZone)
		}
	}
	sort.SliceStable(c.Blocks, func(i, j int) bool { return c.Blocks[i].start.Before(c.Blocks[j].start) })
	for i := 1; i < len(c.Blocks); i++ {
		if !c.Blocks[i].start.After(c.Blocks[i-1].end) {
			return fmt.Errorf("phase blocks %s and %s overlap", c.Blocks[i-1].Start, c.Blocks[i].Start)
		}
	}
	return nil
}

// Resolve returns the phase in force on date (YYYY-MM-DD).
func (c *Calendar) Resolve(date string) (contracts.PhaseDefinition, error) {
	day, err := contracts.ParseDate(date)
	if err != nil {
		return contracts.PhaseDefinition{}, err
	}
	i := sort.Search(len(c.Blocks), func(i int) bool { return !c.Blocks[i].end.Before(day) })
	if i < len(c.Blocks) && !day.Before(c.Blocks[i].start) {
		return c.Blocks[i].Definition, nil
	}
	if c.Fallback != nil {
		return *c.Fallback, nil
	}
	return contracts.PhaseDefinition{}, fmt.Errorf("%w %s", ErrNoPhase, date)
}
