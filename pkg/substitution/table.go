package substitution

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// SupportedMajor is the table format major version this engine understands.
const SupportedMajor = 1

// AnyPhase is the column used when a rule has no entry for the current phase.
const AnyPhase = "*"

// Entry actions.
const (
	EntryModify   = "MODIFY"
	EntryShutdown = "SHUTDOWN"
)

//go:embed default_table.yaml
var defaultTableYAML []byte

// Document is the on-disk substitution table.
type Document struct {
	Version    string                      `yaml:"version" json:"version"`
	Phases     []string                    `yaml:"phases,omitempty" json:"phases,omitempty"`
	PhysioType contracts.WorkoutType       `yaml:"physio_type,omitempty" json:"physio_type,omitempty"`
	Rules      map[string]map[string]Entry `yaml:"rules" json:"rules"`
}

// Entry is the table cell for one veto combination and phase.
type Entry struct {
	Action    string     `yaml:"action" json:"action"`
	Protocol  string     `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Overrides []Override `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Override is one workout adjustment. Zero fields leave the workout alone.
type Override struct {
	When               string                `yaml:"when,omitempty" json:"when,omitempty"`
	Type               contracts.WorkoutType `yaml:"type,omitempty" json:"type,omitempty"`
	MaxZone            int                   `yaml:"max_zone,omitempty" json:"max_zone,omitempty"`
	MaxDurationMinutes int                   `yaml:"max_duration_minutes,omitempty" json:"max_duration_minutes,omitempty"`
}

// Table is a validated, read-only substitution table.
type Table struct {
	doc     Document
	version *semver.Version
	guards  *Guards
}

// Key returns the table key for a single agent veto.
func Key(id contracts.AgentID) string {
	return string(id) + "_RED"
}

// MultiKey joins the RED agents in hierarchy order.
func MultiKey(ids []contracts.AgentID) string {
	votes := make([]contracts.Vote, len(ids))
	for i, id := range ids {
		votes[i] = contracts.Vote{AgentID: id}
	}
	parts := make([]string, 0, len(ids))
	for _, v := range agents.SortByPriority(votes) {
		parts = append(parts, Key(v.AgentID))
	}
	return strings.Join(parts, "_")
}

// Parse validates and decodes a YAML or JSON table document.
func Parse(data []byte) (*Table, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("substitution table: parse: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("substitution table: decode: %w", err)
	}

	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("substitution table: version %q: %w", doc.Version, err)
	}
	if v.Major() != SupportedMajor {
		return nil, fmt.Errorf("substitution table: unsupported major version %d (want %d)", v.Major(), SupportedMajor)
	}

	if err := normalizePhases(&doc); err != nil {
		return nil, err
	}

	guards, err := NewGuards()
	if err != nil {
		return nil, err
	}
	t := &Table{doc: doc, version: v, guards: guards}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in substitution table invalid: %v", err))
	}
	return t
}

func validateSchema(raw any) error {
	// Round-trip through JSON so the validator sees JSON-typed values.
	buf, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("substitution table: %w", err)
	}
	var inst any
	if err := json.Unmarshal(buf, &inst); err != nil {
		return fmt.Errorf("substitution table: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const url = "https://apex.schemas.local/substitution-table.schema.json"
	if err := c.AddResource(url, strings.NewReader(tableSchema)); err != nil {
		return fmt.Errorf("substitution table schema load failed: %w", err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("substitution table schema compile failed: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("substitution table: schema validation failed: %w", err)
	}
	return nil
}

// normalizePhases upper-cases phase columns so lookups are case-insensitive.
// Two columns that differ only in case are rejected.
func normalizePhases(doc *Document) error {
	for i, p := range doc.Phases {
		doc.Phases[i] = strings.ToUpper(p)
	}
	for key, phases := range doc.Rules {
		out := make(map[string]Entry, len(phases))
		for phase, entry := range phases {
			up := strings.ToUpper(phase)
			if _, dup := out[up]; dup {
				return fmt.Errorf("substitution table: %s: duplicate phase column %q", key, up)
			}
			out[up] = entry
		}
		doc.Rules[key] = out
	}
	return nil
}

// check enforces the rules the schema cannot express.
func (t *Table) check() error {
	for key, phases := range t.doc.Rules {
		ids := agentsOf(key)
		if len(ids) > 1 && MultiKey(ids) != key {
			return fmt.Errorf("substitution table: key %q is not in hierarchy order (want %q)", key, MultiKey(ids))
		}
		for phase, entry := range phases {
			if len(ids) > 1 && entry.Action != EntryShutdown {
				return fmt.Errorf("substitution table: %s/%s: multi-veto entries must be SHUTDOWN", key, phase)
			}
			for i, o := range entry.Overrides {
				if o.When == "" {
					continue
				}
				if err := t.guards.Compile(o.When); err != nil {
					return fmt.Errorf("substitution table: %s/%s override %d: %w", key, phase, i, err)
				}
			}
		}
	}
	return nil
}

func agentsOf(key string) []contracts.AgentID {
	var ids []contracts.AgentID
	for _, part := range strings.Split(key, "_RED") {
		part = strings.TrimPrefix(part, "_")
		if part != "" {
			ids = append(ids, contracts.AgentID(part))
		}
	}
	return ids
}

// Version is the rule version recorded on every decision.
func (t *Table) Version() string { return t.version.Original() }

// PhysioType is the zero-impact modality used in physio mode.
func (t *Table) PhysioType() contracts.WorkoutType {
	if t.doc.PhysioType != "" {
		return t.doc.PhysioType
	}
	return contracts.WorkoutSwim
}

// Lookup returns the entry for key in phase, falling back to the "*" column.
func (t *Table) Lookup(key, phase string) (Entry, bool) {
	phases, ok := t.doc.Rules[key]
	if !ok {
		return Entry{}, false
	}
	if e, ok := phases[strings.ToUpper(phase)]; ok {
		return e, true
	}
	e, ok := phases[AnyPhase]
	return e, ok
}

// Document returns a copy of the decoded document.
func (t *Table) Document() Document {
	out := t.doc
	out.Phases = append([]string(nil), t.doc.Phases...)
	out.Rules = make(map[string]map[string]Entry, len(t.doc.Rules))
	for k, phases := range t.doc.Rules {
		cp := make(map[string]Entry, len(phases))
		for p, e := range phases {
			cp[p] = e
		}
		out.Rules[k] = cp
	}
	return out
}
