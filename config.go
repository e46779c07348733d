package permit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// DECLARATIVE REQUIREMENT CONFIG
// ============================================================================

// Config is a declarative set of named requirements, typically loaded once
// at startup and compiled into the immutable predicates the gates enforce.
type Config struct {
	Version      uint16              `json:"version" yaml:"version"`
	Requirements []RequirementConfig `json:"requirements" yaml:"requirements"`
}

// RequirementConfig names a single rule tree.
type RequirementConfig struct {
	Name string     `json:"name" yaml:"name"`
	Rule RuleConfig `json:"rule" yaml:"rule"`
}

// RuleConfig is one node of a rule tree. Exactly one connector (all, any,
// not) or one leaf condition should be set; when several leaves are set on
// the same node they combine as an implicit AND.
type RuleConfig struct {
	All []RuleConfig `json:"all,omitempty" yaml:"all,omitempty"`
	Any []RuleConfig `json:"any,omitempty" yaml:"any,omitempty"`
	Not *RuleConfig  `json:"not,omitempty" yaml:"not,omitempty"`

	Role       string    `json:"role,omitempty" yaml:"role,omitempty"`
	AnyRole    []string  `json:"any_role,omitempty" yaml:"any_role,omitempty"`
	Permission string    `json:"permission,omitempty" yaml:"permission,omitempty"`
	Group      string    `json:"group,omitempty" yaml:"group,omitempty"`
	Attr       *AttrRule `json:"attr,omitempty" yaml:"attr,omitempty"`
	Time       *TimeRule `json:"time,omitempty" yaml:"time,omitempty"`
	// Match holds a requirement expression in the ParseRequirement syntax.
	Match string `json:"match,omitempty" yaml:"match,omitempty"`
}

// AttrRule compares one identity field. Exactly one comparison should be set.
type AttrRule struct {
	Field     string `json:"field" yaml:"field"`
	Equals    any    `json:"equals,omitempty" yaml:"equals,omitempty"`
	NotEquals any    `json:"not_equals,omitempty" yaml:"not_equals,omitempty"`
	In        []any  `json:"in,omitempty" yaml:"in,omitempty"`
	Gte       any    `json:"gte,omitempty" yaml:"gte,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// TimeRule restricts the evaluation time.
type TimeRule struct {
	Between string `json:"between" yaml:"between"` // "09:00-18:00"
}

// ConfigLoader loads requirement configuration from various formats.
type ConfigLoader struct{}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

func (l *ConfigLoader) LoadYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) LoadJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile dispatches on the file extension (.yaml, .yml, .json).
func (l *ConfigLoader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return l.LoadYAML(data)
	case ".json":
		return l.LoadJSON(data)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
}

// ToYAML exports the config to YAML.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ToJSON exports the config to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Compile turns every named requirement into a Predicate. Duplicate names
// and empty rule trees are configuration errors.
func (c *Config) Compile() (map[string]Predicate[*Identity], error) {
	out := make(map[string]Predicate[*Identity], len(c.Requirements))
	for _, req := range c.Requirements {
		if req.Name == "" {
			return nil, fmt.Errorf("requirement without a name")
		}
		if _, dup := out[req.Name]; dup {
			return nil, fmt.Errorf("duplicate requirement %q", req.Name)
		}
		p, err := compileRule(req.Rule)
		if err != nil {
			return nil, fmt.Errorf("compile requirement %q: %w", req.Name, err)
		}
		out[req.Name] = p
	}
	return out, nil
}

func compileRule(r RuleConfig) (Predicate[*Identity], error) {
	preds := make([]Predicate[*Identity], 0, 4)

	if len(r.All) > 0 {
		children, err := compileRules(r.All)
		if err != nil {
			return nil, err
		}
		preds = append(preds, And(children...))
	}
	if len(r.Any) > 0 {
		children, err := compileRules(r.Any)
		if err != nil {
			return nil, err
		}
		preds = append(preds, Or(children...))
	}
	if r.Not != nil {
		child, err := compileRule(*r.Not)
		if err != nil {
			return nil, err
		}
		preds = append(preds, Not(child))
	}
	if r.Role != "" {
		preds = append(preds, HasRole(r.Role))
	}
	if len(r.AnyRole) > 0 {
		preds = append(preds, HasAnyRole(r.AnyRole...))
	}
	if r.Permission != "" {
		preds = append(preds, HasPermission(r.Permission))
	}
	if r.Group != "" {
		preds = append(preds, MemberOfGroup(r.Group))
	}
	if r.Attr != nil {
		p, err := compileAttr(*r.Attr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if r.Time != nil {
		p, err := compileTime(*r.Time)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if r.Match != "" {
		p, err := ParseRequirement(r.Match)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	switch len(preds) {
	case 0:
		return nil, fmt.Errorf("empty rule")
	case 1:
		return preds[0], nil
	default:
		return And(preds...), nil
	}
}

func compileRules(rules []RuleConfig) ([]Predicate[*Identity], error) {
	out := make([]Predicate[*Identity], 0, len(rules))
	for _, r := range rules {
		p, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func compileAttr(a AttrRule) (Predicate[*Identity], error) {
	if a.Field == "" {
		return nil, fmt.Errorf("attr rule without a field")
	}
	switch {
	case a.Equals != nil:
		return Equals(a.Field, a.Equals), nil
	case a.NotEquals != nil:
		return NotEquals(a.Field, a.NotEquals), nil
	case len(a.In) > 0:
		return In(a.Field, a.In...), nil
	case a.Gte != nil:
		return Gte(a.Field, a.Gte), nil
	case a.Pattern != "":
		return Matches(a.Field, a.Pattern), nil
	}
	return nil, fmt.Errorf("attr rule for %q without a comparison", a.Field)
}

func compileTime(t TimeRule) (Predicate[*Identity], error) {
	parts := strings.SplitN(t.Between, "-", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("time rule %q must be HH:MM-HH:MM", t.Between)
	}
	return TimeBetween(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])), nil
}
