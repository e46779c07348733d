package permit

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYAML = `
version: 1
requirements:
  - name: delete_project
    rule:
      all:
        - permission: project.delete
        - group: eng
  - name: senior_or_admin
    rule:
      any:
        - role: admin
        - all:
            - role: manager
            - attr:
                field: attrs.level
                gte: 5
  - name: not_contractor
    rule:
      not:
        group: contractors
  - name: eu_staff
    rule:
      attr:
        field: attrs.region
        pattern: "^eu-"
  - name: expression
    rule:
      match: role:manager AND group:eng
`

func TestConfigCompileAndEvaluate(t *testing.T) {
	cfg, err := NewConfigLoader().LoadYAML([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != 1 || len(cfg.Requirements) != 5 {
		t.Fatalf("unexpected config shape: version=%d requirements=%d", cfg.Version, len(cfg.Requirements))
	}

	reqs, err := cfg.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id := testIdentity()
	cases := []struct {
		name string
		want bool
	}{
		{"delete_project", false}, // has the group but not the permission
		{"senior_or_admin", true}, // manager with level 7
		{"not_contractor", true},
		{"eu_staff", true},
		{"expression", true},
	}
	for _, tc := range cases {
		p, ok := reqs[tc.name]
		if !ok {
			t.Fatalf("requirement %q not compiled", tc.name)
		}
		got, err := p.Evaluate(id)
		if err != nil {
			t.Fatalf("evaluate %q: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestConfigImplicitAndAcrossLeaves(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Requirements: []RequirementConfig{
			{Name: "eng_manager", Rule: RuleConfig{Role: "manager", Group: "eng"}},
		},
	}
	reqs, err := cfg.Compile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := reqs["eng_manager"].Evaluate(testIdentity())
	if err != nil || !ok {
		t.Fatalf("expected implicit AND of leaves to allow, got %v, %v", ok, err)
	}
	ok, err = reqs["eng_manager"].Evaluate(&Identity{Roles: []string{"manager"}})
	if err != nil || ok {
		t.Fatalf("expected missing group to deny, got %v, %v", ok, err)
	}
}

func TestConfigCompileErrors(t *testing.T) {
	dup := &Config{Requirements: []RequirementConfig{
		{Name: "a", Rule: RuleConfig{Role: "x"}},
		{Name: "a", Rule: RuleConfig{Role: "y"}},
	}}
	if _, err := dup.Compile(); err == nil {
		t.Fatalf("expected duplicate name error")
	}

	unnamed := &Config{Requirements: []RequirementConfig{
		{Rule: RuleConfig{Role: "x"}},
	}}
	if _, err := unnamed.Compile(); err == nil {
		t.Fatalf("expected missing name error")
	}

	empty := &Config{Requirements: []RequirementConfig{
		{Name: "a", Rule: RuleConfig{}},
	}}
	if _, err := empty.Compile(); err == nil {
		t.Fatalf("expected empty rule error")
	}

	badAttr := &Config{Requirements: []RequirementConfig{
		{Name: "a", Rule: RuleConfig{Attr: &AttrRule{Field: "attrs.level"}}},
	}}
	if _, err := badAttr.Compile(); err == nil {
		t.Fatalf("expected attr rule without comparison error")
	}

	badTime := &Config{Requirements: []RequirementConfig{
		{Name: "a", Rule: RuleConfig{Time: &TimeRule{Between: "always"}}},
	}}
	if _, err := badTime.Compile(); err == nil {
		t.Fatalf("expected malformed time rule error")
	}

	badMatch := &Config{Requirements: []RequirementConfig{
		{Name: "a", Rule: RuleConfig{Match: "role admin"}},
	}}
	if _, err := badMatch.Compile(); err == nil {
		t.Fatalf("expected malformed expression error")
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	cfg, err := NewConfigLoader().LoadYAML([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "requirements.json")
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := NewConfigLoader().LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Requirements) != len(cfg.Requirements) {
		t.Fatalf("round trip lost requirements: %d != %d", len(loaded.Requirements), len(cfg.Requirements))
	}
	if _, err := loaded.Compile(); err != nil {
		t.Fatalf("round-tripped config must compile: %v", err)
	}

	if _, err := NewConfigLoader().LoadFile(filepath.Join(dir, "requirements.toml")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
