package utils

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		value   string
		pattern string
		want    bool
	}{
		{"project.delete", "project.delete", true},
		{"project.delete", "project.view", false},
		{"anything", "*", true},
		{"project.delete", "project.*", true},
		{"account.delete", "project.*", false},
		{"doc/123/read", "doc/:id/read", true},
		{"doc/123/write", "doc/:id/read", false},
		{"doc/123", "doc/:id/read", false},
		{"doc/123/read", "doc/*", true},
		{"doc", "doc/*", false},
		{"doc/123/read/extra", "doc/:id/read", false},
		{"report/q3/export", "report/*/export", true},
		{"report/q3/view", "report/*/export", false},
		{"", "*", true},
		{"project.delete", "", false},
	}
	for _, tc := range cases {
		if got := Match(tc.value, tc.pattern); got != tc.want {
			t.Fatalf("Match(%q, %q): expected %v, got %v", tc.value, tc.pattern, tc.want, got)
		}
	}
}
