package flowver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrategyCanInfer(t *testing.T) {
	cfg := DefaultConfiguration()

	tests := []struct {
		branch   string
		expected BranchKind
		ok       bool
	}{
		{"master", Trunk, true},
		{"main", Trunk, true},
		{"develop", Develop, true},
		{"release/1.3.0", Release, true},
		{"feature/login", Feature, true},
		{"hotfix/urgent", Hotfix, true},
		{"bugfix/crash", Bugfix, true},
		{"support/1.x", Support, true},
		{"developmentbranch", Detached, false},
		{"develop/foo", Detached, false},
		{"feature", Detached, false},
		{"feature/", Detached, false},
		{"mastery", Detached, false},
	}

	for _, test := range tests {
		t.Run(test.branch, func(t *testing.T) {
			kind, ok := firstApplicable(cfg, test.branch)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, kind)
		})
	}
}

func TestStrategyOrderPrefersPrefixes(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.ApplyBranchOverrides(map[BranchKind]string{
		Trunk:   "feature/main",
		Feature: "feature/",
	})

	kind, ok := firstApplicable(cfg, "feature/main")
	require.True(t, ok)
	require.Equal(t, Feature, kind)
}

func TestTrunkAliasOnlyWithDefaultName(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.ApplyBranchOverrides(map[BranchKind]string{Trunk: "production"})

	_, ok := firstApplicable(cfg, "main")
	require.False(t, ok)

	kind, ok := firstApplicable(cfg, "production")
	require.True(t, ok)
	require.Equal(t, Trunk, kind)
}

func TestSanitizeSuffix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"login", "login"},
		{"login/oauth", "login.oauth"},
		{"1.3.0", "1.3.0"},
		{"JIRA-12_fix it", "JIRA-12-fix-it"},
		{"007", "7"},
		{"000", "0"},
		{"__", ""},
		{"", ""},
		{"a//b", "a.b"},
		{"émoji✓", "moji"},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			require.Equal(t, test.expected, sanitizeSuffix(test.input))
		})
	}
}

func firstApplicable(cfg *Configuration, branch string) (BranchKind, bool) {
	for _, s := range strategies {
		if s.canInfer(cfg, branch) {
			return s.kind, true
		}
	}
	return Detached, false
}
