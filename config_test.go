package flowver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()

	require.NoError(t, cfg.Validate())
	require.Equal(t, "master", cfg.branch(Trunk))
	require.Equal(t, "feature/", cfg.branch(Feature))
	require.Equal(t, "release-candidate", cfg.preReleaseID(Release))
	require.Equal(t, "sha", cfg.shaID())
	require.Equal(t, "dirty", cfg.dirtyID())
	require.Equal(t, Unset, cfg.MavenCompatibility)
}

func TestZeroConfigurationFallsBackToDefaults(t *testing.T) {
	var cfg Configuration

	require.Equal(t, "develop", cfg.branch(Develop))
	require.Equal(t, "hotfix", cfg.preReleaseID(Hotfix))
	require.Equal(t, "sha", cfg.shaID())
	require.NoError(t, cfg.Validate())
}

func TestClone(t *testing.T) {
	cfg := DefaultConfiguration()
	clone := cfg.Clone()
	clone.Branches[Feature] = "feat/"
	clone.PreReleaseIDs[Develop] = "dev"
	clone.MavenCompatibility = On

	require.Equal(t, "feature/", cfg.Branches[Feature])
	require.Equal(t, "develop", cfg.PreReleaseIDs[Develop])
	require.Equal(t, Unset, cfg.MavenCompatibility)
}

func TestApplyBranchOverrides(t *testing.T) {
	cfg := &Configuration{}
	cfg.ApplyBranchOverrides(map[BranchKind]string{
		Develop: "dev",
		Feature: "",
	})

	require.Equal(t, "dev", cfg.branch(Develop))
	require.Equal(t, "feature/", cfg.branch(Feature))
}

func TestParseBranchKind(t *testing.T) {
	for name, expected := range map[string]BranchKind{
		"master":  Trunk,
		"main":    Trunk,
		"trunk":   Trunk,
		"Develop": Develop,
		"release": Release,
		"feature": Feature,
		"hotfix":  Hotfix,
		"bugfix":  Bugfix,
		"support": Support,
	} {
		kind, err := ParseBranchKind(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, kind, name)
	}

	_, err := ParseBranchKind("detached")
	require.Error(t, err)
	_, err = ParseBranchKind("experiment")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	t.Run("Full file", func(t *testing.T) {
		dir := t.TempDir()
		content := `
tag_pattern = "^v"
maven = true
snapshot = true

[branch]
master = "production"
develop = "integration"

[prefix]
feature = "feat/"
hotfix = "fix/"

[prerelease]
develop = "dev"
release = "candidate"

[buildmetadata]
sha = "git"
dirty = "modified"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

		cfg := DefaultConfiguration()
		cfg.RepositoryRoot = dir
		require.NoError(t, cfg.LoadFile(""))

		expected := DefaultConfiguration()
		expected.RepositoryRoot = dir
		expected.TagPattern = "^v"
		expected.MavenCompatibility = On
		expected.UseSnapshot = true
		expected.Branches[Trunk] = "production"
		expected.Branches[Develop] = "integration"
		expected.Branches[Feature] = "feat/"
		expected.Branches[Hotfix] = "fix/"
		expected.PreReleaseIDs[Develop] = "dev"
		expected.PreReleaseIDs[Release] = "candidate"
		expected.BuildMetadataIDs = BuildMetadataIDs{Sha: "git", Dirty: "modified"}

		if diff := cmp.Diff(expected, cfg); diff != "" {
			t.Errorf("unexpected configuration (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		cfg := DefaultConfiguration()
		require.NoError(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.toml")))

		if diff := cmp.Diff(DefaultConfiguration(), cfg); diff != "" {
			t.Errorf("unexpected configuration (-want +got):\n%s", diff)
		}
	})

	t.Run("No root and no path", func(t *testing.T) {
		cfg := DefaultConfiguration()
		require.NoError(t, cfg.LoadFile(""))
	})

	t.Run("Explicit maven flag is kept", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowver.toml")
		require.NoError(t, os.WriteFile(path, []byte("maven = true\n"), 0o644))

		cfg := DefaultConfiguration()
		cfg.MavenCompatibility = Off
		require.NoError(t, cfg.LoadFile(path))
		require.Equal(t, Off, cfg.MavenCompatibility)
	})

	t.Run("Maven opt-out", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowver.toml")
		require.NoError(t, os.WriteFile(path, []byte("maven = false\n"), 0o644))

		cfg := DefaultConfiguration()
		require.NoError(t, cfg.LoadFile(path))
		require.Equal(t, Off, cfg.MavenCompatibility)
	})

	t.Run("Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowver.toml")
		require.NoError(t, os.WriteFile(path, []byte("[branch\n"), 0o644))

		cfg := DefaultConfiguration()
		err := cfg.LoadFile(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "parsing config file")
	})

	t.Run("Unknown kinds are all reported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowver.toml")
		content := "[prefix]\nexperiment = \"exp/\"\n\n[prerelease]\nspike = \"s\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg := DefaultConfiguration()
		err := cfg.LoadFile(path)
		var merr *multierror.Error
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Errors, 2)
	})
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.PreReleaseIDs[Feature] = "feat.ure"
	cfg.PreReleaseIDs[Hotfix] = "hot fix"
	cfg.BuildMetadataIDs.Sha = "s+h"
	cfg.TagPattern = "[broken"
	cfg.Branches[Develop] = " "

	err := cfg.Validate()
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 5)
	require.Contains(t, err.Error(), "invalid tag pattern")
	require.Contains(t, err.Error(), "develop branch name is empty")
}

func TestValidateReportsInKindOrder(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.PreReleaseIDs[Support] = "s.p"
	cfg.PreReleaseIDs[Develop] = "d.v"
	cfg.PreReleaseIDs[Hotfix] = "h.f"

	for i := 0; i < 10; i++ {
		var merr *multierror.Error
		require.ErrorAs(t, cfg.Validate(), &merr)
		require.Len(t, merr.Errors, 3)
		require.Contains(t, merr.Errors[0].Error(), "develop")
		require.Contains(t, merr.Errors[1].Error(), "hotfix")
		require.Contains(t, merr.Errors[2].Error(), "support")
	}
}

func TestValidatePreReleaseLeadingZeros(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"0", true},
		{"10", true},
		{"01", false},
		{"007", false},
		{"0a", true},
		{"nightly", true},
	}

	for _, test := range tests {
		t.Run(test.id, func(t *testing.T) {
			cfg := DefaultConfiguration()
			cfg.PreReleaseIDs[Develop] = test.id

			err := cfg.Validate()
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), "develop pre-release id")
		})
	}
}

func TestToggle(t *testing.T) {
	require.False(t, Unset.Enabled())
	require.True(t, On.Enabled())
	require.False(t, Off.Enabled())
}
