package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/jaxxstorm/flowver"
	"github.com/jaxxstorm/flowver/internal/log"
)

// Version will be set by build process
var Version = "dev"

const (
	exitUsage              = 1
	exitError              = 2
	exitNoCommits          = 3
	exitUndeterminedBranch = 4
	exitNoStrategy         = 5
)

type CLI struct {
	Path        string `arg:"" optional:"" help:"Directory inside the Git repository (default: current directory)"`
	Branch      string `short:"b" help:"Force branch name, e.g. for a detached HEAD in CI"`
	Snapshot    bool   `short:"s" help:"Use a SNAPSHOT suffix instead of pre-release and build metadata"`
	Maven       bool   `short:"m" xor:"maven" help:"Maven compatible versions (build metadata joined with '.')"`
	NoMaven     bool   `xor:"maven" help:"Disable Maven compatibility even when pom.xml is present"`
	LogLevel    string `short:"l" default:"error" help:"Log level: TRACE|DEBUG|INFO|WARN|ERROR"`
	Config      string `short:"c" help:"TOML configuration file (default: <repo>/.flowver.toml)"`
	TagPattern  string `help:"Regex pattern to filter tags (e.g., '^sdk/')"`
	JSON        bool   `short:"j" help:"Output as JSON"`
	ShowVersion bool   `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("flowver"),
		kong.Description("Infer a semantic version from Gitflow branch, nearest tag and working tree state"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Exit(func(code int) {
			if code != 0 {
				code = exitUsage
			}
			os.Exit(code)
		}),
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		return c.showVersion()
	}

	return c.calculateVersion()
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "flowver",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("flowver version %s\n", Version)
	return nil
}

func (c *CLI) calculateVersion() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger := log.NewText(os.Stderr, level)

	repoPath := c.Path
	if repoPath == "" {
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	repo, err := flowver.OpenRepository(repoPath)
	if err != nil {
		return fmt.Errorf("opening repository at %s: %w", repoPath, err)
	}

	cfg, err := c.configuration(repo)
	if err != nil {
		return err
	}

	result, err := flowver.Calculate(flowver.Options{
		Repository: repo,
		Config:     cfg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Println(result.Version)
	return nil
}

// configuration layers git-flow's git config, then the TOML file, then flags.
func (c *CLI) configuration(repo *flowver.GitRepository) (*flowver.Configuration, error) {
	cfg := flowver.DefaultConfiguration()
	cfg.RepositoryRoot = repo.Root()

	overrides, err := repo.BranchOverrides()
	if err != nil {
		return nil, err
	}
	cfg.ApplyBranchOverrides(overrides)

	if err := cfg.LoadFile(c.Config); err != nil {
		return nil, err
	}

	if c.Branch != "" {
		cfg.ForceBranch = c.Branch
	}
	if c.Snapshot {
		cfg.UseSnapshot = true
	}
	switch {
	case c.Maven:
		cfg.MavenCompatibility = flowver.On
	case c.NoMaven:
		cfg.MavenCompatibility = flowver.Off
	}
	if c.TagPattern != "" {
		cfg.TagPattern = c.TagPattern
	}

	return cfg, nil
}

func exitCode(err error) int {
	var noStrategy *flowver.NoApplicableStrategyError
	switch {
	case errors.Is(err, flowver.ErrNoCommits):
		return exitNoCommits
	case errors.Is(err, flowver.ErrUndeterminedBranch):
		return exitUndeterminedBranch
	case errors.As(err, &noStrategy):
		return exitNoStrategy
	default:
		return exitError
	}
}
