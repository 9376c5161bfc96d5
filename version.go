package flowver

import (
	"fmt"

	"github.com/blang/semver"

	"github.com/jaxxstorm/flowver/internal/log"
)

// Infer determines the version of the repository's HEAD from its branch,
// the nearest version tag and the state of the working tree.
//
// If the Maven toggle is Unset and the work tree root holds a pom.xml, it is
// switched On in opts.Config before composing.
func Infer(opts Options) (semver.Version, error) {
	version, _, err := infer(opts)
	return version, err
}

// Calculate infers the version and renders it for output.
func Calculate(opts Options) (*Result, error) {
	if opts.Config == nil {
		opts.Config = DefaultConfiguration()
	}

	version, out, err := infer(opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Version: Render(version, opts.Config),
		Kind:    out.kind,
		Branch:  out.branch,
	}, nil
}

type outcome struct {
	kind   BranchKind
	branch string
}

func infer(opts Options) (semver.Version, outcome, error) {
	if opts.Repository == nil {
		return semver.Version{}, outcome{}, fmt.Errorf("repository is required")
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfiguration()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	if err := cfg.Validate(); err != nil {
		return semver.Version{}, outcome{}, fmt.Errorf("invalid configuration: %w", err)
	}

	head, err := opts.Repository.ResolveHead()
	if err != nil {
		return semver.Version{}, outcome{}, err
	}

	branch, err := resolveBranch(opts.Repository, cfg, logger)
	if err != nil {
		return semver.Version{}, outcome{}, err
	}
	logger = logger.With("branch", branch)

	if err := detectMaven(opts.Repository, cfg, logger); err != nil {
		return semver.Version{}, outcome{}, err
	}

	l, err := newLocator(opts.Repository, cfg.TagPattern, logger)
	if err != nil {
		return semver.Version{}, outcome{}, err
	}

	in := &inference{
		repo:    opts.Repository,
		cfg:     cfg,
		logger:  logger,
		head:    head,
		branch:  branch,
		locator: l,
	}

	for _, s := range strategies {
		if !s.canInfer(cfg, branch) {
			continue
		}

		logger.Debug("applying strategy", "kind", s.kind.String())
		inferred, err := s.infer(in)
		if err != nil {
			return semver.Version{}, outcome{}, err
		}

		version, err := inferred.Build(cfg)
		if err != nil {
			return semver.Version{}, outcome{}, err
		}
		logger.Info("inferred version", "version", version.String(), "kind", s.kind.String())
		return version, outcome{kind: s.kind, branch: branch}, nil
	}

	return semver.Version{}, outcome{}, &NoApplicableStrategyError{Branch: branch}
}

func resolveBranch(repo Repository, cfg *Configuration, logger log.Logger) (string, error) {
	if cfg.ForceBranch != "" {
		logger.Debug("forcing branch name", "branch", cfg.ForceBranch)
		return cfg.ForceBranch, nil
	}
	return repo.CurrentBranchName()
}

func detectMaven(repo Repository, cfg *Configuration, logger log.Logger) error {
	if cfg.MavenCompatibility != Unset {
		return nil
	}

	found, err := repo.HasFile(MavenDescriptor)
	if err != nil {
		return fmt.Errorf("detecting %s: %w", MavenDescriptor, err)
	}
	if found {
		logger.Debug("detected Maven descriptor, enabling Maven compatibility", "file", MavenDescriptor)
		cfg.MavenCompatibility = On
	}
	return nil
}
