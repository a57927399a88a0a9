package publisher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dwg-systems/pos-updater/internal/config"
	"github.com/dwg-systems/pos-updater/internal/fsutil"
	"github.com/dwg-systems/pos-updater/internal/logger"
	"github.com/dwg-systems/pos-updater/internal/manifest"
	"github.com/dwg-systems/pos-updater/internal/service/updater"
	"github.com/dwg-systems/pos-updater/internal/version"
)

// Options contains inputs for the publisher entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// BuildPath is the directory holding the freshly built POS distribution.
	BuildPath string
	// Version is the release version recorded in the manifest.
	// Empty means the publisher's own build version.
	Version string
}

// publisher stages a build into the share and produces the release manifest.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type publisher struct {
	// cfg holds the share and executable settings.
	cfg *config.Config
	// buildPath is the directory being published.
	buildPath string
	// desc is the release manifest being assembled.
	desc *manifest.Description
}

var (
	// errUpdaterRunning indicates a publish was attempted while an update is in progress.
	errUpdaterRunning = errors.New("the updater is running now")
	// errBuildPathRequired is returned when no build directory was provided.
	errBuildPathRequired = errors.New("build path must be provided")
	// errExecutableMissing is returned when the build lacks the POS executable.
	errExecutableMissing = errors.New("build does not contain the POS executable")
)

// Run executes the publishing workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pos-publisher")

	pub, err := newPublisher(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize publisher: %w", err)
	}

	if err = pub.Run(ctx); err != nil {
		return fmt.Errorf("publisher failed: %w", err)
	}

	logger.Info(ctx, "Publisher completed successfully")

	return nil
}

// newPublisher validates inputs and prepares the manifest skeleton.
func newPublisher(ctx context.Context, opts *Options) (*publisher, error) {
	if updater.IsRunningNow(ctx) {
		return nil, errUpdaterRunning
	}

	if opts.BuildPath == "" {
		return nil, errBuildPathRequired
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	releaseVersion := strings.TrimSpace(opts.Version)
	if releaseVersion == "" {
		releaseVersion = version.Short()
	}

	executable := filepath.Join(opts.BuildPath, cfg.ExecutableName)
	if _, err = os.Stat(executable); err != nil {
		return nil, fmt.Errorf("%s: %w", executable, errExecutableMissing)
	}

	return &publisher{
		cfg:       cfg,
		buildPath: opts.BuildPath,
		desc:      manifest.NewDescription(releaseVersion, cfg.ExecutableName),
	}, nil
}

// Run stages the build and writes the release manifest at the share root.
func (p *publisher) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Staging build into the share",
		"build", p.buildPath, "share", p.cfg.SourcePath)

	if err := os.MkdirAll(p.cfg.SourcePath, manifest.DefaultFileMode); err != nil {
		return fmt.Errorf("create share directory: %w", err)
	}

	if err := fsutil.CopyTree(p.buildPath, p.cfg.SourcePath); err != nil {
		return fmt.Errorf("stage build: %w", err)
	}

	logger.Info(ctx, "Calculating release checksums")

	if err := p.fillDescription(); err != nil {
		return err
	}

	manifestPath := filepath.Join(p.cfg.SourcePath, manifest.Filename)

	logger.InfoKV(ctx, "Saving release manifest", "path", manifestPath)

	if err := p.desc.Save(manifestPath); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// fillDescription hashes every staged regular file into the manifest.
// The manifest itself is excluded: it describes the release, it is not part of it.
func (p *publisher) fillDescription() error {
	return filepath.WalkDir(p.cfg.SourcePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}

		relativePath, err := filepath.Rel(p.cfg.SourcePath, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		name := filepath.ToSlash(relativePath)
		if name == manifest.Filename {
			return nil
		}

		return p.desc.AddFile(name, path)
	})
}

// printNextSteps logs human-readable guidance for rolling out the release.
func (p *publisher) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(p.desc.Files))
	for name := range p.desc.Files {
		files = append(files, name)
	}

	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("Release ")
	builder.WriteString(p.desc.Version)
	builder.WriteString(" is staged at ")
	builder.WriteString(p.cfg.SourcePath)
	builder.WriteString(" with the following files:\n")
	builder.WriteString(strings.Join(files, ",\n"))
	builder.WriteString("\n\nTerminals running \"pos-updater watch\" will pick it up on their next check; run \"pos-updater\" on a terminal to update it immediately.")

	logger.Info(ctx, builder.String())
}
