package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cs-go/internal/config"
	"cs-go/internal/core"
	"cs-go/internal/git"
	"cs-go/internal/store"
)

// CSApp is the application layer between the CLI and the content Service.
// It constructs all dependencies from config and manages the git worker and
// log file lifecycle on Close.
type CSApp struct {
	cfg     *config.Config
	gateway *git.Gateway
	logFile *os.File

	// Service exposes the content engine operations directly; CLI commands
	// call through it after decoding their input.
	Service *core.Service
}

// NewCSApp creates a fully wired CSApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateProject").
// The caller must call Close when done.
func NewCSApp(cfg *config.Config, operation string) (*CSApp, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("no base directory configured")
	}
	if err := os.MkdirAll(cfg.ProjectsDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating projects directory: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	gateway := git.NewGateway(git.Options{
		Binary: cfg.Git.Binary,
		LFS:    cfg.Git.LFS,
		Identity: git.Identity{
			Name:  cfg.User.Name,
			Email: cfg.User.Email,
		},
	})

	layout := store.Layout{ProjectsDir: cfg.ProjectsDir()}
	codec := store.NewCodec(cfg.Cache.Enabled)
	index := store.NewIndex(layout)

	svc := core.NewService(gateway, codec, index, layout,
		&slogAdapter{l: logger}, core.RealClock{}, core.UUIDGenerator{}, core.Version)

	return &CSApp{
		cfg:     cfg,
		gateway: gateway,
		logFile: logFile,
		Service: svc,
	}, nil
}

// Config returns the configuration the app was built from.
func (a *CSApp) Config() *config.Config { return a.cfg }

// ResolvePath turns a raw CLI path argument into an absolute path.
func (a *CSApp) ResolvePath(rawPath string) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// Close drains the git worker and closes the log file.
func (a *CSApp) Close() error {
	a.gateway.Close()
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
