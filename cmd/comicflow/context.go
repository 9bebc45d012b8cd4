package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"comicflow/internal/assembly"
	"comicflow/internal/capability"
	"comicflow/internal/config"
	"comicflow/internal/evaluation"
	"comicflow/internal/generation"
	"comicflow/internal/logging"
	"comicflow/internal/planning"
	"comicflow/internal/workflow"
)

// commandContext carries the persistent flags and the lazily loaded config
// shared by every subcommand.
type commandContext struct {
	configFlag      *string
	projectRootFlag *string

	once       sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, projectRootFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, projectRootFlag: projectRootFlag}
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// ensureConfig loads the configuration once per process.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() { c.configErr = c.load() })
	return c.config, c.configErr
}

// load reads the project .env first so COMICFLOW_* fallbacks in the config
// see its values.
func (c *commandContext) load() error {
	root, err := c.projectRoot()
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(root); err != nil {
		return err
	}
	cfg, resolved, exists, err := config.Load(flagValue(c.configFlag))
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	c.config, c.configPath, c.configSeen = cfg, resolved, exists
	return nil
}

// projectRoot is --project-root when set, otherwise the working directory.
func (c *commandContext) projectRoot() (string, error) {
	root := flagValue(c.projectRootFlag)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	return abs, nil
}

// resolvePath interprets path relative to the project root.
func (c *commandContext) resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if filepath.IsAbs(path) {
		return path, nil
	}
	root, err := c.projectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, path), nil
}

// logger builds the process logger; callers close the returned closer when
// the command finishes.
func (c *commandContext) logger() (*slog.Logger, io.Closer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return logging.NewFromConfig(cfg)
}

func (c *commandContext) registry() (*capability.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return capability.FromConfig(cfg), nil
}

func (c *commandContext) stageSet(logger *slog.Logger) (workflow.StageSet, error) {
	registry, err := c.registry()
	if err != nil {
		return workflow.StageSet{}, err
	}
	return workflow.StageSet{
		Planner:   planning.NewPlanner(logger),
		Generator: generation.NewGenerator(registry, nil, logger),
		Assembler: assembly.NewAssembler(logger),
		Evaluator: evaluation.NewEvaluator(logger),
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
