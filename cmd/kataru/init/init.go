// Package initcmder provides the init command for initializing a local .kataru
// directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/kataru/pkg/config"
)

const (
	dirName = ".kataru"

	// fetchTimeout bounds remote preset downloads.
	fetchTimeout = 30 * time.Second
)

const initLongDesc string = `Initialize a new .kataru/ directory in the current working directory.

Creates a local .kataru/ directory that takes precedence over the default
~/.kataru/ directory for save slots, the snapshot archive and configuration.
A config.toml is written from the defaults or from --preset, which accepts a
preset name (dev, ci) or an http(s) URL to a config.toml.

With --example, a starter story is written to the configured story path
unless something already exists there.

Examples:
  kataru init
  kataru init --preset ci
  kataru init --preset https://example.com/kataru.toml
  kataru init --example`

const initShortDesc string = "Initialize a local .kataru/ directory"

type initCommander struct {
	preset  string
	example bool
	out     io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Preset name ("+strings.Join(config.ValidPresetNames(), ", ")+") or URL of a config.toml")
	cmd.Flags().BoolVar(&cmder.example, "example", false, "Write a starter story")

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .kataru directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	cfg, err := c.resolveConfig(cfger, existed)
	if err != nil {
		return err
	}
	if cfg != nil {
		if err := cfger.SaveConfig(cfg); err != nil {
			return err
		}
	}

	if existed {
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
	} else {
		fmt.Fprintf(c.out, "Initialized .kataru directory: %s\n", dir)
	}

	if c.example {
		if cfg == nil {
			if cfg, err = cfger.LoadConfig(); err != nil {
				return err
			}
		}
		path, err := writeExample(cfg.Story.Path)
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(c.out, "Wrote starter story: %s\n", path)
		}
	}

	return nil
}

// resolveConfig returns the config to write, or nil to keep the existing file.
func (c *initCommander) resolveConfig(cfger *config.Configer, existed bool) (*config.Config, error) {
	switch {
	case c.preset == "":
		if existed {
			if _, err := os.Stat(cfger.GetTarget()); err == nil {
				return nil, nil
			}
		}
		return config.NewDefaultConfig(), nil

	case strings.HasPrefix(c.preset, "http://") || strings.HasPrefix(c.preset, "https://"):
		return fetchConfig(c.preset)

	default:
		return config.PresetConfig(c.preset)
	}
}

func fetchConfig(url string) (*config.Config, error) {
	client := &http.Client{Timeout: fetchTimeout}

	resp, err := client.Get(url) //nolint:noctx // one-shot CLI fetch bounded by the client timeout
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}

const exampleStory = `start: Intro
namespaces:
  global:
    state:
      visits: 0
    passages:
      Intro:
        - set: [{var: visits, op: "+=", value: 1}]
        - Guide: Welcome to <b>kataru</b>. You have been here ${visits} time(s).
        - choices:
            options:
              - {caption: "Look around", target: Look}
              - {caption: "Leave", target: Leave}
      Look:
        - command:
            name: play_sound
            params:
              name: chime
        - A quiet room. Nothing moves.
        - goto: Intro
      Leave:
        - Guide: Come back soon.
        - end
`

// writeExample writes the starter story under storyPath. A directory path
// gets main.yml inside it. Returns "" when something already exists there.
func writeExample(storyPath string) (string, error) {
	path := storyPath
	if ext := filepath.Ext(storyPath); ext != ".yml" && ext != ".yaml" {
		path = filepath.Join(storyPath, "main.yml")
	}

	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking story path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating story directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleStory), 0o644); err != nil { //nolint:gosec // story sources are meant to be shared
		return "", fmt.Errorf("writing starter story: %w", err)
	}

	return path, nil
}
