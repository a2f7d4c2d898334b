// Package cli provides the flag and config-file handling shared by the
// fable cmds.
package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"go.nightjar.dev/fable/asm"
	"go.nightjar.dev/fable/assets"
	"go.nightjar.dev/fable/msg"
	"go.nightjar.dev/fable/store"
)

// Config is the merged result of defaults, an optional YAML file and
// the command line. The YAML keys match the field tags.
type Config struct {
	Story   string `yaml:"story"`   // story file (.msg) or script (.fable); empty selects the bundled demo
	Message string `yaml:"message"` // start message: a name for scripts, a numeric address otherwise

	CachePages int `yaml:"cache_pages"`
	MaxSteps   int `yaml:"max_steps"`
	MaxDepth   int `yaml:"max_depth"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Verb is the current input-verb code the reference host answers
	// to by-word case blocks.
	Verb int `yaml:"verb"`
}

func defaults() Config {
	return Config{
		Message:    "start",
		CachePages: store.DefaultCachePages,
		MaxSteps:   msg.DefaultMaxSteps,
		MaxDepth:   msg.MaxCallDepth,
		LogLevel:   "info",
	}
}

// Parse merges defaults, the YAML file named by -c (if any) and the
// remaining flags. The single positional argument is the story path.
func Parse(args []string) (Config, error) {
	cfg := defaults()

	// Find and load the config file first so flags win over it.
	for i := 0; i < len(args); i++ {
		if args[i] != "-c" {
			continue
		}
		if i+1 >= len(args) {
			return cfg, fmt.Errorf("-c wants a file")
		}
		data, err := os.ReadFile(args[i+1])
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	intFlag := func(name, value string) (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s flag: %q", name, value)
		}
		return n, nil
	}

	positional := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			if positional != "" {
				return cfg, fmt.Errorf("more than one story given: %q and %q", positional, arg)
			}
			positional = arg
			cfg.Story = arg
			continue
		}
		if i+1 >= len(args) {
			return cfg, fmt.Errorf("%s wants a value", arg)
		}
		value := args[i+1]
		i++
		var err error
		switch arg {
		case "-c":
			// Already handled.
		case "-m":
			cfg.Message = value
		case "-verb":
			cfg.Verb, err = intFlag(arg, value)
		case "-cache":
			cfg.CachePages, err = intFlag(arg, value)
		case "-steps":
			cfg.MaxSteps, err = intFlag(arg, value)
		case "-depth":
			cfg.MaxDepth, err = intFlag(arg, value)
		case "-log":
			cfg.LogLevel = value
		case "-logfile":
			cfg.LogFile = value
		default:
			return cfg, fmt.Errorf("unknown flag %q", arg)
		}
		if err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// LoadStory resolves the configured story to its encoded pages plus the
// message address table (nil for pre-encoded story files, which only
// support numeric start addresses).
func (c Config) LoadStory() ([]byte, map[string]int, error) {
	script := assets.DemoScript
	name := "demo.fable"

	if c.Story != "" {
		data, err := os.ReadFile(c.Story)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read story %q: %w", c.Story, err)
		}
		if !strings.HasSuffix(c.Story, ".fable") {
			return data, nil, nil
		}
		script, name = string(data), c.Story
	}

	story, err := asm.Compile(name, script)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile %q: %w", name, err)
	}
	data, err := story.Encode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %q: %w", name, err)
	}
	addrs, err := story.Addresses()
	if err != nil {
		return nil, nil, err
	}
	return data, addrs, nil
}

// OpenStore loads the story and wraps it in a paged store.
func (c Config) OpenStore(logger *slog.Logger) (*store.PagedStore, map[string]int, error) {
	data, addrs, err := c.LoadStory()
	if err != nil {
		return nil, nil, err
	}
	ps, err := store.New(bytes.NewReader(data), c.CachePages, logger)
	if err != nil {
		return nil, nil, err
	}
	return ps, addrs, nil
}

// StartAddress resolves the configured start message against the
// address table: by name when the table has one, numerically otherwise.
func (c Config) StartAddress(addrs map[string]int) (int, error) {
	if addr, ok := addrs[c.Message]; ok {
		return addr, nil
	}
	addr, err := strconv.Atoi(c.Message)
	if err != nil {
		return 0, fmt.Errorf("unknown start message %q", c.Message)
	}
	return addr, nil
}
