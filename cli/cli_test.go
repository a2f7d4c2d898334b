package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.nightjar.dev/fable/msg"
	"go.nightjar.dev/fable/store"
	"go.nightjar.dev/fable/world"
)

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Failed to parse: %s.", err)
	}
	if cfg.Message != "start" {
		t.Errorf("Message = %q, want start.", cfg.Message)
	}
	if cfg.CachePages != store.DefaultCachePages {
		t.Errorf("CachePages = %d.", cfg.CachePages)
	}
	if cfg.MaxSteps != msg.DefaultMaxSteps {
		t.Errorf("MaxSteps = %d.", cfg.MaxSteps)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q.", cfg.LogLevel)
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]string{"-m", "weather", "-verb", "12", "-steps", "100", "story.msg"})
	if err != nil {
		t.Fatalf("Failed to parse: %s.", err)
	}
	if cfg.Message != "weather" {
		t.Errorf("Message = %q.", cfg.Message)
	}
	if cfg.Verb != 12 {
		t.Errorf("Verb = %d.", cfg.Verb)
	}
	if cfg.MaxSteps != 100 {
		t.Errorf("MaxSteps = %d.", cfg.MaxSteps)
	}
	if cfg.Story != "story.msg" {
		t.Errorf("Story = %q.", cfg.Story)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for name, args := range map[string][]string{
		"unknown flag":    {"-frobnicate", "1"},
		"missing value":   {"-m"},
		"bad number":      {"-steps", "many"},
		"two stories":     {"a.msg", "b.msg"},
		"missing cfgfile": {"-c"},
	} {
		if _, err := Parse(args); err == nil {
			t.Errorf("Parse with %s did not fail.", name)
		}
	}
}

func TestParseConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fable.yaml")
	if err := os.WriteFile(path, []byte("message: weather\nverb: 7\nmax_steps: 9\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %s.", err)
	}

	cfg, err := Parse([]string{"-c", path})
	if err != nil {
		t.Fatalf("Failed to parse: %s.", err)
	}
	if cfg.Message != "weather" || cfg.Verb != 7 || cfg.MaxSteps != 9 {
		t.Errorf("Config file not applied: %+v.", cfg)
	}
}

func TestFlagsWinOverConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fable.yaml")
	if err := os.WriteFile(path, []byte("message: weather\nverb: 7\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %s.", err)
	}

	cfg, err := Parse([]string{"-c", path, "-m", "verbs"})
	if err != nil {
		t.Fatalf("Failed to parse: %s.", err)
	}
	if cfg.Message != "verbs" {
		t.Errorf("Message = %q, want the flag to win.", cfg.Message)
	}
	if cfg.Verb != 7 {
		t.Errorf("Verb = %d, want 7 from the file.", cfg.Verb)
	}
}

func TestStartAddress(t *testing.T) {
	t.Parallel()

	addrs := map[string]int{"start": 0, "weather": 40}

	for message, want := range map[string]int{"weather": 40, "123": 123} {
		cfg := Config{Message: message}
		got, err := cfg.StartAddress(addrs)
		if err != nil {
			t.Errorf("StartAddress(%q) failed: %s.", message, err)
			continue
		}
		if got != want {
			t.Errorf("StartAddress(%q) = %d, want %d.", message, got, want)
		}
	}

	cfg := Config{Message: "ghost"}
	if _, err := cfg.StartAddress(addrs); err == nil {
		t.Error("StartAddress with an unknown name did not fail.")
	}
}

func TestDemoStoryRuns(t *testing.T) {
	t.Parallel()

	// An empty story path selects the bundled demo script.
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Failed to parse: %s.", err)
	}
	ps, addrs, err := cfg.OpenStore(nil)
	if err != nil {
		t.Fatalf("Failed to open the demo store: %s.", err)
	}
	addr, err := cfg.StartAddress(addrs)
	if err != nil {
		t.Fatalf("Failed to resolve the start message: %s.", err)
	}

	out := &strings.Builder{}
	w := world.New(out, cfg.Verb, nil)
	m := msg.New(ps, w, nil)

	res := m.ExecuteMessage(context.Background(), addr)
	if res.Reason != msg.EndOfMessage {
		t.Fatalf("Demo finished with %s after %d steps.", res.Reason, res.Steps)
	}
	if !strings.Contains(out.String(), "gatehouse") {
		t.Errorf("Demo output lacks the opening line: %q.", out.String())
	}
	// The gatehouse door starts shut and the script notes it.
	if !strings.Contains(out.String(), "shut fast") {
		t.Errorf("Demo output lacks the door branch: %q.", out.String())
	}
}

func TestLoadStoryScriptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mini.fable")
	if err := os.WriteFile(path, []byte(".msg start\n\"ok\"\n.end\n"), 0o644); err != nil {
		t.Fatalf("Failed to write script: %s.", err)
	}

	cfg := Config{Story: path, Message: "start"}
	data, addrs, err := cfg.LoadStory()
	if err != nil {
		t.Fatalf("Failed to load script: %s.", err)
	}
	if len(data) == 0 {
		t.Error("Loaded script encoded to nothing.")
	}
	if _, ok := addrs["start"]; !ok {
		t.Error("No address table entry for start.")
	}
}

func TestLoadStoryRawFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "story.msg")
	raw := []byte{0xa5, 0xa5, 1, 2, 3}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("Failed to write story: %s.", err)
	}

	cfg := Config{Story: path}
	data, addrs, err := cfg.LoadStory()
	if err != nil {
		t.Fatalf("Failed to load story: %s.", err)
	}
	if addrs != nil {
		t.Error("Raw story files have no address table.")
	}
	if len(data) != len(raw) {
		t.Errorf("Loaded %d bytes, want %d.", len(data), len(raw))
	}
}
