package cli

import (
	"path/filepath"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := map[string]bool{"serve": false, "attach": false, "status": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	_, ctx := newRootCommand()

	cfg, err := ctx.loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Process.Command) != 2 || cfg.Process.Command[0] != "pros" {
		t.Fatalf("command = %v", cfg.Process.Command)
	}
}

func TestLoadConfigMissingFileFails(t *testing.T) {
	root, ctx := newRootCommand()
	if err := root.PersistentFlags().Set("file", filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	if _, err := ctx.loadConfig(); err == nil {
		t.Fatal("expected missing config file to fail")
	}
}
