package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/m3rciful/demobot/core/buildinfo"
)

func TestVersionCommand(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "demobot "+buildinfo.String() {
		t.Fatalf("version = %q", got)
	}
}

func TestSubcommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"run", "migrate", "setup", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not found: %v", name, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}
