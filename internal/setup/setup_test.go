package setup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
)

const validToken = "123456:ABCdefGHIjklMNOpqrSTUvwxYZ_12345"

func answer(a Answers) Prompter {
	return func(_ context.Context, dst *Answers, _ bool) error {
		*dst = a
		return nil
	}
}

func TestValidateToken(t *testing.T) {
	cases := []struct {
		token string
		ok    bool
	}{
		{validToken, true},
		{" " + validToken, true},
		{"", false},
		{"not-a-token", false},
		{"123:short", false},
	}
	for _, tc := range cases {
		if err := ValidateToken(tc.token); (err == nil) != tc.ok {
			t.Errorf("ValidateToken(%q) = %v", tc.token, err)
		}
	}
}

func TestRunWritesEnvAndDirs(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	err := Run(context.Background(), Options{
		Dir:    dir,
		Out:    &out,
		Prompt: answer(Answers{Token: validToken, Driver: "sqlite", LogFormat: "json"}),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	env, err := godotenv.Read(filepath.Join(dir, EnvFile))
	if err != nil {
		t.Fatal(err)
	}
	if env["BOT_TOKEN"] != validToken || env["DB_DRIVER"] != "sqlite" || env["LOG_FORMAT"] != "json" {
		t.Fatalf("env = %v", env)
	}
	for _, d := range Dirs {
		if st, err := os.Stat(filepath.Join(dir, d)); err != nil || !st.IsDir() {
			t.Errorf("dir %s missing", d)
		}
	}
	if !strings.Contains(out.String(), "Created directory: logs") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunKeepsExistingEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, EnvFile)
	if err := os.WriteFile(path, []byte("BOT_TOKEN=old\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Run(context.Background(), Options{Dir: dir, Out: &out, Prompt: answer(Answers{})}); err != nil {
		t.Fatalf("run: %v", err)
	}
	env, _ := godotenv.Read(path)
	if env["BOT_TOKEN"] != "old" {
		t.Fatalf("env overwritten: %v", env)
	}
	if !strings.Contains(out.String(), "already exists: logs") {
		t.Errorf("output = %q", out.String())
	}
}

func TestWriteEnvMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), EnvFile)
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\nBOT_TOKEN=old\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteEnv(path, map[string]string{"BOT_TOKEN": validToken}); err != nil {
		t.Fatal(err)
	}
	env, _ := godotenv.Read(path)
	if env["LOG_LEVEL"] != "debug" || env["BOT_TOKEN"] != validToken {
		t.Fatalf("env = %v", env)
	}
}

func TestRunRejectsBadToken(t *testing.T) {
	dir := t.TempDir()
	err := Run(context.Background(), Options{Dir: dir, Out: &bytes.Buffer{}, Prompt: answer(Answers{Token: "nope"})})
	if err == nil {
		t.Fatal("expected token error")
	}
	if _, statErr := os.Stat(filepath.Join(dir, EnvFile)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal(".env must not be written")
	}
}
