// Package setup implements the interactive first-run wizard: it asks for the
// bot token, writes .env and creates the runtime directories.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"

	"github.com/m3rciful/demobot/core/database"
)

// EnvFile is the file the wizard writes.
const EnvFile = ".env"

// Dirs are created next to .env.
var Dirs = []string{"logs", "data"}

var tokenPattern = regexp.MustCompile(`^[0-9]+:[A-Za-z0-9_-]{20,}$`)

// ErrAborted is returned when the user declines to continue.
var ErrAborted = errors.New("setup: aborted")

// Answers holds what the wizard collected.
type Answers struct {
	Token     string
	Driver    string
	LogFormat string
	Overwrite bool
}

// Prompter fills in answers. exists reports whether .env is already present.
type Prompter func(ctx context.Context, a *Answers, exists bool) error

// Options configures Run.
type Options struct {
	// Dir is the project directory; empty means the working directory.
	Dir    string
	Prompt Prompter
	Out    io.Writer
}

// ValidateToken checks the shape of a BotFather token.
func ValidateToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	if !tokenPattern.MatchString(token) {
		return errors.New("token must look like 123456:ABC-DEF...")
	}
	return nil
}

// Env renders the answers as .env entries.
func (a Answers) Env() map[string]string {
	env := map[string]string{"BOT_TOKEN": strings.TrimSpace(a.Token)}
	if a.Driver != "" {
		env["DB_DRIVER"] = a.Driver
	}
	if a.LogFormat != "" {
		env["LOG_FORMAT"] = a.LogFormat
	}
	return env
}

// Run executes the wizard.
func Run(ctx context.Context, opts Options) error {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	prompt := opts.Prompt
	if prompt == nil {
		prompt = FormPrompter
	}

	envPath := filepath.Join(dir, EnvFile)
	_, statErr := os.Stat(envPath)
	exists := statErr == nil

	a := Answers{Driver: database.DriverSQLite, LogFormat: "kv"}
	if err := prompt(ctx, &a, exists); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}

	if exists && !a.Overwrite {
		fmt.Fprintln(out, "⏩ Keeping the existing .env")
	} else {
		if err := ValidateToken(a.Token); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		if err := WriteEnv(envPath, a.Env()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ Wrote %s\n", envPath)
	}

	created, err := CreateDirs(dir, Dirs...)
	if err != nil {
		return err
	}
	for _, d := range Dirs {
		if slices.Contains(created, d) {
			fmt.Fprintf(out, "   ✅ Created directory: %s\n", d)
		} else {
			fmt.Fprintf(out, "   ⏩ Directory already exists: %s\n", d)
		}
	}
	fmt.Fprintln(out, "\n🎉 Setup complete. Start the bot with: demobot run")
	return nil
}

// WriteEnv merges values into the .env file at path, keeping unrelated
// entries that are already there.
func WriteEnv(path string, values map[string]string) error {
	env := map[string]string{}
	existing, err := godotenv.Read(path)
	switch {
	case err == nil:
		env = existing
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("setup: read %s: %w", path, err)
	}
	for k, v := range values {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("setup: write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

// CreateDirs creates dirs under root and returns the ones that did not exist.
func CreateDirs(root string, dirs ...string) ([]string, error) {
	var created []string
	for _, d := range dirs {
		p := filepath.Join(root, d)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return created, fmt.Errorf("setup: create %s: %w", p, err)
		}
		created = append(created, d)
	}
	return created, nil
}

// FormPrompter asks the questions in the terminal.
func FormPrompter(ctx context.Context, a *Answers, exists bool) error {
	if exists {
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(".env already exists. Overwrite it?").
				Value(&a.Overwrite),
		))
		if err := confirm.RunWithContext(ctx); err != nil {
			return err
		}
		if !a.Overwrite {
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("🤖 demobot setup").
				Description("Get a token from @BotFather:\n1. Open Telegram and find @BotFather\n2. Send /newbot\n3. Follow the instructions\n4. Copy the token"),
			huh.NewInput().
				Title("🔑 Bot token").
				EchoMode(huh.EchoModePassword).
				Validate(ValidateToken).
				Value(&a.Token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage").
				Options(
					huh.NewOption("SQLite file (data/bot.db)", database.DriverSQLite),
					huh.NewOption("PostgreSQL (DB_* variables)", database.DriverPostgres),
					huh.NewOption("In memory", database.DriverMemory),
				).
				Value(&a.Driver),
			huh.NewSelect[string]().
				Title("Log format").
				Options(huh.NewOptions("kv", "json")...).
				Value(&a.LogFormat),
		),
	)
	return form.RunWithContext(ctx)
}
