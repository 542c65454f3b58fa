package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/brutaldon/internal/models"
	"github.com/desertthunder/brutaldon/internal/repositories"
	"github.com/desertthunder/brutaldon/internal/shared"
	tu "github.com/desertthunder/brutaldon/internal/testing"
	"github.com/urfave/cli/v3"
)

// writeConfig writes a config pointing at a database in dir and returns its path.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[database]
path = %q

[session]
secret = "0123456789abcdef0123456789abcdef"
`, filepath.Join(dir, "brutaldon.db"))

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func newTestRunner(output io.Writer) *Runner {
	return NewRunner(RunnerOpts{
		Logger: log.New(io.Discard),
		Output: output,
	})
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "brutaldon",
		Commands: r.register(),
		Writer:   io.Discard,
	}
	return app.Run(context.Background(), append([]string{"brutaldon"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout == 0 {
				t.Error("expected an http client with a timeout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		names := []string{}
		for _, c := range newTestRunner(nil).register() {
			names = append(names, c.Name)
		}

		if strings.Join(names, ",") != "serve,setup,clients,accounts" {
			t.Errorf("unexpected commands %v", names)
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("with failing writer", func(t *testing.T) {
			runner := newTestRunner(&tu.FWriter{})
			if err := runner.writePlain("hello"); err == nil {
				t.Error("expected error from failing writer")
			}
			if err := runner.writePlainln("hello"); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("with limited writer", func(t *testing.T) {
			var buf bytes.Buffer
			w := tu.NewLimitedWriter(1, 0, &buf)
			runner := newTestRunner(&w)

			if err := runner.writePlain("first"); err != nil {
				t.Fatalf("expected first write to succeed, got %v", err)
			}
			if err := runner.writePlain("second"); err == nil {
				t.Error("expected second write to fail")
			}
			if buf.String() != "first" {
				t.Errorf("expected only the first write, got %q", buf.String())
			}
		})
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		var out bytes.Buffer

		if err := run(t, newTestRunner(&out), "setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "[mastodon]") {
			t.Error("expected example config content")
		}
		if !strings.Contains(out.String(), "Config written to") {
			t.Errorf("unexpected output %q", out.String())
		}

		if err := run(t, newTestRunner(&out), "setup", "config", "--config", path); err == nil {
			t.Error("expected error when config exists")
		}
	})

	t.Run("config in working directory", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		dir := t.TempDir()
		tu.MustChdir(t, dir)

		if err := run(t, newTestRunner(io.Discard), "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	})

	t.Run("database, status and rollback", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir)

		var out bytes.Buffer
		if err := run(t, newTestRunner(&out), "setup", "status", "--config", path); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(out.String(), "applied: none") || !strings.Contains(out.String(), "pending: 0000") {
			t.Errorf("unexpected status before setup: %s", out.String())
		}

		out.Reset()
		if err := run(t, newTestRunner(&out), "setup", "database", "--config", path); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "brutaldon.db"))
		if !strings.Contains(out.String(), "Applied 1 migration(s)") {
			t.Errorf("unexpected setup output: %s", out.String())
		}

		out.Reset()
		run(t, newTestRunner(&out), "setup", "status", "--config", path)
		if !strings.Contains(out.String(), "applied: 0000") || !strings.Contains(out.String(), "pending: none") {
			t.Errorf("unexpected status after setup: %s", out.String())
		}

		out.Reset()
		if err := run(t, newTestRunner(&out), "setup", "rollback", "--config", path); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(out.String(), "Rolled back migration 0000") {
			t.Errorf("unexpected rollback output: %s", out.String())
		}

		out.Reset()
		run(t, newTestRunner(&out), "setup", "rollback", "--config", path)
		if !strings.Contains(out.String(), "No migrations to roll back") {
			t.Errorf("expected nothing left to roll back, got %s", out.String())
		}
	})
}

// seed creates the schema and one client with two accounts in the configured database.
func seed(t *testing.T, configPath string) {
	t.Helper()

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clients := repositories.NewClientRepository(db)
	accounts := repositories.NewAccountRepository(db)

	a := models.NewClient(0, "https://example.social", "client-a", "secret-aaaa")
	b := models.NewClient(0, "https://other.social", "client-b", "secret-bbbb")
	for _, c := range []*models.Client{a, b} {
		if err := clients.Create(c); err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
	}
	for _, acc := range []*models.Account{
		models.NewAccount(0, "alice@example.com", "token-alice", a.ID()),
		models.NewAccount(0, "bob@example.com", "token-bob", b.ID()),
	} {
		if err := accounts.Create(acc); err != nil {
			t.Fatalf("failed to create account: %v", err)
		}
	}
}

func TestListCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)
	seed(t, path)

	t.Run("clients table", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(t, newTestRunner(&out), "clients", "list", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"Clients (2)", "https://example.social", "https://other.social", "secr****"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected output to contain %q:\n%s", want, out.String())
			}
		}
		if strings.Contains(out.String(), "secret-aaaa") {
			t.Error("expected secrets to be masked")
		}
	})

	t.Run("clients csv revealed", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(t, newTestRunner(&out), "clients", "list", "--config", path, "--csv", "--reveal"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.HasPrefix(out.String(), "#,Instance,Client ID,Client Secret,Created\n") {
			t.Errorf("expected CSV header, got %s", out.String())
		}
		if !strings.Contains(out.String(), "secret-aaaa") {
			t.Error("expected revealed secret")
		}
	})

	t.Run("accounts", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(t, newTestRunner(&out), "accounts", "list", "--config", path, "--csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, want := range []string{"alice@example.com,https://example.social,toke****", "bob@example.com,https://other.social"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected output to contain %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("accounts by instance", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(t, newTestRunner(&out), "accounts", "list", "--config", path, "--csv", "--instance", "Other.Social"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if strings.Contains(out.String(), "alice") || !strings.Contains(out.String(), "bob@example.com") {
			t.Errorf("expected only bob, got %s", out.String())
		}
	})

	t.Run("accounts by unknown instance", func(t *testing.T) {
		err := run(t, newTestRunner(io.Discard), "accounts", "list", "--config", path, "--instance", "nowhere.social")
		if err == nil || !strings.Contains(err.Error(), "not_found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("handler", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}

		handler, err := newTestRunner(io.Discard).newHandler(shared.DefaultConfig(), db)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected login page, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
			t.Errorf("expected redirect to login, got %d %s", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("handler with unreachable instance", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		shared.RunMigrations(db)

		runner := NewRunner(RunnerOpts{
			Logger:     log.New(io.Discard),
			Output:     io.Discard,
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
		})
		handler, err := runner.newHandler(shared.DefaultConfig(), db)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		form := url.Values{"instance": {"example.social"}, "username": {"alice@example.com"}, "password": {"hunter2"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if n, _ := repositories.NewClientRepository(db).List(nil); len(n) != 0 {
			t.Errorf("expected no stored clients, got %d", len(n))
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		os.WriteFile(path, []byte("[session]\nsecret = \"short\"\n"), 0600)

		err := run(t, newTestRunner(io.Discard), "serve", "--config", path)
		if err == nil || !strings.Contains(err.Error(), "session.secret") {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})

	t.Run("refuses the example session secret", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "config.toml")

		err := run(t, newTestRunner(io.Discard), "serve", "--config", missing)
		if !errors.Is(err, shared.ErrInvalidConfig) || !strings.Contains(err.Error(), "example") {
			t.Errorf("expected the built-in secret to be refused, got %v", err)
		}
	})
}
