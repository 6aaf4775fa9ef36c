package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/sundvall/ordna/internal/config"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("ORDNA_DEV_MODE", "false")
	os.Exit(m.Run())
}

// fakeProgram represents fake program data used by this package.
type fakeProgram struct {
	runErr error
}

// Run runs the requested command flow.
func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// useFakeProgram swaps the tea program factory for the test's lifetime.
func useFakeProgram(t *testing.T, p program) {
	t.Helper()
	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	programFactory = func(_ tea.Model) program { return p }
}

// writeBoardConfig writes the minimum startup fields run() requires.
func writeBoardConfig(t *testing.T, path string, extra string) {
	t.Helper()
	content := `
[api]
base_url = "https://api.example.test"
` + extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// TestRunVersion verifies behavior for the covered scenario.
func TestRunVersion(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--version"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.Contains(out.String(), "ordna") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

// TestRunStartsProgram verifies behavior for the covered scenario.
func TestRunStartsProgram(t *testing.T) {
	useFakeProgram(t, fakeProgram{})

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	cachePath := filepath.Join(t.TempDir(), "cache.db")
	writeBoardConfig(t, cfgPath, "")

	err := run(context.Background(), []string{"--config", cfgPath, "--cache", cachePath}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, statErr := os.Stat(cachePath); statErr != nil {
		t.Fatalf("snapshot cache not created: %v", statErr)
	}
}

// TestRunProgramErrorSurfaces verifies behavior for the covered scenario.
func TestRunProgramErrorSurfaces(t *testing.T) {
	useFakeProgram(t, fakeProgram{runErr: fmt.Errorf("terminal gone")})

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeBoardConfig(t, cfgPath, "")

	err := run(context.Background(), []string{"--config", cfgPath, "--cache", filepath.Join(t.TempDir(), "cache.db")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "terminal gone") {
		t.Fatalf("run() error = %v, want program failure", err)
	}
}

// TestRunInvalidFlag verifies behavior for the covered scenario.
func TestRunInvalidFlag(t *testing.T) {
	if err := run(context.Background(), []string{"--nope"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected flag parse error")
	}
}

// TestRunUnknownCommand verifies behavior for the covered scenario.
func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"frobnicate"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("run() error = %v, want unknown command", err)
	}
}

// TestRunRequiresBaseURL verifies behavior for the covered scenario.
func TestRunRequiresBaseURL(t *testing.T) {
	err := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "api.base_url") {
		t.Fatalf("run() error = %v, want base_url guidance", err)
	}
}

// TestRunPathsCommand verifies behavior for the covered scenario.
func TestRunPathsCommand(t *testing.T) {
	var out strings.Builder
	err := run(context.Background(), []string{"--app", "ordna-test", "paths"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	for _, want := range []string{"app: ordna-test", "config:", "data_dir:", "cache:"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("paths output missing %q:\n%s", want, out.String())
		}
	}
}

// TestRunConfigAndCacheEnvOverrides verifies behavior for the covered scenario.
func TestRunConfigAndCacheEnvOverrides(t *testing.T) {
	useFakeProgram(t, fakeProgram{})

	cfgPath := filepath.Join(t.TempDir(), "env-config.toml")
	cachePath := filepath.Join(t.TempDir(), "env-cache.db")
	writeBoardConfig(t, cfgPath, "")
	t.Setenv("ORDNA_CONFIG", cfgPath)
	t.Setenv("ORDNA_CACHE_PATH", cachePath)

	if err := run(context.Background(), nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, statErr := os.Stat(cachePath); statErr != nil {
		t.Fatalf("env cache path not used: %v", statErr)
	}
}

// TestRunServeShutsDownOnCancelledContext verifies behavior for the covered scenario.
func TestRunServeShutsDownOnCancelledContext(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeBoardConfig(t, cfgPath, `
[serve]
addr = "127.0.0.1:0"
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, []string{"--config", cfgPath, "--cache", filepath.Join(t.TempDir(), "cache.db"), "serve"}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run(serve) error = %v, want graceful shutdown", err)
	}
}

// TestRunRejectsInvalidLoggingLevelFromConfig verifies behavior for the covered scenario.
func TestRunRejectsInvalidLoggingLevelFromConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeBoardConfig(t, cfgPath, `
[logging]
level = "chatty"
`)

	err := run(context.Background(), []string{"--config", cfgPath, "--cache", filepath.Join(t.TempDir(), "cache.db")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "logging level") {
		t.Fatalf("run() error = %v, want logging level failure", err)
	}
}

// TestRunDevModeWritesWorkspaceLogFile verifies behavior for the covered scenario.
func TestRunDevModeWritesWorkspaceLogFile(t *testing.T) {
	useFakeProgram(t, fakeProgram{})

	logDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	writeBoardConfig(t, cfgPath, fmt.Sprintf(`
[logging.dev_file]
enabled = true
dir = %q
`, logDir))

	err := run(context.Background(), []string{"--config", cfgPath, "--cache", filepath.Join(t.TempDir(), "cache.db"), "--dev"}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	entries, readErr := os.ReadDir(logDir)
	if readErr != nil {
		t.Fatalf("ReadDir() error = %v", readErr)
	}
	if len(entries) == 0 {
		t.Fatal("expected a dev log file in the configured dir")
	}
	if !strings.HasSuffix(entries[0].Name(), ".log") {
		t.Fatalf("unexpected dev log file name %q", entries[0].Name())
	}
}

// TestParseBoolEnv verifies parsing behavior for boolean environment toggles.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("ORDNA_TEST_BOOL", "true")
	if got, ok := parseBoolEnv("ORDNA_TEST_BOOL"); !ok || !got {
		t.Fatalf("parseBoolEnv(true) = %t, %t", got, ok)
	}
	t.Setenv("ORDNA_TEST_BOOL", "not-a-bool")
	if _, ok := parseBoolEnv("ORDNA_TEST_BOOL"); ok {
		t.Fatal("invalid boolean should not parse")
	}
	t.Setenv("ORDNA_TEST_BOOL", "")
	if _, ok := parseBoolEnv("ORDNA_TEST_BOOL"); ok {
		t.Fatal("empty value should not parse")
	}
}

// TestWorkspaceRootFromUsesNearestMarker verifies workspace marker resolution.
func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if got := workspaceRootFrom(nested); got != root {
		t.Fatalf("workspaceRootFrom() = %q, want %q", got, root)
	}
	if got := workspaceRootFrom(""); got != "." {
		t.Fatalf("workspaceRootFrom(empty) = %q, want .", got)
	}
}

// TestDevLogFilePathUsesConfiguredDir verifies dev log file naming.
func TestDevLogFilePathUsesConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	got, err := devLogFilePath(dir, "Ordna Dev", at)
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	want := filepath.Join(dir, "ordna-dev-20260830.log")
	if got != want {
		t.Fatalf("devLogFilePath() = %q, want %q", got, want)
	}
}

// TestSanitizeLogFileStem verifies app name normalization.
func TestSanitizeLogFileStem(t *testing.T) {
	cases := map[string]string{
		"":           "ordna",
		"Ordna":      "ordna",
		"my app/v2":  "my-app-v2",
		"board_2026": "board_2026",
	}
	for in, want := range cases {
		if got := sanitizeLogFileStem(in); got != want {
			t.Fatalf("sanitizeLogFileStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRuntimeLoggerCanMuteConsoleSink verifies TUI-mode console muting.
func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var buf strings.Builder
	logger, err := newRuntimeLogger(&buf, "ordna", false, config.LoggingConfig{Level: "info"}, time.Now)
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("visible event")
	if !strings.Contains(buf.String(), "visible event") {
		t.Fatalf("console sink missed event: %q", buf.String())
	}

	logger.SetConsoleEnabled(false)
	before := buf.Len()
	logger.Info("muted event")
	if buf.Len() != before {
		t.Fatalf("muted console sink still wrote: %q", buf.String()[before:])
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
