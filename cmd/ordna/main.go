package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sundvall/ordna/internal/adapters/remote"
	"github.com/sundvall/ordna/internal/adapters/server"
	"github.com/sundvall/ordna/internal/adapters/storage/sqlite"
	"github.com/sundvall/ordna/internal/app"
	"github.com/sundvall/ordna/internal/config"
	"github.com/sundvall/ordna/internal/domain"
	"github.com/sundvall/ordna/internal/platform"
	"github.com/sundvall/ordna/internal/tui"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// main handles main.
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// boardService wires the store, the transition service, and the optional
// snapshot cache into the single surface the TUI and MCP adapters consume.
type boardService struct {
	store  *app.Store
	moves  *app.TransitionService
	cache  app.SnapshotCache
	logger *runtimeLogger
}

// Load refreshes the store from upstream and persists the snapshot on
// success. A superseded load is passed through untouched.
func (s *boardService) Load(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.SaveSnapshot(ctx, s.store.Orders(), s.store.TaskGroups()); err != nil {
			s.logger.Warn("snapshot save failed", "err", err)
		}
	}
	return nil
}

// Orders returns the current order list.
func (s *boardService) Orders() []domain.Order {
	return s.store.Orders()
}

// TaskGroups returns the current workflow groups.
func (s *boardService) TaskGroups() []domain.TaskGroup {
	return s.store.TaskGroups()
}

// Get resolves one order by canonical id.
func (s *boardService) Get(id string) (domain.Order, bool) {
	return s.store.Get(id)
}

// Move delegates to the transition service.
func (s *boardService) Move(ctx context.Context, orderID, targetTask string) app.MoveResult {
	return s.moves.Move(ctx, orderID, targetTask)
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("ordna", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		cachePath  string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("ORDNA_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("ORDNA_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = "ordna"
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&cachePath, "cache", "", "path to sqlite snapshot cache")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "ordna %s\n", version)
		return nil
	}

	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "cache: %s\n", paths.CachePath)
		return nil
	case "", "serve":
		// Continue.
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	cacheOverridden := strings.TrimSpace(cachePath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("ORDNA_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !cacheOverridden {
		if envPath := strings.TrimSpace(os.Getenv("ORDNA_CACHE_PATH")); envPath != "" {
			cachePath = envPath
			cacheOverridden = true
		} else {
			cachePath = paths.CachePath
		}
	}

	defaultCfg := config.Default(cachePath)
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if cacheOverridden {
		cfg.Cache.Path = cachePath
	}
	if envToken := strings.TrimSpace(os.Getenv("ORDNA_API_TOKEN")); envToken != "" {
		cfg.API.Token = envToken
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is not configured; set it in %s", configPath)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config %q: %w", configPath, err)
	}

	logger, err := newRuntimeLogger(stderr, appName, devMode, cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "" {
		// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the board is active.
		logger.SetConsoleEnabled(false)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && logger.shouldLogToSink(logger.consoleSink) {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "cache_path", cfg.Cache.Path)
	logger.Info("configuration loaded", "config_path", configPath, "api_base_url", cfg.API.BaseURL, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	client, err := remote.NewClient(remote.Config{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		PageLimit: cfg.API.PageLimit,
		Timeout:   cfg.APITimeout(),
	})
	if err != nil {
		logger.Error("api client configuration failed", "api_base_url", cfg.API.BaseURL, "err", err)
		return fmt.Errorf("configure api client: %w", err)
	}
	logger.Debug("api client ready", "api_base_url", cfg.API.BaseURL, "page_limit", cfg.API.PageLimit)

	store := app.NewStore(client)

	var cache app.SnapshotCache
	if cfg.Cache.Enabled {
		logger.Info("opening snapshot cache", "cache_path", cfg.Cache.Path)
		sqliteCache, err := sqlite.Open(cfg.Cache.Path)
		if err != nil {
			logger.Error("snapshot cache open failed", "cache_path", cfg.Cache.Path, "err", err)
			return fmt.Errorf("open snapshot cache: %w", err)
		}
		defer func() {
			if closeErr := sqliteCache.Close(); closeErr != nil {
				logger.Warn("snapshot cache close failed", "cache_path", cfg.Cache.Path, "err", closeErr)
			}
		}()
		cache = sqliteCache

		orders, groups, err := sqliteCache.LoadSnapshot(ctx)
		if err != nil {
			logger.Warn("snapshot load failed; starting cold", "cache_path", cfg.Cache.Path, "err", err)
		} else if len(orders) > 0 || len(groups) > 0 {
			store.Seed(orders, groups)
			logger.Info("board seeded from snapshot", "orders", len(orders), "groups", len(groups))
		}
	}

	session := app.Session{
		DisplayName: cfg.Viewer.DisplayName,
		Role:        app.Role(strings.ToLower(strings.TrimSpace(cfg.Viewer.Role))),
	}

	switch command {
	case "serve":
		logger.Info("command flow start", "command", "serve")
		// Serve mode has no modal UI; tool calls carry their own intent, so
		// confirmation prompts auto-approve for admin sessions.
		moves := app.NewTransitionService(store, client, session,
			app.ConfirmFunc(func(string) bool { return true }), uuid.NewString, time.Now)
		board := &boardService{store: store, moves: moves, cache: cache, logger: logger}
		if err := board.Load(ctx); err != nil && !errors.Is(err, app.ErrSuperseded) {
			logger.Warn("initial load failed; serving seeded state", "err", err)
		}
		serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := server.Run(serveCtx, server.Config{
			HTTPBind:      cfg.Serve.Addr,
			MCPEndpoint:   cfg.Serve.EndpointPath,
			ServerName:    appName,
			ServerVersion: version,
			AdminViewer:   session.IsAdmin(),
		}, board); err != nil {
			logger.Error("command flow failed", "command", "serve", "err", err)
			return fmt.Errorf("run serve command: %w", err)
		}
		logger.Info("command flow complete", "command", "serve")
		return nil

	case "":
		logger.Info("command flow start", "command", "tui")
	}

	bridge := &tui.ConfirmBridge{}
	moves := app.NewTransitionService(store, client, session, bridge, uuid.NewString, time.Now)
	board := &boardService{store: store, moves: moves, cache: cache, logger: logger}

	m := tui.NewModel(
		board,
		tui.WithSession(session),
		tui.WithBoardOptions(app.BoardOptions{
			Sort:          app.SortKey(strings.ToLower(strings.TrimSpace(cfg.Board.Sort))),
			IncludeCancel: cfg.Board.IncludeCancel,
			SingleColumn:  cfg.Board.SingleColumn,
		}),
		tui.WithTouchMode(cfg.Board.TouchMode),
		tui.WithConfirmBridge(bridge),
	)
	logger.Info("starting tui program loop")
	_, err = programFactory(m).Run()
	if err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return parsed, true
}

// runtimeLogger fans runtime events out to console and optional dev-file sinks.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil {
		return false
	}
	if sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Debug(msg, keyvals...)
	}
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Info(msg, keyvals...)
	}
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Warn(msg, keyvals...)
	}
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Error(msg, keyvals...)
	}
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(configDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = ".ordna/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	fileStem := sanitizeLogFileStem(appName)
	fileName := fmt.Sprintf("%s-%s.log", fileStem, now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// workspaceRootFrom resolves the nearest ancestor workspace marker for stable local log placement.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// hasWorkspaceMarker reports whether a directory looks like a project workspace root.
func hasWorkspaceMarker(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	return false
}

// sanitizeLogFileStem normalizes the app name into a safe log file stem.
func sanitizeLogFileStem(appName string) string {
	stem := strings.ToLower(strings.TrimSpace(appName))
	if stem == "" {
		return "ordna"
	}
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
