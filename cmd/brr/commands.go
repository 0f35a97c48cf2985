package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/j-veylop/blockrun-report/internal/app"
	"github.com/j-veylop/blockrun-report/internal/config"
	"github.com/j-veylop/blockrun-report/internal/db"
	"github.com/j-veylop/blockrun-report/internal/loader"
	"github.com/j-veylop/blockrun-report/internal/logger"
	"github.com/j-veylop/blockrun-report/internal/server"
	"github.com/j-veylop/blockrun-report/internal/services"
	"github.com/j-veylop/blockrun-report/internal/services/report"
	"github.com/j-veylop/blockrun-report/internal/services/watch"
	"github.com/j-veylop/blockrun-report/internal/ui/components"
	"github.com/j-veylop/blockrun-report/internal/ui/tabs/dashboard"
	"github.com/j-veylop/blockrun-report/internal/ui/tabs/info"
	"github.com/j-veylop/blockrun-report/internal/ui/tabs/timeline"
)

const (
	summaryWidth       = 100
	summaryChartHeight = 10
)

var errMissingLogDir = errors.New("missing <log_dir> (or set BLOCKRUN_LOG_DIR)")

// env is what every subcommand starts from.
type env struct {
	cfg *config.Config
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"report":  runReport,
	"summary": runSummary,
	"browse":  runBrowse,
	"watch":   runWatch,
	"serve":   runServe,
	"import":  runImport,
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return &env{cfg: cfg}, nil
}

// parseArgs parses flags that may appear before, between or after the
// positional arguments and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// logDir returns the directory named on the command line, falling back to
// BLOCKRUN_LOG_DIR.
func (e *env) logDir(positional []string) string {
	if len(positional) > 0 {
		e.cfg.LogDir = positional[0]
	}
	return e.cfg.LogDir
}

// manager builds the pipeline over the archive when dbPath is set and over
// the log directory otherwise.
func (e *env) manager(dir, dbPath string, notify bool) (*services.Manager, error) {
	var src loader.Source
	switch {
	case dbPath != "":
		archive, err := db.New(dbPath)
		if err != nil {
			return nil, err
		}
		src = archive
	case dir != "":
		src = loader.NewDirectory(dir)
	default:
		return nil, errMissingLogDir
	}

	opts := services.OptionsFromConfig(e.cfg)
	opts.Renderer = report.New()
	opts.Notify = notify && e.cfg.Notify
	return services.NewManager(src, opts), nil
}

func closeManager(mgr *services.Manager) {
	if err := mgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
	}
}

func runReport(e *env, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	dbPath := fs.String("db", "", "read records from the SQLite archive")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	dir := e.logDir(positional)
	mgr, err := e.manager(dir, *dbPath, false)
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	out := e.cfg.ReportPath()
	if len(positional) > 1 {
		out = positional[1]
	}

	rep, err := mgr.WriteHTML(out)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s (%d records, %d days)\n", out, rep.Records, len(rep.Days))
	return nil
}

func runSummary(e *env, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	dbPath := fs.String("db", "", "read records from the SQLite archive")
	day := fs.String("day", "", "also print one day (YYYY-MM-DD)")
	width := fs.Int("width", summaryWidth, "output width in columns")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	mgr, err := e.manager(e.logDir(positional), *dbPath, false)
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	rep, err := mgr.Generate()
	if err != nil {
		return err
	}

	sections := []services.Section{rep.Global}
	if *day != "" {
		sec, ok := rep.Find("day-" + *day)
		if !ok {
			return fmt.Errorf("no usage log for day %s", *day)
		}
		sections = append(sections, sec)
	}

	palette := mgr.Mapper().Palette(rep.Theme)
	for _, sec := range sections {
		fmt.Println(components.Summary(components.PeriodView{
			Heading: sec.Heading(),
			Bundle:  sec.Bundle,
			Palette: palette,
			Width:   *width,
		}, summaryChartHeight))
	}
	return nil
}

func runBrowse(e *env, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	dbPath := fs.String("db", "", "read records from the SQLite archive")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	mgr, err := e.manager(e.logDir(positional), *dbPath, false)
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	// Log lines would tear the alternate screen.
	logger.Setup(e.cfg.LogLevel, e.cfg.LogFormat, io.Discard)

	model := app.NewModel(mgr)
	state := model.State()
	model.SetTabs([]app.Tab{
		dashboard.New(state),
		timeline.New(state),
		info.New(state, e.cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func runWatch(e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	dir := e.logDir(positional)
	mgr, err := e.manager(dir, "", true)
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	out := e.cfg.ReportPath()
	if len(positional) > 1 {
		out = positional[1]
	}

	// An empty directory is fine: the first usage file triggers a build.
	if _, err := mgr.WriteHTML(out); err != nil {
		if !errors.Is(err, loader.ErrNoUsageFiles) {
			return err
		}
		logger.Warn("no usage files yet", "dir", dir)
	}

	w, err := watch.New(dir, e.cfg.WatchDebounce, func(paths []string) {
		logger.Info("usage logs changed", "files", len(paths))
		if _, err := mgr.WriteHTML(out); err != nil {
			logger.Error("failed to regenerate report", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	fmt.Printf("Watching %s, writing %s (Ctrl+C to stop)\n", w.Dir(), out)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Type == watch.EventChanged {
				logger.Debug("changed files", "paths", ev.Paths)
			}
		}
	}
}

func runServe(e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	dbPath := fs.String("db", "", "read records from the SQLite archive")
	addr := fs.String("addr", e.cfg.ListenAddr, "listen address")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	dir := e.logDir(positional)
	mgr, err := e.manager(dir, *dbPath, false)
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	srv, err := server.New(mgr, report.New(), server.Options{CacheTTL: e.cfg.CacheTTL})
	if err != nil {
		return err
	}
	defer srv.Close()

	if *dbPath == "" {
		w, err := watch.New(dir, e.cfg.WatchDebounce, func([]string) { srv.Invalidate() })
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx, *addr)
}

func runImport(e *env, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dbPath := fs.String("db", e.cfg.DatabasePath, "SQLite archive to import into")
	vacuum := fs.Bool("vacuum", false, "compact the archive after importing")
	history := fs.Int("history", 0, "list the most recent N imports")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	dir := e.logDir(positional)
	if dir == "" {
		return errMissingLogDir
	}

	archive, err := db.New(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	run, err := archive.Import(loader.NewDirectory(dir), uuid.NewString())
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	logger.Info("import finished", "run", run.RunID, "inserted", run.Inserted, "skipped", run.Skipped)
	fmt.Printf("Imported %d of %d records from %d days into %s\n", run.Inserted, run.Total(), run.Days, archive.Path())

	if *vacuum {
		if err := archive.Vacuum(); err != nil {
			return fmt.Errorf("vacuum failed: %w", err)
		}
	}

	total, err := archive.CountRecords()
	if err != nil {
		return err
	}
	fmt.Printf("Archive now holds %d records\n", total)

	if *history > 0 {
		runs, err := archive.GetRecentImports(*history)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("  %s  %-36s  +%d  (%d duplicates)  %s\n",
				r.Timestamp.Format("2006-01-02 15:04"), r.RunID, r.Inserted, r.Skipped, r.Source)
		}
	}
	return nil
}
