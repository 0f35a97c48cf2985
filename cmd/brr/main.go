// Package main is the entry point for brr, the BlockRun usage report tool.
// It reads daily usage logs and renders them as an HTML report, a terminal
// summary, an interactive browser or a live HTTP page.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/j-veylop/blockrun-report/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to a subcommand. A first argument that is not a known
// subcommand is treated as the log directory of the report command.
func run(args []string) error {
	name := "report"
	if len(args) > 0 {
		if _, ok := commands[args[0]]; ok {
			name, args = args[0], args[1:]
		}
	}

	env, err := setup()
	if err != nil {
		return err
	}
	if err := commands[name](env, args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return err
	}
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`brr - BlockRun usage report generator

Usage:
  brr [report] <log_dir> [output_path]   Write the HTML report (default <log_dir>/report.html)
  brr summary <log_dir> [--day DAY]      Print the report to the terminal
  brr browse <log_dir>                   Browse periods interactively
  brr watch <log_dir> [output_path]      Regenerate the report when logs change
  brr serve <log_dir> [--addr ADDR]      Serve the live report and JSON API
  brr import <log_dir>                   Archive raw records into SQLite

Flags:
  --db PATH       Read records from (or import into) the SQLite archive
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts (browse):
  1-3             Switch between tabs (Dashboard, Timeline, Info)
  Tab/Shift+Tab   Navigate between tabs
  [ / ]           Previous / next period
  j/k, Up/Down    Scroll
  r               Reload logs
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  BLOCKRUN_LOG_DIR   Default log directory
  BLOCKRUN_OUTPUT    Default report path
  DATABASE_PATH      SQLite archive path
  REPORT_THEME       pastel or neon (default: pastel)
  THEME_FILE         YAML palette overrides
  LISTEN_ADDR        Address for serve (default: 127.0.0.1:8080)
  WATCH_DEBOUNCE     Debounce for watch and serve (default: 500ms)
  REPORT_CACHE_TTL   How long serve reuses a report (default: 5m)
  NOTIFY             Desktop notification after each watch regeneration
  LOG_LEVEL          debug, info, warn or error
  LOG_FORMAT         text or json

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/blockrun/.env
  - ~/.blockrun/.env`)
}
