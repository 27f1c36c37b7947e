// Package cli implements the mcpconf command line.
//
// Commands are thin: they parse arguments, call core.Manager and print the
// result. Errors are mapped to exit codes in one place, ExitCode.
package cli

import (
	"fmt"
	"io"
	"os"

	"mcpconf/internal/config"
	"mcpconf/internal/core"
	"mcpconf/internal/logging"
	"mcpconf/internal/merge"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	project   string
	scope     string
	debug     bool
	assistant string
	settings  string
}

// app carries the per-invocation state built in the root pre-run.
type app struct {
	version string
	out     io.Writer
	errOut  io.Writer
	opts    globalOptions

	logger  *logging.AppLogger
	cfg     *config.Config
	manager *core.Manager
}

// NewRootCmd builds the command tree writing to out and errOut.
func NewRootCmd(version string, out, errOut io.Writer) *cobra.Command {
	a := &app{version: version, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "mcpconf",
		Short: "Manage MCP server configuration for AI coding assistants",
		Long: `mcpconf keeps a catalog of MCP server cards, turns them into server
entries in the assistant's settings (global scope) or the project's .mcp.json
(project scope), and stores per-project variable values in .mcp.env.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				a.logger.Close()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.project, "project", "p", "", "project directory (default: working directory)")
	flags.StringVarP(&a.opts.scope, "scope", "s", string(merge.ScopeProject), "settings scope: global or project")
	flags.BoolVar(&a.opts.debug, "debug", os.Getenv("DEBUG") != "", "enable debug logging")
	flags.StringVar(&a.opts.assistant, "assistant", "", "assistant whose global settings to manage (claude, cursor, gemini-cli, windsurf)")
	flags.StringVar(&a.opts.settings, "settings", "", "path of the global settings file")

	root.AddCommand(
		a.cardsCmd(),
		a.listCmd(),
		a.addCmd(),
		a.removeCmd(),
		a.reconfigureCmd(),
		a.validateCmd(),
		a.recommendCmd(),
		a.envCmd(),
		a.statusCmd(),
		a.doctorCmd(),
		a.serveCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	root := NewRootCmd(version, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		return ExitCode(err)
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	lipgloss.SetColorProfile(termenv.NewOutput(a.out).EnvColorProfile())

	logger, err := logging.New(logging.Options{
		Debug:  a.opts.debug,
		File:   os.Getenv("MCPCONF_LOG_FILE"),
		Output: a.errOut,
	})
	if err != nil {
		return err
	}
	a.logger = logger

	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}
	if a.opts.assistant != "" || a.opts.settings != "" {
		path, err := core.SettingsPathFor(a.opts.assistant, a.opts.settings)
		if err != nil {
			return err
		}
		cfg.SettingsPath = path
	}
	a.cfg = cfg

	logger.Debug("Running command", "command", cmd.CommandPath())
	logger.DebugObject("config", *cfg)
	return nil
}

// mgr builds the manager on first use so commands that do not need the
// catalog stay cheap.
func (a *app) mgr() (*core.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}
	m, err := core.NewManager(a.cfg, a.logger, core.Options{ProjectDir: a.opts.project})
	if err != nil {
		return nil, err
	}
	a.manager = m
	return m, nil
}

func (a *app) scope() (merge.Scope, error) {
	return merge.ParseScope(a.opts.scope)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
