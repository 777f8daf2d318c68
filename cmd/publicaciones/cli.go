package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/eia/publicaciones/internal/auth"
	"github.com/eia/publicaciones/internal/config"
	"github.com/eia/publicaciones/internal/logging"
	"github.com/eia/publicaciones/internal/postings"
	"github.com/eia/publicaciones/internal/session"
	"github.com/eia/publicaciones/internal/tui"
	"github.com/eia/publicaciones/pkg/client"
)

// options are the process-level dependencies of the CLI.
type options struct {
	out    io.Writer
	errOut io.Writer
	prompt prompter
	// interactive reports whether prompts and the TUI may be used.
	interactive bool
}

func defaultOptions() options {
	return options{
		out:         os.Stdout,
		errOut:      os.Stderr,
		prompt:      surveyPrompter{io: DefaultSurveyIO},
		interactive: isTerminal(os.Stdin),
	}
}

// isTerminal reports whether f is attached to a terminal. Piped or redirected
// input disables prompts and the TUI.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// cli holds what every command needs once configuration is loaded.
type cli struct {
	opts       options
	configPath string
	apiURL     string

	cfg    config.Config
	logger *slog.Logger
	closer io.Closer
	store  *session.FileStore
	api    *client.Client
	flow   *auth.Flow
	ctrl   *postings.Controller
}

func run(ctx context.Context, args []string, opts options) error {
	c := &cli{opts: opts}
	defer c.close()

	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(opts.out)
	root.SetErr(opts.errOut)
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "publicaciones",
		Short: "Cliente de terminal para las publicaciones de puestos de la EIA",
		Long: `publicaciones lets members of the EIA community register, log in, and
manage job postings from the terminal. Without a subcommand it opens the
interactive interface.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.runTUI,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.publicaciones/config.yaml)")
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides config)")

	root.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.listCommand(),
		c.createCommand(),
		c.updateCommand(),
		c.deleteCommand(),
		versionCommand(),
	)
	return root
}

// setup loads configuration and wires the client stack.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = logger.With("cmd", cmd.Name())

	c.cfg = cfg
	c.logger = logger
	c.closer = closer
	c.store = session.NewFileStore(cfg.SessionPath, logger)
	c.api = client.New(cfg.APIURL, "", cfg.Timeout, logger)
	c.flow = auth.NewFlow(c.api, c.store, cfg.EmailDomain, logger)
	c.ctrl = postings.NewController(c.api, c.store, logger)
	logger.Debug("configured", "api_url", cfg.APIURL, "session", cfg.SessionPath)
	return nil
}

func (c *cli) close() {
	if c.closer != nil {
		c.closer.Close() //nolint:errcheck
	}
}

func (c *cli) runTUI(cmd *cobra.Command, _ []string) error {
	if !c.opts.interactive {
		return errors.New("la interfaz interactiva requiere una terminal")
	}
	app := tui.NewApp(c.flow, c.ctrl, c.logger).WatchSession(cmd.Context(), c.store.Path())
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "publicaciones "+version)
		},
	}
}
