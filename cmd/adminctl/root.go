package main

import (
	"fmt"
	"io"

	"github.com/simp-lee/logger"
	"github.com/spf13/cobra"

	"github.com/simp-lee/catalogadmin/internal/client"
	"github.com/simp-lee/catalogadmin/internal/config"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// rootOptions holds the global flags and the state built from them before
// any subcommand runs.
type rootOptions struct {
	configPath string
	baseURL    string
	clientSide bool
	pageSize   int
	verbose    bool

	cfg    *config.ClientConfig
	client *client.Client
	logger *logger.Logger
	errOut io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Manage catalog lists from the command line",
		Long: `adminctl lists, filters, exports and bulk-edits the catalog resources
served by the admin dashboard.

Settings are read from the config file and ADMINCTL__* environment variables;
flags override both.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE:  opts.setup,
		PersistentPostRunE: opts.teardown,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultClientConfigPath(), "Config file path")
	flags.StringVar(&opts.baseURL, "base-url", "", "Dashboard base URL (overrides config)")
	flags.BoolVar(&opts.clientSide, "client-side", false, "Fetch every matching row and paginate locally")
	flags.IntVar(&opts.pageSize, "page-size", 0, "Rows per page (overrides config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests and state changes")

	cmd.AddCommand(
		newResourceCmd(opts, resource.Brands()),
		newResourceCmd(opts, resource.Categories()),
		newResourceCmd(opts, resource.Products()),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadClient(o.configPath)
	if err != nil {
		return err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.pageSize != 0 {
		cfg.PageSize = o.pageSize
	}
	if o.clientSide {
		cfg.Pagination = listview.ClientDriven.String()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c, err := client.FromConfig(cfg)
	if err != nil {
		return err
	}

	o.errOut = cmd.ErrOrStderr()
	o.logger, err = newCLILogger(o.errOut, o.verbose)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.client = c
	return nil
}

func (o *rootOptions) teardown(*cobra.Command, []string) error {
	if o.logger == nil {
		return nil
	}
	return o.logger.Close()
}

// newCLILogger logs plain text to w: warnings and errors by default, debug
// output with --verbose.
func newCLILogger(w io.Writer, verbose bool) (*logger.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	noColor := false
	opts := config.BuildLoggerOpts(&config.LogConfig{Level: level, Format: "text", Color: &noColor})
	return logger.New(append(opts, logger.WithConsoleWriter(w))...)
}

func (o *rootOptions) mode() listview.PaginationMode {
	mode, err := listview.ParsePaginationMode(o.cfg.Pagination)
	if err != nil {
		return listview.ServerDriven
	}
	return mode
}

// notify prints engine notifications to stderr, keeping stdout for data.
func (o *rootOptions) notify(kind listview.NotifyKind, message string) {
	fmt.Fprintf(o.errOut, "%s: %s\n", kind, message)
}
