package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/secops/internal/config"
	"github.com/JonMunkholm/secops/internal/core"
	"github.com/JonMunkholm/secops/internal/logging"
	"github.com/JonMunkholm/secops/internal/storage"
)

// errRowsFailed makes a commit with row errors exit non-zero after printing its result.
var errRowsFailed = errors.New("some rows failed")

type rootOptions struct {
	envFile  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "importer",
		Short: "Bulk import of anagraphic records",
		Long: `Anagraphic bulk importer

Reconciles spreadsheet rows, exported as JSON, against the stored
records of one kind: preview classifies every row without writing,
commit inserts new records and updates changed ones.

` + config.Usage(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&opts.envFile, "env-file", "e", ".env", "Path to .env file")
	root.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(opts, core.ModePreview),
		newRunCmd(opts, core.ModeCommit),
		newMigrateCmd(opts),
		newKindsCmd(),
	)
	return root
}

// setup loads the environment and configuration and routes logs to stderr,
// keeping stdout for command output.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", o.envFile, err)
	}

	// help and kinds need no database
	switch cmd.Name() {
	case "kinds", "help":
		logging.SetupWriter(cmd.ErrOrStderr(), o.logLevel, "text")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	o.cfg = cfg
	return nil
}

func newRunCmd(opts *rootOptions, mode core.Mode) *cobra.Command {
	var kind, file string

	short := "Classify rows without writing"
	if mode == core.ModeCommit {
		short = "Insert new rows and update changed ones"
	}

	cmd := &cobra.Command{
		Use:   string(mode),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), file, kind, mode)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := storage.OpenPool(ctx, opts.cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := core.NewService(storage.NewPostgresStore(pool), opts.cfg.Import)
			return execute(ctx, svc, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Record kind (overrides recordKind in the file)")
	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON file with a row array or a full request ("-" for stdin)`)
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// execute runs req and prints the preview report or commit result as JSON.
func execute(ctx context.Context, svc *core.Service, req core.Request, out io.Writer) error {
	outcome, err := svc.Run(ctx, req)
	if err != nil {
		return errors.New(core.FormatUserError(err) + ": " + err.Error())
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if outcome.Mode == core.ModeCommit {
		if err := enc.Encode(outcome.Result); err != nil {
			return err
		}
		slog.Info(outcome.Result.Message)
		if outcome.Result.HasErrors() {
			return fmt.Errorf("%w: %d of %d", errRowsFailed, outcome.Result.Errors, len(req.Rows))
		}
		return nil
	}

	return enc.Encode(outcome.Preview)
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.RunMigrations(opts.cfg.Database.URL)
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the importable record kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printKinds(cmd.OutOrStdout(), core.All())
		},
	}
}

func printKinds(out io.Writer, defs []core.KindDefinition) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTABLE\tGROUP\tFIELDS\tREFERENCES")
	for _, def := range defs {
		refs := "-"
		for i, fk := range def.ForeignKeys {
			if i == 0 {
				refs = ""
			} else {
				refs += ","
			}
			refs += string(fk.References)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", def.Info.Kind, def.Info.Table, def.Info.Group, len(def.FieldSpecs), refs)
	}
	return tw.Flush()
}
