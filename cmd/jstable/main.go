// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jstable/internal/config"
	"jstable/internal/connector"
	"jstable/internal/connector/mssql"
	"jstable/internal/connector/postgres"
	"jstable/internal/output"
)

// opener opens the database named by cfg. The returned func closes it.
type opener func(ctx context.Context, cfg *config.Config) (connector.Connector, func() error, error)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
	open   opener
}

func openDatabase(ctx context.Context, cfg *config.Config) (connector.Connector, func() error, error) {
	switch cfg.Driver {
	case config.DriverMSSQL:
		c, err := mssql.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		c, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// globalFlags mirror the config fields; a flag set on the command line wins
// over the environment.
type globalFlags struct {
	envFile      string
	driver       string
	dsn          string
	dbSchema     string
	bigInt       bool
	doubleFloats bool
	datetime     bool
	format       string
	timeout      time.Duration
	concurrency  int
	verbose      bool
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", "", "Read environment variables from this file (default .env when present)")
	pf.StringVar(&f.driver, "driver", "", "Database driver: mssql or postgres (env JSTABLE_DRIVER)")
	pf.StringVar(&f.dsn, "dsn", "", "Database connection string (env JSTABLE_DSN)")
	pf.StringVar(&f.dbSchema, "db-schema", "", "Database schema holding the tables (default dbo or public)")
	pf.BoolVar(&f.bigInt, "bigint", false, "Map integers to 64-bit columns")
	pf.BoolVar(&f.doubleFloats, "double-floats", false, "Map numbers without decimals to double precision")
	pf.BoolVar(&f.datetime, "datetime", false, "Use the legacy DATETIME type on SQL Server")
	pf.StringVarP(&f.format, "format", "f", "", "Output format: sql, json or summary")
	pf.DurationVar(&f.timeout, "timeout", 0, "Timeout for the whole command")
	pf.IntVar(&f.concurrency, "concurrency", 0, "Tables created in parallel")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log every statement and catalog query")
}

// apply copies the flags set on the command line over cfg.
func (f *globalFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = strings.ToLower(strings.TrimSpace(f.driver))
	}
	if flags.Changed("dsn") {
		cfg.DSN = f.dsn
	}
	if flags.Changed("db-schema") {
		cfg.DBSchema = f.dbSchema
	}
	if flags.Changed("bigint") {
		cfg.BigInt = f.bigInt
	}
	if flags.Changed("double-floats") {
		cfg.DoubleFloats = f.doubleFloats
	}
	if flags.Changed("datetime") {
		cfg.Datetime = f.datetime
	}
	if flags.Changed("format") {
		cfg.Format = f.format
	}
	if flags.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
}

func newRootCmd(a *app) *cobra.Command {
	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:   "jstable",
		Short: "Create and sync SQL tables from JSON Schema table descriptions",
		Long: `jstable compiles JSON Schema (or TOML) table descriptions into DDL for
SQL Server and PostgreSQL. It creates missing tables, widens existing columns,
keeps primary and unique keys in line and adds the foreign keys that can be
resolved. It never narrows a column and never drops data.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var envFiles []string
			if flags.envFile != "" {
				envFiles = append(envFiles, flags.envFile)
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if _, err := output.NewFormatter(cfg.Format); err != nil {
				return err
			}
			a.cfg = cfg

			if a.logger == nil {
				logger, err := newLogger(cfg.Verbose)
				if err != nil {
					return fmt.Errorf("create logger: %w", err)
				}
				a.logger = logger
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags.register(rootCmd)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.AddCommand(
		createCmd(a),
		syncCmd(a),
		planCmd(a),
		metadataCmd(a),
		applyCmd(a),
	)
	return rootCmd
}

func main() {
	a := &app{out: os.Stdout, errOut: os.Stderr, open: openDatabase}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}
