package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jstable/internal/apply"
	"jstable/internal/connector"
	"jstable/internal/core"
	"jstable/internal/dialect"
	"jstable/internal/migration"
	"jstable/internal/output"
	"jstable/internal/parser"
	"jstable/internal/table"
)

// withDatabase validates the configuration, opens the database for the
// lifetime of fn and applies the configured timeout.
func (a *app) withDatabase(ctx context.Context, fn func(ctx context.Context, db connector.Connector) error) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	db, closeDB, err := a.open(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", a.cfg.Driver, err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			a.logger.Warn("failed to close database connection", zap.Error(err))
		}
	}()
	return fn(ctx, db)
}

func (a *app) newTable(name string, s *core.Schema, db connector.Connector) (*table.Table, error) {
	return table.New(name, s, table.Config{
		DB:           db,
		Schema:       a.cfg.DBSchema,
		Datetime:     a.cfg.Datetime,
		BigInt:       a.cfg.BigInt,
		DoubleFloats: a.cfg.DoubleFloats,
		Logger:       a.logger,
	})
}

// loadSchemas parses path and returns the tables to work on, referenced
// tables first. A non-empty only restricts the result to those tables.
func loadSchemas(path string, only []string) (*core.SchemaSet, []string, error) {
	ss, err := parser.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	order := ss.DependencyOrder()
	if len(only) == 0 {
		return ss, order, nil
	}
	for _, name := range only {
		if _, ok := ss.Tables.Get(name); !ok {
			return nil, nil, fmt.Errorf("table %q is not defined in %s: %w", name, path, core.ErrConfiguration)
		}
	}
	return ss, slices.DeleteFunc(order, func(name string) bool { return !slices.Contains(only, name) }), nil
}

func (a *app) write(content string) error {
	_, err := io.WriteString(a.out, content)
	return err
}

func (a *app) formatter() output.Formatter {
	// The format was checked when the configuration was loaded.
	f, _ := output.NewFormatter(a.cfg.Format)
	return f
}

func createCmd(a *app) *cobra.Command {
	var tables []string
	cmd := &cobra.Command{
		Use:   "create <schema-file>",
		Short: "Create the tables that do not exist yet",
		Long: `Create issues a guarded CREATE TABLE for every table of the schema file.
Existing tables are left untouched; run sync to change them. Tables are
created concurrently, up to --concurrency at a time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, order, err := loadSchemas(args[0], tables)
			if err != nil {
				return err
			}
			return a.withDatabase(cmd.Context(), func(ctx context.Context, db connector.Connector) error {
				return a.createTables(ctx, db, ss, order)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "Only create these tables")
	return cmd
}

func (a *app) createTables(ctx context.Context, db connector.Connector, ss *core.SchemaSet, order []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for _, name := range order {
		s, _ := ss.Tables.Get(name)
		g.Go(func() error {
			tbl, err := a.newTable(name, s, db)
			if err != nil {
				return err
			}
			if err := tbl.Create(gctx); err != nil {
				return err
			}
			a.logger.Info("table created", zap.String("table", tbl.Name()))
			return nil
		})
	}
	return g.Wait()
}

func syncCmd(a *app) *cobra.Command {
	var tables []string
	var skipReferences bool
	cmd := &cobra.Command{
		Use:   "sync <schema-file>",
		Short: "Bring existing tables in line with the schema file",
		Long: `Sync adds missing columns, widens columns, swaps primary keys and adds
unique keys for every table, referenced tables first. A second pass then adds
the foreign keys, so that every candidate key already exists when it is
referenced. Narrowing changes are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, order, err := loadSchemas(args[0], tables)
			if err != nil {
				return err
			}
			return a.withDatabase(cmd.Context(), func(ctx context.Context, db connector.Connector) error {
				return a.syncTables(ctx, db, ss, order, skipReferences)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "Only sync these tables")
	cmd.Flags().BoolVar(&skipReferences, "skip-references", false, "Do not add foreign keys")
	return cmd
}

func (a *app) syncTables(ctx context.Context, db connector.Connector, ss *core.SchemaSet, order []string, skipReferences bool) error {
	synced := make([]*table.Table, 0, len(order))
	for _, name := range order {
		s, _ := ss.Tables.Get(name)
		tbl, err := a.newTable(name, s, db)
		if err != nil {
			return err
		}
		if err := tbl.Sync(ctx, table.SyncOptions{SkipReferences: true}); err != nil {
			return err
		}
		synced = append(synced, tbl)
	}
	if !skipReferences {
		for _, tbl := range synced {
			if err := tbl.Sync(ctx, table.SyncOptions{}); err != nil {
				return err
			}
		}
	}
	a.logger.Info("tables synced", zap.Int("tables", len(synced)))
	return nil
}

func planCmd(a *app) *cobra.Command {
	var tables []string
	var outFile string
	cmd := &cobra.Command{
		Use:   "plan <schema-file>",
		Short: "Show the statements create and sync would run",
		Long: `Plan reads the live catalog and prints the statements that create and sync
would execute, without changing anything. Tables that cannot be synced are
reported as unresolved. Foreign keys towards tables that do not exist yet are
planned by the next run, once those tables are created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, order, err := loadSchemas(args[0], tables)
			if err != nil {
				return err
			}
			return a.withDatabase(cmd.Context(), func(ctx context.Context, db connector.Connector) error {
				m, err := a.planTables(ctx, db, ss, order)
				if err != nil {
					return err
				}
				content, err := a.formatter().FormatMigration(m)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				if outFile == "" {
					return a.write(content)
				}
				if err := os.WriteFile(outFile, []byte(content), 0o644); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				a.logger.Info("plan saved", zap.String("file", outFile))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "Only plan these tables")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the plan")
	return cmd
}

// planTables runs create and sync against a recorder, so catalog queries
// reach the database and DDL does not.
func (a *app) planTables(ctx context.Context, db connector.Connector, ss *core.SchemaSet, order []string) (*migration.Migration, error) {
	m := &migration.Migration{}
	for _, name := range order {
		s, _ := ss.Tables.Get(name)
		rec := connector.NewRecorder(db)
		tbl, err := a.newTable(name, s, rec)
		if err != nil {
			return nil, err
		}

		err = tbl.Sync(ctx, table.SyncOptions{})
		switch {
		case errors.Is(err, core.ErrTableNotFound):
			stmt, err := tbl.CreateStatement()
			if err != nil {
				m.AddUnresolved(name, err.Error())
				continue
			}
			m.AddStatement(name, stmt)
			if len(s.Dependencies()) > 0 {
				m.AddNote(name, "foreign keys of "+name+" are added by sync once the table exists")
			}
		case err != nil:
			m.AddUnresolved(name, err.Error())
		default:
			batches := rec.Batches()
			if len(batches) == 0 {
				m.AddNote(name, name+" is up to date")
			}
			for _, batch := range batches {
				m.AddBatch(name, batch)
			}
		}
	}
	m.Dedupe()
	return m, nil
}

func metadataCmd(a *app) *cobra.Command {
	var tables []string
	cmd := &cobra.Command{
		Use:   "metadata <schema-file>",
		Short: "Print what the database knows about the tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, _, err := loadSchemas(args[0], tables)
			if err != nil {
				return err
			}
			names := ss.Tables.Keys()
			if len(tables) > 0 {
				names = tables
			}
			return a.withDatabase(cmd.Context(), func(ctx context.Context, db connector.Connector) error {
				out := core.NewOrderedMap[*core.TableMetadata]()
				for _, name := range names {
					s, _ := ss.Tables.Get(name)
					tbl, err := a.newTable(name, s, db)
					if err != nil {
						return err
					}
					meta, err := tbl.Metadata(ctx)
					if err != nil {
						return err
					}
					out.Set(name, meta)
				}
				content, err := a.formatter().FormatMetadata(out)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				return a.write(content)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "Only read these tables")
	return cmd
}

func applyCmd(a *app) *cobra.Command {
	var opts apply.Options
	cmd := &cobra.Command{
		Use:   "apply <plan-file>",
		Short: "Run a reviewed plan",
		Long: `Apply runs the statements of a plan saved with "plan -o", in SQL or JSON
format. It performs preflight checks first:
- Warns about statements that may lock tables
- Refuses destructive statements (DROP, TRUNCATE, DELETE) without --unsafe
- With --transaction, runs the whole plan atomically when every statement allows it

Examples:
  jstable plan schema.json -o plan.sql
  jstable apply plan.sql --dry-run
  jstable apply plan.sql --transaction`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}
			opts.Out = a.out
			if a.cfg.Driver != "" {
				d, err := dialect.ParseType(a.cfg.Driver)
				if err != nil {
					return err
				}
				opts.Dialect = d
			}

			run := func(ctx context.Context, db connector.Connector) error {
				applier := apply.NewApplier(db, opts)
				statements := applier.ParseStatements(string(content))
				if len(statements) == 0 {
					return a.write("No SQL statements found in plan file\n")
				}
				return applier.Apply(ctx, statements, applier.PreflightChecks(statements, opts.Unsafe))
			}
			if opts.DryRun {
				return run(cmd.Context(), nil)
			}
			return a.withDatabase(cmd.Context(), run)
		},
	}
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "d", false, "Print statements and run preflight checks without executing")
	cmd.Flags().BoolVar(&opts.Transaction, "transaction", false, "Run the plan in a single transaction")
	cmd.Flags().BoolVar(&opts.AllowNonTransactional, "allow-non-transactional", false, "Run statement by statement when --transaction cannot be honored")
	cmd.Flags().BoolVarP(&opts.Unsafe, "unsafe", "u", false, "Allow destructive operations (DROP, TRUNCATE, etc.)")
	return cmd
}
