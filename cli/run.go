package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ladzaretti/chatmigrate/catalog"
	"github.com/ladzaretti/chatmigrate/checksum"
	"github.com/ladzaretti/chatmigrate/clierror"
	"github.com/ladzaretti/chatmigrate/genericclioptions"
	"github.com/ladzaretti/chatmigrate/input"
	"github.com/ladzaretti/chatmigrate/migrateerrors"
	"github.com/ladzaretti/chatmigrate/migration"
	"github.com/ladzaretti/chatmigrate/report"
	"github.com/ladzaretti/chatmigrate/source/sqlite"
	"github.com/ladzaretti/chatmigrate/target/mariadb"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var nowFunc = time.Now

// RunOptions holds the flags and resolved state of the run command.
type RunOptions struct {
	*genericclioptions.StdioOptions

	defaults *DefaultChatmigrateOptions
	flags    *pflag.FlagSet

	sqlitePath     string
	host           string
	port           int
	user           string
	password       string
	passwordStdin  bool
	schema         string
	reportPath     string
	dryRun         bool
	truncateTarget bool
	batchSize      int
	catalogPath    string
	algorithm      checksum.Algorithm

	resolved *ResolvedConfig
	catalog  *catalog.Catalog
	migrator *migration.Migrator
}

var _ genericclioptions.CmdOptions = &RunOptions{}

func NewRunOptions(defaults *DefaultChatmigrateOptions) *RunOptions {
	return &RunOptions{
		StdioOptions: defaults.StdioOptions,
		defaults:     defaults,
	}
}

func (o *RunOptions) changed(name string) bool {
	return o.flags != nil && o.flags.Changed(name)
}

// Complete merges flags over the config file over built-in defaults,
// resolves the password and builds the migrator.
//
//nolint:revive
func (o *RunOptions) Complete() error {
	fc, err := LoadFileConfig(o.defaults.configPath)
	if err != nil {
		return err
	}

	r := newResolvedConfig(fc)

	if o.changed("sqlite-path") {
		r.SQLitePath = o.sqlitePath
	}

	if o.changed("mariadb-host") {
		r.Host = o.host
	}

	if o.changed("mariadb-port") {
		r.Port = o.port
	}

	if o.changed("mariadb-user") {
		r.User = o.user
	}

	if o.changed("mariadb-password") {
		r.Password = o.password
	}

	if o.changed("mariadb-schema") {
		r.Schema = o.schema
	}

	if o.changed("report-path") {
		r.ReportPath = o.reportPath
	}

	if o.changed("batch-size") {
		r.BatchSize = o.batchSize
	}

	if o.changed("catalog") {
		r.Catalog = o.catalogPath
	}

	if o.changed("checksum") {
		r.Checksum = string(o.algorithm)
	}

	r.ReportPath = cmp.Or(r.ReportPath, report.DefaultPath(nowFunc()))

	algo, err := checksum.ParseAlgorithm(r.Checksum)
	if err != nil {
		return err
	}

	o.algorithm = algo

	c, err := loadCatalog(r.Catalog)
	if err != nil {
		return err
	}

	o.catalog = c
	o.resolved = r

	if !o.dryRun {
		if err := o.resolvePassword(); err != nil {
			return err
		}
	}

	m, err := migration.New(migration.Options{
		Catalog:        o.catalog,
		Algorithm:      o.algorithm,
		DryRun:         o.dryRun,
		TruncateTarget: o.truncateTarget,
		OpenTarget:     o.openTarget,
		Logger:         o.IOStreams,
	})
	if err != nil {
		return err
	}

	o.migrator = m

	return nil
}

func (o *RunOptions) resolvePassword() error {
	r := o.resolved

	switch {
	case o.passwordStdin:
		p, err := input.ReadLine(o.In)
		if err != nil {
			return err
		}

		if p == "" {
			return fmt.Errorf("%w: --password-stdin received no input", migrateerrors.ErrMissingPassword)
		}

		r.Password = p
	case r.Password == "" && !o.NonInteractive:
		p, err := input.PromptPassword(o.ErrOut, int(o.In.Fd()), r.User, r.Host) //nolint:gosec
		if err != nil {
			return err
		}

		r.Password = string(p)
	case r.Password == "":
		o.Debugf("No MariaDB password configured; connecting without one.\n")
	}

	return nil
}

func (o *RunOptions) Validate() error {
	if o.resolved.SQLitePath == "" {
		return errors.New("run: --sqlite-path must not be empty")
	}

	if o.passwordStdin && o.changed("mariadb-password") {
		return errors.New("run: --mariadb-password and --password-stdin are mutually exclusive")
	}

	if o.resolved.BatchSize < 1 {
		return errors.New("run: --batch-size must be a positive integer")
	}

	if o.resolved.Port < 1 || o.resolved.Port > 65535 {
		return errors.New("run: --mariadb-port must be between 1 and 65535")
	}

	return nil
}

func (o *RunOptions) openTarget(ctx context.Context) (migration.Target, error) {
	r := o.resolved

	cfg := mariadb.Config{
		Host:      r.Host,
		Port:      r.Port,
		User:      r.User,
		Password:  r.Password,
		Schema:    r.Schema,
		BatchSize: r.BatchSize,
	}

	o.Debugf("Connecting to %s\n", cfg.Redacted())

	w, err := mariadb.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return w, nil
}

func (o *RunOptions) Run(ctx context.Context, _ ...string) (retErr error) {
	r := o.resolved

	src, err := sqlite.Open(ctx, r.SQLitePath)
	if errors.Is(err, migrateerrors.ErrSourceNotFound) {
		return err
	}

	rep := report.New(report.Options{
		DryRun:         o.dryRun,
		TruncateTarget: o.truncateTarget,
		SQLitePath:     r.SQLitePath,
		MariaDB: report.Target{
			Host:   r.Host,
			Port:   r.Port,
			Schema: r.Schema,
			User:   r.User,
		},
		TableOrder:        o.catalog.Names(),
		ChecksumAlgorithm: string(o.algorithm),
	})

	defer func() {
		if err := o.migrator.Finalize(rep, r.ReportPath); err != nil {
			retErr = errors.Join(retErr, err)
		}
	}()

	if err != nil {
		rep.Fail(err)
		return err
	}

	defer func() { _ = src.Close() }()

	o.Debugf("Run %s: %d tables from %s\n", rep.RunID, o.catalog.Len(), r.SQLitePath)

	err = o.migrator.Run(ctx, src, rep)

	o.printSummary(rep)

	if err != nil {
		return err
	}

	if !o.dryRun {
		// a failing hook does not undo a committed migration.
		_ = genericclioptions.RunHook(ctx, o.StdioOptions, r.PostMigrateCmd)
	}

	return nil
}

func (o *RunOptions) printSummary(rep *report.Report) {
	tw := tabwriter.NewWriter(o.Out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "TABLE\tSOURCE\tTARGET\tVERIFIED\n")

	for _, name := range rep.TableOrder {
		t, ok := rep.Tables[name]
		if !ok {
			continue
		}

		target := "-"
		if t.TargetCount != nil {
			target = strconv.FormatInt(*t.TargetCount, 10)
		}

		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, t.SourceCount, target, t.Verified)
	}

	_ = tw.Flush()

	o.Printf("status: %s\n", rep.Status)
}

// NewCmdRun creates the run command.
func NewCmdRun(defaults *DefaultChatmigrateOptions) *cobra.Command {
	o := NewRunOptions(defaults)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate and verify all tables",
		Long: `Copies every catalog table from the SQLite database into the MariaDB schema
inside one transaction and verifies each table by row count and checksum.

Target tables must be empty unless --truncate-target is given. Truncation is
committed on its own and is not undone when the migration rolls back.

A JSON report is written on every outcome except a missing SQLite file.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			o.flags = cmd.Flags()
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	f := cmd.Flags()

	f.StringVar(&o.sqlitePath, "sqlite-path", defaultSQLitePath, "path to the stationchat SQLite database")
	f.StringVar(&o.host, "mariadb-host", mariadb.DefaultHost, "MariaDB host")
	f.IntVar(&o.port, "mariadb-port", mariadb.DefaultPort, "MariaDB port")
	f.StringVar(&o.user, "mariadb-user", mariadb.DefaultUser, "MariaDB user")
	f.StringVar(&o.password, "mariadb-password", "", "MariaDB password (prompted when omitted on a terminal)")
	f.BoolVar(&o.passwordStdin, "password-stdin", false, "read the MariaDB password from stdin")
	f.StringVar(&o.schema, "mariadb-schema", mariadb.DefaultSchema, "MariaDB target schema")
	f.StringVar(&o.reportPath, "report-path", "", "report output path (default: migration_report_<timestamp>.json)")
	f.BoolVar(&o.dryRun, "dry-run", false, "read and checksum the source only; never connect to MariaDB")
	f.BoolVar(&o.truncateTarget, "truncate-target", false, "truncate all target tables before migrating (destructive)")
	f.IntVar(&o.batchSize, "batch-size", mariadb.DefaultBatchSize, "rows per INSERT statement")
	f.StringVar(&o.catalogPath, "catalog", "", "YAML catalog file (default: built-in stationchat tables)")
	f.Var(newChecksumValue(&o.algorithm), "checksum", checksumUsage())

	return cmd
}
