package cli

import (
	"context"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ladzaretti/chatmigrate/catalog"
	"github.com/ladzaretti/chatmigrate/clierror"
	"github.com/ladzaretti/chatmigrate/genericclioptions"

	"github.com/spf13/cobra"
)

// TablesOptions prints the resolved table catalog.
type TablesOptions struct {
	*genericclioptions.StdioOptions

	defaults    *DefaultChatmigrateOptions
	catalogPath string
	catalog     *catalog.Catalog
	asYAML      bool
}

var _ genericclioptions.CmdOptions = &TablesOptions{}

func NewTablesOptions(defaults *DefaultChatmigrateOptions) *TablesOptions {
	return &TablesOptions{
		StdioOptions: defaults.StdioOptions,
		defaults:     defaults,
	}
}

func (o *TablesOptions) Complete() error {
	if o.catalogPath == "" {
		c, err := LoadFileConfig(o.defaults.configPath)
		if err != nil {
			return err
		}

		o.catalogPath = c.Run.Catalog
	}

	c, err := loadCatalog(o.catalogPath)
	if err != nil {
		return err
	}

	o.catalog = c

	return nil
}

func (*TablesOptions) Validate() error {
	return nil
}

func (o *TablesOptions) Run(context.Context, ...string) error {
	if o.asYAML {
		out, err := catalog.Marshal(o.catalog)
		if err != nil {
			return err
		}

		o.Printf("%s", out)

		return nil
	}

	tw := tabwriter.NewWriter(o.Out, 0, 0, 2, ' ', 0)

	_, _ = tw.Write([]byte("#\tTABLE\tORDER BY\tAUTO INCREMENT\tCOLUMNS\n"))

	for i, t := range o.catalog.Tables() {
		autoInc, ok := t.AutoIncrement()
		if !ok {
			autoInc = "-"
		}

		_, _ = tw.Write([]byte(strings.Join([]string{
			strconv.Itoa(i + 1),
			t.Name(),
			strings.Join(t.OrderBy(), ","),
			autoInc,
			strings.Join(t.Columns(), ","),
		}, "\t") + "\n"))
	}

	return tw.Flush()
}

// NewCmdTables creates the tables command.
func NewCmdTables(defaults *DefaultChatmigrateOptions) *cobra.Command {
	o := NewTablesOptions(defaults)

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the migrated tables in dependency order",
		Long: `Prints the table catalog in the order tables are copied.

Truncation with --truncate-target runs in the reverse order.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.Flags().StringVar(&o.catalogPath, "catalog", "", "YAML catalog file (default: built-in stationchat tables)")
	cmd.Flags().BoolVar(&o.asYAML, "yaml", false, "print the catalog as a YAML catalog file")

	return cmd
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}

	return catalog.LoadFile(path)
}
