package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ladzaretti/chatmigrate/checksum"
	"github.com/ladzaretti/chatmigrate/clierror"
	"github.com/ladzaretti/chatmigrate/genericclioptions"
	"github.com/ladzaretti/chatmigrate/target/mariadb"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const defaultSQLitePath = "stationchat.db"

// ResolvedConfig holds the effective settings after applying defaults
// to the file config. Command line flags override it per run.
//
//nolint:tagliatelle
type ResolvedConfig struct {
	SQLitePath     string   `json:"sqlite_path"`
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	User           string   `json:"user"`
	Password       string   `json:"-"`
	Schema         string   `json:"schema"`
	ReportPath     string   `json:"report_path,omitempty"`
	BatchSize      int      `json:"batch_size"`
	Checksum       string   `json:"checksum"`
	Catalog        string   `json:"catalog,omitempty"`
	PostMigrateCmd []string `json:"post_migrate_cmd,omitempty"`
}

func newResolvedConfig(c *FileConfig) *ResolvedConfig {
	if c == nil {
		c = newFileConfig()
	}

	return &ResolvedConfig{
		SQLitePath:     cmp.Or(c.Source.SQLitePath, defaultSQLitePath),
		Host:           cmp.Or(c.Target.Host, mariadb.DefaultHost),
		Port:           cmp.Or(c.Target.Port, mariadb.DefaultPort),
		User:           cmp.Or(c.Target.User, mariadb.DefaultUser),
		Password:       c.Target.Password,
		Schema:         cmp.Or(c.Target.Schema, mariadb.DefaultSchema),
		ReportPath:     c.Run.ReportPath,
		BatchSize:      cmp.Or(c.Run.BatchSize, mariadb.DefaultBatchSize),
		Checksum:       cmp.Or(c.Run.Checksum, string(checksum.SHA256)),
		Catalog:        c.Run.Catalog,
		PostMigrateCmd: c.Hooks.PostMigrateCmd,
	}
}

// ConfigOptions loads the configuration file shared by all commands.
type ConfigOptions struct {
	*genericclioptions.StdioOptions

	fileConfig     *FileConfig
	resolvedConfig *ResolvedConfig
	path           string // path is the config file path explicitly provided by the user, if any.
}

var _ genericclioptions.CmdOptions = &ConfigOptions{}

// NewConfigOptions initializes the options struct.
func NewConfigOptions(stdio *genericclioptions.StdioOptions) *ConfigOptions {
	return &ConfigOptions{
		StdioOptions: stdio,
	}
}

func (o *ConfigOptions) Complete() error {
	c, err := LoadFileConfig(o.path)
	if err != nil {
		return err
	}

	o.fileConfig = c
	o.resolvedConfig = newResolvedConfig(c)

	return nil
}

func (*ConfigOptions) Validate() error {
	return nil
}

func (o *ConfigOptions) Run(context.Context, ...string) error {
	if len(o.fileConfig.path) == 0 {
		o.Debugf("No config file found; using default values.\n")
	}

	config := struct {
		Path     string          `json:"path,omitempty"`
		Parsed   *FileConfig     `json:"parsed_config,omitempty"` //nolint:tagliatelle
		Resolved *ResolvedConfig `json:"resolved_config"`         //nolint:tagliatelle
	}{
		Path:     o.fileConfig.path,
		Parsed:   o.fileConfig,
		Resolved: o.resolvedConfig,
	}

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	o.Printf("%s\n", out)

	return nil
}

// NewCmdConfig creates the cobra config command tree.
func NewCmdConfig(defaults *DefaultChatmigrateOptions) *cobra.Command {
	o := NewConfigOptions(defaults.StdioOptions)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Resolve and inspect the active configuration (subcommands available)",
		Long: fmt.Sprintf(`Resolve and display the active configuration as JSON.

If --config is not provided, the default config path (~/%s) is used.`, defaultConfigName),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			o.path = defaults.configPath
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	cmd.AddCommand(newGenerateConfigCmd(defaults))
	cmd.AddCommand(newValidateConfigCmd(defaults))

	return cmd
}

type generateConfigOptions struct {
	*genericclioptions.StdioOptions
}

var _ genericclioptions.CmdOptions = &generateConfigOptions{}

func (*generateConfigOptions) Complete() error {
	return nil
}

func (*generateConfigOptions) Validate() error {
	return nil
}

func (o *generateConfigOptions) Run(context.Context, ...string) error {
	out, err := toml.Marshal(newFileConfig())
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	o.Printf("%s", out)

	return nil
}

// newGenerateConfigCmd creates the 'generate' subcommand for generating default config.
func newGenerateConfigCmd(defaults *DefaultChatmigrateOptions) *cobra.Command {
	hiddenFlags := []string{"config"}
	o := &generateConfigOptions{StdioOptions: defaults.StdioOptions}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a default config file",
		Long: `Outputs the default configuration in TOML format to stdout.

This command does not accept any arguments.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			clierror.Check(genericclioptions.RejectDisallowedFlags(cmd, hiddenFlags...))
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	genericclioptions.MarkFlagsHidden(cmd, hiddenFlags...)

	return cmd
}

type validateConfigOptions struct {
	*genericclioptions.StdioOptions

	configPath string
}

var _ genericclioptions.CmdOptions = &validateConfigOptions{}

func (*validateConfigOptions) Complete() error {
	return nil
}

func (*validateConfigOptions) Validate() error {
	return nil
}

func (o *validateConfigOptions) Run(context.Context, ...string) error {
	c, err := LoadFileConfig(o.configPath)
	if err != nil {
		return err
	}

	if len(c.path) == 0 {
		o.Infof("No config file found; Nothing to validate.\n")
		return nil
	}

	o.Infof("%s: OK\n", c.path)

	return nil
}

// newValidateConfigCmd creates the 'validate' subcommand for validating the config file.
func newValidateConfigCmd(defaults *DefaultChatmigrateOptions) *cobra.Command {
	o := &validateConfigOptions{StdioOptions: defaults.StdioOptions}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check config validity",
		Long: fmt.Sprintf(`Loads the configuration file and checks for common errors.

If --config is not provided, the default config path (~/%s) is used.`, defaultConfigName),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			o.configPath = defaults.configPath
			clierror.Check(genericclioptions.ExecuteCommand(cmd.Context(), o))
		},
	}

	return cmd
}
