package cli

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const (
	// defaultConfigName is the default name of the configuration file
	// expected under the user's home directory.
	defaultConfigName = ".chatmigrate.toml"

	// envConfigPathKey is the environment variable key for overriding
	// the config file path.
	envConfigPathKey = "CHATMIGRATE_CONFIG_PATH"
)

type ConfigError struct {
	Opt string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Opt == "" {
		return "config: " + e.Err.Error()
	}

	return "config: " + strings.Join([]string{e.Opt, e.Err.Error()}, ": ")
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FileConfig represents the full structure of the configuration file.
//
//nolint:tagalign
type FileConfig struct {
	Source SourceConfig `toml:"source" comment:"SQLite source database" json:"source"`
	Target TargetConfig `toml:"target" comment:"MariaDB target connection" json:"target"`
	Run    RunConfig    `toml:"run" comment:"Migration behavior" json:"run"`
	Hooks  *HooksConfig `toml:"hooks" comment:"Optional commands run after a migration" json:"hooks"`

	path string // path to the loaded config file. Empty if no config file was used.
}

func newFileConfig() *FileConfig {
	return &FileConfig{
		Hooks: &HooksConfig{},
	}
}

// SourceConfig locates the SQLite database.
//
//nolint:tagalign,tagliatelle
type SourceConfig struct {
	SQLitePath string `toml:"sqlite_path,commented" comment:"Path to the stationchat SQLite database (default: 'stationchat.db')" json:"sqlite_path,omitempty"`
}

// TargetConfig holds the MariaDB connection parameters.
//
//nolint:tagalign,tagliatelle
type TargetConfig struct {
	Host     string `toml:"host,commented" comment:"MariaDB host (default: '127.0.0.1')" json:"host,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	Port     int    `toml:"port,commented" comment:"MariaDB port (default: 3306)" json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	User     string `toml:"user,commented" comment:"MariaDB user (default: 'root')" json:"user,omitempty" validate:"omitempty,max=80"`
	Password string `toml:"password,commented" comment:"MariaDB password; prefer --password-stdin or the interactive prompt" json:"-"` //nolint:gosec
	Schema   string `toml:"schema,commented" comment:"Target schema (default: 'stationchat')" json:"schema,omitempty" validate:"omitempty,sqlident"`
}

// RunConfig holds migration behavior defaults.
//
//nolint:tagalign,tagliatelle
type RunConfig struct {
	ReportPath string `toml:"report_path,commented" comment:"Report output path (default: 'migration_report_<timestamp>.json')" json:"report_path,omitempty"`
	BatchSize  int    `toml:"batch_size,commented" comment:"Rows per INSERT statement (default: 500)" json:"batch_size,omitempty" validate:"omitempty,min=1,max=65535"`
	Checksum   string `toml:"checksum,commented" comment:"Checksum algorithm: 'sha256' or 'blake2b' (default: 'sha256')" json:"checksum,omitempty" validate:"omitempty,oneof=sha256 blake2b"`
	Catalog    string `toml:"catalog,commented" comment:"YAML table catalog replacing the built-in stationchat tables" json:"catalog,omitempty"`
}

// HooksConfig defines optional commands triggered by migration events.
//
//nolint:tagalign,tagliatelle
type HooksConfig struct {
	PostMigrateCmd []string `toml:"post_migrate_cmd,commented" comment:"Command to run after a successful, non dry-run migration" json:"post_migrate_cmd"`
}

var sqlIdentRE = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return sqlIdentRE.MatchString(fl.Field().String())
	})

	return v
}

// LoadFileConfig loads the config from the given or default path.
func LoadFileConfig(path string) (*FileConfig, error) {
	defaultPath, err := defaultConfigPath()
	if err != nil {
		return nil, err
	}

	configPath := cmp.Or(path, defaultPath)

	c, err := parseFileConfig(configPath)
	if err != nil {
		// config file not found at default location; fallback to empty config
		if len(path) == 0 && errors.Is(err, fs.ErrNotExist) { //nolint:revive // clearer with explicit fallback logic
			c = newFileConfig()
		} else {
			return nil, err
		}
	} else {
		c.path = configPath
	}

	return c, c.validate()
}

func defaultConfigPath() (string, error) {
	if p, ok := os.LookupEnv(envConfigPathKey); ok {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: user home dir: %w", err)
	}

	return filepath.Join(home, defaultConfigName), nil
}

func parseFileConfig(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: stat file: %w", err)
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	config := newFileConfig()

	d := toml.NewDecoder(bytes.NewReader(raw))
	d.DisallowUnknownFields()

	if err := d.Decode(config); err != nil {
		return nil, fmt.Errorf("config: parse file %q: %w", path, err)
	}

	if config.Hooks == nil {
		config.Hooks = &HooksConfig{}
	}

	return config, nil
}

func (c *FileConfig) validate() error {
	if c == nil {
		return &ConfigError{Err: errors.New("cannot validate a nil config")}
	}

	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return &ConfigError{Err: err}
		}

		fe := verrs[0]

		// drop the root struct name
		_, opt, _ := strings.Cut(fe.Namespace(), ".")

		return &ConfigError{Opt: opt, Err: fmt.Errorf("invalid value %v (rule %q)", fe.Value(), fe.Tag())}
	}

	if c.Hooks.PostMigrateCmd != nil && len(c.Hooks.PostMigrateCmd) == 0 {
		return &ConfigError{Opt: "hooks.post_migrate_cmd", Err: errors.New("defined but contains no values")}
	}

	return nil
}
