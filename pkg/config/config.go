package config

import (
	"context"
	"time"

	"github.com/mcphackers/mcpctl/engine/project"
)

const (
	// EnvPrefix is prepended to every env tag.
	EnvPrefix = "MCPCTL_"
	// DefaultFile is the configuration file looked up in the working directory.
	DefaultFile = "mcpctl.yaml"
)

// Config represents the complete configuration of mcpctl.
type Config struct {
	Project   ProjectConfig   `koanf:"project"   validate:"required"`
	Toolchain ToolchainConfig `koanf:"toolchain"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	CLI       CLIConfig       `koanf:"cli"`
}

// ProjectConfig locates the working project.
type ProjectConfig struct {
	WorkingDir  string `koanf:"working_dir"  env:"PROJECT_WORKING_DIR"`
	VersionFile string `koanf:"version_file" env:"PROJECT_VERSION_FILE" validate:"required"`
	// Side is the default side of commands that do not pass --side.
	Side             string         `koanf:"side"              env:"PROJECT_SIDE"              validate:"side"`
	AllowRedecompile bool           `koanf:"allow_redecompile" env:"PROJECT_ALLOW_REDECOMPILE"`
	Layout           project.Layout `koanf:"layout"`
}

// ToolchainConfig configures the external programs behind each mode.
type ToolchainConfig struct {
	// Commands maps a mode name (decompile, update-checksums, ...) to a command
	// template.
	Commands  map[string]string `koanf:"commands"   validate:"dive,keys,mode,endkeys,required"`
	Env       map[string]string `koanf:"env"`
	BackupDir string            `koanf:"backup_dir" env:"TOOLCHAIN_BACKUP_DIR" validate:"required"`
}

// CatalogConfig locates the version catalog. URL wins over File.
type CatalogConfig struct {
	URL     string        `koanf:"url"     env:"CATALOG_URL"     validate:"omitempty,url"`
	File    string        `koanf:"file"    env:"CATALOG_FILE"`
	Timeout time.Duration `koanf:"timeout" env:"CATALOG_TIMEOUT" validate:"min=0"`
}

// CLIConfig contains terminal behavior.
type CLIConfig struct {
	AssumeYes bool   `koanf:"assume_yes" env:"CLI_ASSUME_YES"`
	Format    string `koanf:"format"     env:"CLI_FORMAT"     validate:"oneof=auto json tui"`
	NoColor   bool   `koanf:"no_color"   env:"CLI_NO_COLOR"`
}

// Service defines the configuration loading contract.
type Service interface {
	// Load loads configuration from the given sources. Later sources win.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns which source provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			WorkingDir:       ".",
			VersionFile:      project.DefaultVersionFile,
			Side:             "any",
			AllowRedecompile: true,
			Layout:           project.DefaultLayout(),
		},
		Toolchain: ToolchainConfig{
			Commands:  map[string]string{},
			Env:       map[string]string{},
			BackupDir: "backups",
		},
		Catalog: CatalogConfig{
			File:    "conf/versions.json",
			Timeout: 10 * time.Second,
		},
		CLI: CLIConfig{
			Format: "auto",
		},
	}
}
