package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mcphackers/mcpctl/cli/helpers"
	"github.com/mcphackers/mcpctl/pkg/config"
	"github.com/mcphackers/mcpctl/pkg/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := RootCmd()
	if err := cmd.Execute(); err != nil {
		var printed printedError
		if !errors.As(err, &printed) {
			helpers.OutputError(cmd.ErrOrStderr(), err, helpers.ModeTUI, false)
		}
		return 1
	}
	return 0
}

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcpctl",
		Short: "Decompile, recompile, reobfuscate and build client and server sources",
		Long: "mcpctl drives the toolchain of a decompilation workspace. Every task runs " +
			"one at a time, asks before destroying work and reports its progress.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", config.DefaultFile, "Path to the config file")
	pf.String("env-file", ".env", "Path to the environment variables file")
	pf.String("cwd", "", "Working directory of the project")
	pf.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	pf.Bool("log-json", false, "Output logs in JSON format")
	pf.Bool("log-source", false, "Include source code location in logs")
	pf.String("format", "", "Output format: auto, json or tui")
	pf.BoolP("yes", "y", false, "Answer yes to every confirmation")
	pf.Bool("no-color", false, "Disable colored output")
	pf.String("version-file", "", "Path of the installed version record")
	pf.String("catalog-url", "", "URL of the version manifest")
	pf.String("catalog-file", "", "Path of a local version manifest")
	pf.String("backup-dir", "", "Directory receiving source backups")

	root.AddCommand(modeCommands()...)
	root.AddCommand(
		RunCmd(),
		SetupCmd(),
		StatusCmd(),
		VersionsCmd(),
		VersionCmd(),
	)
	return root
}

// SetupGlobalConfig loads the env file, configures logging and attaches the
// merged configuration to the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return helpers.NewCliError(helpers.CodeConfig, "failed to load env file", err.Error())
	}
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(logLevel, logJSON, logSource)
	log := logger.GetDefault()

	base, err := cmd.Flags().GetString("cwd")
	if err != nil {
		return fmt.Errorf("failed to get cwd flag: %w", err)
	}
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ContextWithLogger(ctx, log)
	svc := config.NewService()
	cfg, err := svc.Load(
		ctx,
		config.NewYAMLProvider(afero.NewOsFs(), resolvePath(base, configFile)),
		config.NewEnvProvider(),
		config.NewCLIProvider(extractCLIFlags(cmd)),
	)
	if err != nil {
		return helpers.NewCliError(helpers.CodeConfig, "invalid configuration", err.Error())
	}
	log.Debug("Configuration loaded", "file", configFile, "side", cfg.Project.Side, "format", cfg.CLI.Format)
	cmd.SetContext(config.ContextWithConfig(ctx, cfg))
	return nil
}
