// Package cli provides the command-line interface of erdgen.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/erdgen/internal/cli/commands"
	"github.com/syssam/erdgen/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	rootCmd := &cobra.Command{
		Use:   "erdgen",
		Short: "Generate a Go backend from an entity-relationship diagram",
		Long: `erdgen reads a MySQL Workbench diagram (.mwb) or a YAML diagram document and
generates the schema migrations, gorm models, gin handlers, routes and data
seeders of a Go backend, ordered so that referenced tables always come first.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, used, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log := NewLogger(cmd.ErrOrStderr(), cfg)
			if used != "" {
				log.Debug("using config file", "path", used)
			}
			cmd.SetContext(config.NewContext(cmd.Context(), cfg, log))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./erdgen.yaml)")
	rootCmd.PersistentFlags().StringP("input", "i", "", "Diagram document (.mwb, .yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory of the generated backend")
	rootCmd.PersistentFlags().StringP("package", "p", "", "Go import path of the generated backend")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Tables seeded by hand (default users,rol,estatus)")
	rootCmd.PersistentFlags().Int("workers", 0, "Parallel workers (default GOMAXPROCS)")
	rootCmd.PersistentFlags().Bool("infer-foreign-keys", false, "Promote _id columns naming a table to foreign keys")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewPlanCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	return rootCmd
}

// NewLogger returns the logger configured by cfg, writing to w.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
