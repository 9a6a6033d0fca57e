// Package cmd holds the garden command line.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mallkisapan.io/garden/config"
)

// BuildInfo is stamped at link time.
type BuildInfo struct {
	Version   string
	BuildTime string
}

// app is the state shared by subcommands after PersistentPreRunE.
type app struct {
	settings *config.Settings
	log      *zap.Logger
	db       *gorm.DB
}

// RootCommand creates and returns the root command
func RootCommand(info BuildInfo) *cobra.Command {
	a := &app{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "garden",
		Short:         "Smart garden monitoring backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version:   %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "BuildTime: %s\n", info.BuildTime)
		},
	}

	rootCmd.AddCommand(
		serveCommand(a, info),
		migrateCommand(a),
		seedCommand(a),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return a.initialize(v)
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		a.close()
	}
	return rootCmd
}

func (a *app) initialize(v *viper.Viper) error {
	settings, err := config.Load(v)
	if err != nil {
		return err
	}
	log, err := config.NewLogger(settings.LogLevel, settings.LogFormat, "garden")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	db, err := config.Connect(settings, log)
	if err != nil {
		return err
	}
	a.settings, a.log, a.db = settings, log, db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(*cobra.Command, []string) error {
			if err := config.Migrations(a.db); err != nil {
				return fmt.Errorf("could not run migrations: %w", err)
			}
			a.log.Info("migrations applied")
			return nil
		},
	}
}

func seedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all garden data with demo data",
		RunE: func(*cobra.Command, []string) error {
			if err := config.Migrations(a.db); err != nil {
				return fmt.Errorf("could not run migrations: %w", err)
			}
			return config.RunAllSeeding(a.db, time.Now(), a.log)
		},
	}
}
