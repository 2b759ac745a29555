// Package main is entityctl: a small cobra-based CLI demonstrating the
// db façade against a TOML connection profile (§6.1). It is not part of
// the library's public API surface — a usage example, not a dependency
// any library consumer needs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shoal/internal/config"
	"shoal/internal/db"
)

func main() {
	var profile string

	rootCmd := &cobra.Command{
		Use:   "entityctl",
		Short: "Inspect and initialize tables managed by a shoal connection profile",
	}
	rootCmd.PersistentFlags().StringVar(&profile, "config", "entityctl.toml", "path to a TOML connection profile")

	rootCmd.AddCommand(pingCmd(&profile))
	rootCmd.AddCommand(dropCmd(&profile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(ctx context.Context, profilePath string) (*db.Database, error) {
	cfg, err := config.Load(profilePath)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return db.Connect(ctx, opts)
}

func pingCmd(profile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect using the profile and report success",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			database, err := connect(ctx, *profile)
			if err != nil {
				return err
			}
			defer database.Close()

			fmt.Println("connected")
			return nil
		},
	}
}

func dropCmd(profile *string) *cobra.Command {
	var ifExists bool
	cmd := &cobra.Command{
		Use:   "drop-table <table>",
		Short: "Drop a table by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			database, err := connect(ctx, *profile)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Drop(ctx, &anonymousTable{name: args[0]}, ifExists); err != nil {
				return err
			}
			fmt.Printf("dropped %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&ifExists, "if-exists", false, "do not error if the table does not exist")
	return cmd
}

// anonymousTable satisfies entity.Entity for operations (like Drop) that
// only need a table name, not a reflected field list.
type anonymousTable struct {
	name string
}

func (a *anonymousTable) TableName() string { return a.name }
