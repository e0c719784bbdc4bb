package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/schoolyard/internal/bootstrap"
)

var errNoDatabase = errors.New("migrate requires the postgres store")

func (cli *commandLine) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b *backend) error {
				if b.store.Pool == nil {
					return errNoDatabase
				}
				applied, err := bootstrap.RunMigrations(ctx, b.cfg, b.store.Pool, b.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
				return nil
			})
		},
	}
}
