package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/schoolyard/internal/seed"
)

func (cli *commandLine) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default schools, teachers, chats, communities and challenges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b *backend) error {
				if err := seed.CreateDefaultData(ctx, b.store.Repos, b.logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "default data is in place")
				return nil
			})
		},
	}
}
