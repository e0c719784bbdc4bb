package main

import (
	"context"

	"github.com/spf13/cobra"
)

func (cli *commandLine) reconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair missing friendships and drifted member counts once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b *backend) error {
				report, err := b.services.Reconciler.Run(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}
