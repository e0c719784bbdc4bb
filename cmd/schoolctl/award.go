package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yigit/schoolyard/internal/app/models/dto"
)

func (cli *commandLine) awardCommand() *cobra.Command {
	var req dto.AwardPointsRequest

	cmd := &cobra.Command{
		Use:   "award",
		Short: "Add challenge points to a school",
		Long:  "Add challenge points to a school. Progress is capped at the challenge's max points and the leaderboard cache is invalidated.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.withBackend(cmd, func(ctx context.Context, b *backend) error {
				progress, err := b.services.Challenges.AwardPoints(ctx, &req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), progress)
			})
		},
	}

	cmd.Flags().StringVar(&req.SchoolID, "school", "", "school ID")
	cmd.Flags().StringVar(&req.ChallengeID, "challenge", "", "challenge ID")
	cmd.Flags().IntVar(&req.Points, "points", 0, "points to add")
	cmd.MarkFlagRequired("school")
	cmd.MarkFlagRequired("challenge")
	cmd.MarkFlagRequired("points")
	return cmd
}
