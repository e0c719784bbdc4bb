package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
)

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	FriendshipsCreated int                      `json:"friendshipsCreated"`
	CountCorrections   []models.CountCorrection `json:"countCorrections"`
}

// Reconciler repairs state a partial write or an external writer can leave
// behind: accepted requests without a friendship and drifted member counts.
type Reconciler struct {
	friends     repositories.FriendStore
	memberships MembershipService
	logger      zerolog.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(repos *repositories.Repositories, memberships MembershipService, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		friends:     repos.Friends,
		memberships: memberships,
		logger:      logger,
	}
}

// Run performs one pass. It is idempotent.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{CountCorrections: []models.CountCorrection{}}

	orphans, err := r.friends.ListOrphanedAccepts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing orphaned accepts: %w", err)
	}
	for _, req := range orphans {
		created, err := r.friends.EnsureFriendship(ctx, req.SenderID, req.ReceiverID)
		if err != nil {
			return report, fmt.Errorf("error restoring friendship for request %s: %w", req.ID, err)
		}
		if created {
			report.FriendshipsCreated++
			r.logger.Warn().
				Str("requestID", req.ID).
				Str("senderID", req.SenderID).
				Str("receiverID", req.ReceiverID).
				Msg("Restored missing friendship")
		}
	}
	monitoring.ReconcileFixes.WithLabelValues("friendship").Add(float64(report.FriendshipsCreated))

	for _, kind := range []models.MembershipKind{models.MembershipCommunity, models.MembershipGroup} {
		corrections, err := r.memberships.ReconcileCounts(ctx, kind)
		if err != nil {
			return report, err
		}
		report.CountCorrections = append(report.CountCorrections, corrections...)
		monitoring.ReconcileFixes.WithLabelValues(string(kind) + "_count").Add(float64(len(corrections)))
	}

	r.logger.Info().
		Int("friendshipsCreated", report.FriendshipsCreated).
		Int("countCorrections", len(report.CountCorrections)).
		Msg("Reconciliation finished")
	return report, nil
}

// Schedule runs a pass every interval until ctx is done. Failures are logged and retried on the next tick.
func (r *Reconciler) Schedule(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("Reconciler scheduled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil {
				r.logger.Error().Err(err).Msg("Reconciliation failed")
			}
		}
	}
}
