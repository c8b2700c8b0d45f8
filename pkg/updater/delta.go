package updater

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// defaultRecentLimit bounds how far back the delta path looks. A user
// whose last accepted submission is older than the window keeps their
// previous rows until the batch pass touches them.
const defaultRecentLimit = 1000

// DeltaUpdater is the hot aggregation path: it finds the users behind
// the most recent accepted submissions and fully recomputes just those
// users' rows. Recomputing from each user's complete history makes the
// update idempotent, running it twice writes the same rows.
type DeltaUpdater struct {
	store       Store
	logger      *zap.Logger
	recentLimit int64
}

func NewDeltaUpdater(store Store, logger *zap.Logger, recentLimit int64) *DeltaUpdater {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &DeltaUpdater{store: store, logger: logger, recentLimit: recentLimit}
}

func (u *DeltaUpdater) Update(ctx context.Context) error {
	recent, err := u.store.GetRecentAcceptedSubmissions(ctx, u.recentLimit)
	if err != nil {
		return fmt.Errorf("load recent accepted submissions: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	for i := range recent {
		seen[recent[i].UserID] = struct{}{}
	}
	userIDs := make([]string, 0, len(seen))
	for userID := range seen {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	submissions, err := u.store.GetAcceptedSubmissionsForUsers(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("load accepted submissions for users: %w", err)
	}

	ratedProblemIDs, err := loadRatedProblemIDs(ctx, u.store)
	if err != nil {
		return err
	}

	agg := computeAggregates(submissions, ratedProblemIDs, u.logger)
	if err := agg.write(ctx, u.store); err != nil {
		return err
	}

	u.logger.Info("Delta update complete",
		zap.Int("users", len(userIDs)),
		zap.Int("submissions", len(submissions)))
	return nil
}
