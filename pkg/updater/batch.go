package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
)

// BatchUpdater is the repair path: it recomputes every user's rows from
// the full accepted-submission history and rebuilds the per-problem
// statistics tables. It converges tables that delta updates could not
// touch, e.g. after a fix crawl rewrites old verdicts.
type BatchUpdater struct {
	store  Store
	logger *zap.Logger
	pool   pond.Pool
}

func NewBatchUpdater(store Store, logger *zap.Logger) *BatchUpdater {
	return &BatchUpdater{
		store:  store,
		logger: logger,
		pool:   pond.NewPool(3),
	}
}

func (u *BatchUpdater) Update(ctx context.Context) error {
	submissions, err := u.store.GetAllAcceptedSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("load accepted submissions: %w", err)
	}

	ratedProblemIDs, err := loadRatedProblemIDs(ctx, u.store)
	if err != nil {
		return err
	}

	agg := computeAggregates(submissions, ratedProblemIDs, u.logger)

	// The user tables and the two problem tables touch disjoint rows, so
	// they can rebuild in parallel.
	var (
		writeErr   error
		solversErr error
		pointsErr  error
	)
	group := u.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	group.Submit(func() {
		if groupCtx.Err() != nil {
			return
		}
		writeErr = agg.write(groupCtx, u.store)
	})
	group.Submit(func() {
		if groupCtx.Err() != nil {
			return
		}
		solversErr = u.store.RefreshSolverCounts(groupCtx)
	})
	group.Submit(func() {
		if groupCtx.Err() != nil {
			return
		}
		pointsErr = u.store.RefreshProblemPoints(groupCtx)
	})

	if waitErr := group.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) && !errors.Is(waitErr, pond.ErrGroupStopped) {
		u.logger.Warn("Batch update group error", zap.Error(waitErr))
	}

	if writeErr != nil {
		return writeErr
	}
	if solversErr != nil {
		return fmt.Errorf("refresh solver counts: %w", solversErr)
	}
	if pointsErr != nil {
		return fmt.Errorf("refresh problem points: %w", pointsErr)
	}

	u.logger.Info("Batch update complete",
		zap.Int("users", len(agg.acceptedCounts)),
		zap.Int("submissions", len(submissions)))
	return nil
}
