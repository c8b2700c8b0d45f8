// Package updater recomputes the ranking and statistics tables from the
// submissions relation. All per-user aggregates are pure functions of a
// user's accepted submissions, so the delta and batch paths share one
// computation and differ only in which users they touch.
package updater

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db"
	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// Store is what the updaters need from the database.
type Store interface {
	db.AcceptedSubmissionReader
	db.AggregateStore

	LoadContests(ctx context.Context) ([]models.Contest, error)
	LoadContestProblems(ctx context.Context) ([]models.ContestProblem, error)
}

// aggregates holds one recomputation's worth of ranking rows, each slice
// sorted by user id so writes are deterministic.
type aggregates struct {
	acceptedCounts []models.UserProblemCount
	pointSums      []models.UserPointSum
	streaks        []models.UserStreak
	languageCounts []models.UserLanguageCount
}

// loadRatedProblemIDs resolves the set of problems that count toward the
// rated point sum: problems appearing in a rated contest.
func loadRatedProblemIDs(ctx context.Context, store Store) (map[string]struct{}, error) {
	contests, err := store.LoadContests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contests: %w", err)
	}
	ratedContests := make(map[string]struct{})
	for i := range contests {
		if contests[i].IsRated() {
			ratedContests[contests[i].ID] = struct{}{}
		}
	}

	pairs, err := store.LoadContestProblems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contest problems: %w", err)
	}
	rated := make(map[string]struct{})
	for _, pair := range pairs {
		if _, ok := ratedContests[pair.ContestID]; ok {
			rated[pair.ProblemID] = struct{}{}
		}
	}
	return rated, nil
}

// computeAggregates derives every per-user aggregate from the users'
// accepted submissions. Submissions with other results must be filtered
// out by the caller.
func computeAggregates(submissions []models.Submission, ratedProblemIDs map[string]struct{}, logger *zap.Logger) aggregates {
	type userState struct {
		problems    map[string]struct{}
		ratedPoints map[string]int64
		firstAC     map[string]int64
		languages   map[string]map[string]struct{}
	}

	users := make(map[string]*userState)
	stateOf := func(userID string) *userState {
		state, ok := users[userID]
		if !ok {
			state = &userState{
				problems:    make(map[string]struct{}),
				ratedPoints: make(map[string]int64),
				firstAC:     make(map[string]int64),
				languages:   make(map[string]map[string]struct{}),
			}
			users[userID] = state
		}
		return state
	}

	for i := range submissions {
		s := &submissions[i]
		state := stateOf(s.UserID)

		state.problems[s.ProblemID] = struct{}{}

		if _, rated := ratedProblemIDs[s.ProblemID]; rated {
			// Rated points are whole numbers on the site; a fractional
			// value means bad upstream data, so round instead of
			// truncating silently.
			if s.Point != math.Trunc(s.Point) {
				logger.Warn("Fractional point on rated problem",
					zap.Int64("submission_id", s.ID),
					zap.String("problem_id", s.ProblemID),
					zap.Float64("point", s.Point))
			}
			point := int64(math.Round(s.Point))
			if current, ok := state.ratedPoints[s.ProblemID]; !ok || point > current {
				state.ratedPoints[s.ProblemID] = point
			}
		}

		if first, ok := state.firstAC[s.ProblemID]; !ok || s.EpochSecond < first {
			state.firstAC[s.ProblemID] = s.EpochSecond
		}

		lang := simplifyLanguage(s.Language)
		if state.languages[lang] == nil {
			state.languages[lang] = make(map[string]struct{})
		}
		state.languages[lang][s.ProblemID] = struct{}{}
	}

	userIDs := make([]string, 0, len(users))
	for userID := range users {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	var out aggregates
	for _, userID := range userIDs {
		state := users[userID]

		out.acceptedCounts = append(out.acceptedCounts, models.UserProblemCount{
			UserID:       userID,
			ProblemCount: len(state.problems),
		})

		var sum int64
		for _, point := range state.ratedPoints {
			sum += point
		}
		out.pointSums = append(out.pointSums, models.UserPointSum{
			UserID:   userID,
			PointSum: sum,
		})

		epochs := make([]int64, 0, len(state.firstAC))
		for _, epoch := range state.firstAC {
			epochs = append(epochs, epoch)
		}
		out.streaks = append(out.streaks, models.UserStreak{
			UserID: userID,
			Streak: maxStreak(epochs),
		})

		langs := make([]string, 0, len(state.languages))
		for lang := range state.languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			out.languageCounts = append(out.languageCounts, models.UserLanguageCount{
				UserID:             userID,
				SimplifiedLanguage: lang,
				ProblemCount:       len(state.languages[lang]),
			})
		}
	}
	return out
}

func (a aggregates) write(ctx context.Context, store db.AggregateStore) error {
	if err := store.UpsertAcceptedCounts(ctx, a.acceptedCounts); err != nil {
		return fmt.Errorf("upsert accepted counts: %w", err)
	}
	if err := store.UpsertRatedPointSums(ctx, a.pointSums); err != nil {
		return fmt.Errorf("upsert rated point sums: %w", err)
	}
	if err := store.UpsertStreaks(ctx, a.streaks); err != nil {
		return fmt.Errorf("upsert streaks: %w", err)
	}
	if err := store.UpsertLanguageCounts(ctx, a.languageCounts); err != nil {
		return fmt.Errorf("upsert language counts: %w", err)
	}
	return nil
}
