package controller

import (
	"context"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// fakeStore serves the handlers from in-memory ranking rows. Rank
// methods implement the same definition as the SQL: 1 plus the number
// of users with a strictly greater metric, so ties share a rank.
type fakeStore struct {
	acceptedCounts map[string]int
	pointSums      map[string]int64
	streaks        map[string]int64
}

func newStoreFake() *fakeStore {
	return &fakeStore{
		acceptedCounts: make(map[string]int),
		pointSums:      make(map[string]int64),
		streaks:        make(map[string]int64),
	}
}

func (s *fakeStore) GetAcceptedCountRanking(_ context.Context, _, _ int) ([]models.UserProblemCount, error) {
	return nil, nil
}

func (s *fakeStore) GetUserAcceptedCount(_ context.Context, userID string) (int, error) {
	return s.acceptedCounts[userID], nil
}

func (s *fakeStore) GetAcceptedCountRank(_ context.Context, count int) (int64, error) {
	var above int64
	for _, c := range s.acceptedCounts {
		if c > count {
			above++
		}
	}
	return above + 1, nil
}

func (s *fakeStore) GetRatedPointSumRanking(_ context.Context, _, _ int) ([]models.UserPointSum, error) {
	return nil, nil
}

func (s *fakeStore) GetUserRatedPointSum(_ context.Context, userID string) (int64, bool, error) {
	sum, found := s.pointSums[userID]
	return sum, found, nil
}

func (s *fakeStore) GetRatedPointSumRank(_ context.Context, pointSum int64) (int64, error) {
	var above int64
	for _, sum := range s.pointSums {
		if sum > pointSum {
			above++
		}
	}
	return above + 1, nil
}

func (s *fakeStore) GetStreakRanking(_ context.Context, _, _ int) ([]models.UserStreak, error) {
	return nil, nil
}

func (s *fakeStore) GetUserStreak(_ context.Context, userID string) (int64, error) {
	return s.streaks[userID], nil
}

func (s *fakeStore) GetStreakRank(_ context.Context, streak int64) (int64, error) {
	var above int64
	for _, st := range s.streaks {
		if st > streak {
			above++
		}
	}
	return above + 1, nil
}

func (s *fakeStore) GetLanguageRanking(_ context.Context, _ string, _, _ int) ([]models.UserProblemCount, error) {
	return nil, nil
}

func (s *fakeStore) GetLanguages(_ context.Context) ([]string, error) { return nil, nil }

func (s *fakeStore) GetSolverCounts(_ context.Context) ([]models.ProblemSolver, error) {
	return nil, nil
}

func (s *fakeStore) GetProblemPoints(_ context.Context) ([]models.ProblemPoint, error) {
	return nil, nil
}

func (s *fakeStore) GetSubmissionsSince(_ context.Context, _, _ int64) ([]models.Submission, error) {
	return nil, nil
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }
