package updater

import (
	"context"
	"sort"
	"sync"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// fakeStore backs the updater tests with an in-memory submission history
// and captures every aggregate write.
type fakeStore struct {
	mu sync.Mutex

	accepted []models.Submission
	contests []models.Contest
	pairs    []models.ContestProblem

	acceptedCounts map[string]int
	pointSums      map[string]int64
	streaks        map[string]int64
	languageCounts map[string]int

	solvers         map[string]int
	solverRefreshes int
	pointRefreshes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		acceptedCounts: make(map[string]int),
		pointSums:      make(map[string]int64),
		streaks:        make(map[string]int64),
		languageCounts: make(map[string]int),
	}
}

func (s *fakeStore) GetRecentAcceptedSubmissions(_ context.Context, limit int64) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append([]models.Submission(nil), s.accepted...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })
	if int64(len(sorted)) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (s *fakeStore) GetAcceptedSubmissionsForUsers(_ context.Context, userIDs []string) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		wanted[userID] = struct{}{}
	}
	var out []models.Submission
	for _, submission := range s.accepted {
		if _, ok := wanted[submission.UserID]; ok {
			out = append(out, submission)
		}
	}
	return out, nil
}

func (s *fakeStore) GetAllAcceptedSubmissions(_ context.Context) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Submission(nil), s.accepted...), nil
}

func (s *fakeStore) LoadContests(_ context.Context) ([]models.Contest, error) {
	return append([]models.Contest(nil), s.contests...), nil
}

func (s *fakeStore) LoadContestProblems(_ context.Context) ([]models.ContestProblem, error) {
	return append([]models.ContestProblem(nil), s.pairs...), nil
}

func (s *fakeStore) UpsertAcceptedCounts(_ context.Context, counts []models.UserProblemCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range counts {
		s.acceptedCounts[row.UserID] = row.ProblemCount
	}
	return nil
}

func (s *fakeStore) UpsertRatedPointSums(_ context.Context, sums []models.UserPointSum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range sums {
		s.pointSums[row.UserID] = row.PointSum
	}
	return nil
}

func (s *fakeStore) UpsertStreaks(_ context.Context, streaks []models.UserStreak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range streaks {
		s.streaks[row.UserID] = row.Streak
	}
	return nil
}

func (s *fakeStore) UpsertLanguageCounts(_ context.Context, counts []models.UserLanguageCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range counts {
		s.languageCounts[row.UserID+"/"+row.SimplifiedLanguage] = row.ProblemCount
	}
	return nil
}

// RefreshSolverCounts mirrors the production GROUP BY: distinct accepted
// users per problem.
func (s *fakeStore) RefreshSolverCounts(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userSets := make(map[string]map[string]struct{})
	for _, sub := range s.accepted {
		if userSets[sub.ProblemID] == nil {
			userSets[sub.ProblemID] = make(map[string]struct{})
		}
		userSets[sub.ProblemID][sub.UserID] = struct{}{}
	}
	s.solvers = make(map[string]int, len(userSets))
	for problemID, userSet := range userSets {
		s.solvers[problemID] = len(userSet)
	}
	s.solverRefreshes++
	return nil
}

func (s *fakeStore) RefreshProblemPoints(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointRefreshes++
	return nil
}

func acSubmission(id int64, epochSecond int64, problemID, userID, language string, point float64) models.Submission {
	return models.Submission{
		ID:          id,
		EpochSecond: epochSecond,
		ProblemID:   problemID,
		ContestID:   "abc001",
		UserID:      userID,
		Language:    language,
		Point:       point,
		Result:      models.AcceptedResult,
	}
}
