package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// fakeFetcher serves canned pages and records every fetch in order.
type fakeFetcher struct {
	mu sync.Mutex

	// pages[contestID][i] is page i+1 of the contest's submission list.
	pages        map[string][][]models.Submission
	pageErrs     map[string]map[int]error
	contestPages [][]models.Contest
	permanent    []models.Contest
	problems     map[string][]models.Problem
	problemPairs map[string][]models.ContestProblem
	problemErrs  map[string]error

	fetched []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:        make(map[string][][]models.Submission),
		pageErrs:     make(map[string]map[int]error),
		problems:     make(map[string][]models.Problem),
		problemPairs: make(map[string][]models.ContestProblem),
		problemErrs:  make(map[string]error),
	}
}

func (f *fakeFetcher) failPage(contestID string, page int, err error) {
	if f.pageErrs[contestID] == nil {
		f.pageErrs[contestID] = make(map[int]error)
	}
	f.pageErrs[contestID][page] = err
}

func (f *fakeFetcher) FetchSubmissions(_ context.Context, contestID string, page int) ([]models.Submission, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, fmt.Sprintf("%s/%d", contestID, page))

	if err := f.pageErrs[contestID][page]; err != nil {
		return nil, 0, err
	}
	pages := f.pages[contestID]
	if page < 1 || page > len(pages) {
		return nil, len(pages), nil
	}
	return pages[page-1], len(pages), nil
}

func (f *fakeFetcher) FetchContests(_ context.Context, page int) ([]models.Contest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, fmt.Sprintf("archive/%d", page))
	if page < 1 || page > len(f.contestPages) {
		return nil, nil
	}
	return f.contestPages[page-1], nil
}

func (f *fakeFetcher) FetchPermanentContests(_ context.Context) ([]models.Contest, error) {
	return f.permanent, nil
}

func (f *fakeFetcher) FetchProblems(_ context.Context, contestID string) ([]models.Problem, []models.ContestProblem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, "tasks/"+contestID)
	if err := f.problemErrs[contestID]; err != nil {
		return nil, nil, err
	}
	return f.problems[contestID], f.problemPairs[contestID], nil
}

func (f *fakeFetcher) fetchLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// fakeStore is an in-memory stand-in for the Postgres store, keyed the
// same way the real tables are.
type fakeStore struct {
	mu sync.Mutex

	submissions map[int64]models.Submission
	contests    map[string]models.Contest
	problems    map[string]models.Problem
	pairs       map[string]models.ContestProblem

	runningProblems []string
	upsertErr       error
	upsertCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		submissions: make(map[int64]models.Submission),
		contests:    make(map[string]models.Contest),
		problems:    make(map[string]models.Problem),
		pairs:       make(map[string]models.ContestProblem),
	}
}

func (s *fakeStore) UpsertSubmissions(_ context.Context, submissions []models.Submission) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	var fresh int64
	for _, submission := range submissions {
		if _, ok := s.submissions[submission.ID]; !ok {
			fresh++
		}
		s.submissions[submission.ID] = submission
	}
	return fresh, nil
}

func (s *fakeStore) GetInvalidResultSubmissions(_ context.Context, fromSecond int64) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Submission
	for _, submission := range s.submissions {
		if submission.EpochSecond >= fromSecond && !submission.HasTerminalResult() {
			out = append(out, submission)
		}
	}
	return out, nil
}

func (s *fakeStore) CountStoredSubmissions(_ context.Context, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, id := range ids {
		if _, ok := s.submissions[id]; ok {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) InsertContests(_ context.Context, contests []models.Contest) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fresh int64
	for _, contest := range contests {
		if _, ok := s.contests[contest.ID]; !ok {
			s.contests[contest.ID] = contest
			fresh++
		}
	}
	return fresh, nil
}

func (s *fakeStore) InsertProblems(_ context.Context, problems []models.Problem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fresh int64
	for _, problem := range problems {
		if _, ok := s.problems[problem.ID]; !ok {
			s.problems[problem.ID] = problem
			fresh++
		}
	}
	return fresh, nil
}

func (s *fakeStore) InsertContestProblems(_ context.Context, pairs []models.ContestProblem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fresh int64
	for _, pair := range pairs {
		key := pair.ContestID + "/" + pair.ProblemID
		if _, ok := s.pairs[key]; !ok {
			s.pairs[key] = pair
			fresh++
		}
	}
	return fresh, nil
}

func (s *fakeStore) LoadContests(_ context.Context) ([]models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Contest, 0, len(s.contests))
	for _, contest := range s.contests {
		out = append(out, contest)
	}
	return out, nil
}

func (s *fakeStore) LoadProblems(_ context.Context) ([]models.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Problem, 0, len(s.problems))
	for _, problem := range s.problems {
		out = append(out, problem)
	}
	return out, nil
}

func (s *fakeStore) LoadContestProblems(_ context.Context) ([]models.ContestProblem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ContestProblem, 0, len(s.pairs))
	for _, pair := range s.pairs {
		out = append(out, pair)
	}
	return out, nil
}

func (s *fakeStore) GetRunningVirtualContestProblems(_ context.Context, _ int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.runningProblems...), nil
}

func (s *fakeStore) storedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.submissions))
	for id := range s.submissions {
		out = append(out, id)
	}
	return out
}

func submission(id int64, contestID, problemID, userID, result string) models.Submission {
	return models.Submission{
		ID:          id,
		EpochSecond: id,
		ProblemID:   problemID,
		ContestID:   contestID,
		UserID:      userID,
		Language:    "C++ 20 (gcc 12.2)",
		Point:       100,
		Result:      result,
	}
}
