// Package db defines the narrow store capabilities consumed by the crawl
// strategies, the aggregation engine, and the query controller. The
// Postgres implementation lives in pkg/db/store; tests use in-memory
// fakes.
package db

import (
	"context"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// SubmissionStore is the ingestion and reconciliation contract. Upserts
// are idempotent on submission id; a re-observed id with a different
// result overwrites, never duplicates.
type SubmissionStore interface {
	// UpsertSubmissions writes the batch and returns how many rows were
	// newly inserted (as opposed to updated).
	UpsertSubmissions(ctx context.Context, submissions []models.Submission) (int64, error)
	// GetInvalidResultSubmissions returns stored submissions whose result
	// is still a transient judge placeholder, observed at or after
	// fromSecond, newest first.
	GetInvalidResultSubmissions(ctx context.Context, fromSecond int64) ([]models.Submission, error)
	// CountStoredSubmissions reports how many of the given ids are already
	// stored.
	CountStoredSubmissions(ctx context.Context, ids []int64) (int, error)
}

// AcceptedSubmissionReader feeds the aggregation engine.
type AcceptedSubmissionReader interface {
	// GetRecentAcceptedSubmissions returns the most recent accepted
	// submissions ordered by id descending, at most limit rows.
	GetRecentAcceptedSubmissions(ctx context.Context, limit int64) ([]models.Submission, error)
	// GetAcceptedSubmissionsForUsers returns every accepted submission of
	// the given users.
	GetAcceptedSubmissionsForUsers(ctx context.Context, userIDs []string) ([]models.Submission, error)
	// GetAllAcceptedSubmissions returns every accepted submission.
	GetAllAcceptedSubmissions(ctx context.Context) ([]models.Submission, error)
}

// ContestStore holds contest and problem metadata.
type ContestStore interface {
	InsertContests(ctx context.Context, contests []models.Contest) (int64, error)
	InsertProblems(ctx context.Context, problems []models.Problem) (int64, error)
	InsertContestProblems(ctx context.Context, pairs []models.ContestProblem) (int64, error)
	LoadContests(ctx context.Context) ([]models.Contest, error)
	LoadProblems(ctx context.Context) ([]models.Problem, error)
	LoadContestProblems(ctx context.Context) ([]models.ContestProblem, error)
}

// AggregateStore receives recomputed ranking rows. Each upsert replaces
// the previous value wholesale; aggregates stay reproducible from the
// submissions table alone.
type AggregateStore interface {
	UpsertAcceptedCounts(ctx context.Context, counts []models.UserProblemCount) error
	UpsertRatedPointSums(ctx context.Context, sums []models.UserPointSum) error
	UpsertStreaks(ctx context.Context, streaks []models.UserStreak) error
	UpsertLanguageCounts(ctx context.Context, counts []models.UserLanguageCount) error
	// RefreshSolverCounts and RefreshProblemPoints are full GROUP BY
	// recomputations over the submissions/contests relation.
	RefreshSolverCounts(ctx context.Context) error
	RefreshProblemPoints(ctx context.Context) error
}

// RankingStore serves the materialized ranking tables to the query API.
type RankingStore interface {
	GetAcceptedCountRanking(ctx context.Context, from, to int) ([]models.UserProblemCount, error)
	GetUserAcceptedCount(ctx context.Context, userID string) (int, error)
	GetAcceptedCountRank(ctx context.Context, count int) (int64, error)

	GetRatedPointSumRanking(ctx context.Context, from, to int) ([]models.UserPointSum, error)
	GetUserRatedPointSum(ctx context.Context, userID string) (int64, bool, error)
	GetRatedPointSumRank(ctx context.Context, pointSum int64) (int64, error)

	GetStreakRanking(ctx context.Context, from, to int) ([]models.UserStreak, error)
	GetUserStreak(ctx context.Context, userID string) (int64, error)
	GetStreakRank(ctx context.Context, streak int64) (int64, error)

	GetLanguageRanking(ctx context.Context, language string, from, to int) ([]models.UserProblemCount, error)
	GetLanguages(ctx context.Context) ([]string, error)

	GetSolverCounts(ctx context.Context) ([]models.ProblemSolver, error)
	GetProblemPoints(ctx context.Context) ([]models.ProblemPoint, error)
}

// VirtualContestStore resolves user-defined contests for crawl targeting.
type VirtualContestStore interface {
	// GetRunningVirtualContestProblems returns the problem ids of every
	// virtual contest whose window contains the given time.
	GetRunningVirtualContestProblems(ctx context.Context, timeSecond int64) ([]string, error)
}
