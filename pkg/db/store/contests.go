package store

import (
	"context"
	"fmt"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// InsertContests stores contests, ignoring already-known ids. Contest rows
// are immutable once observed.
func (db *DB) InsertContests(ctx context.Context, contests []models.Contest) (int64, error) {
	if len(contests) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(contests))
	startEpochSeconds := make([]int64, 0, len(contests))
	durationSeconds := make([]int64, 0, len(contests))
	titles := make([]string, 0, len(contests))
	rateChanges := make([]string, 0, len(contests))
	for i := range contests {
		c := &contests[i]
		ids = append(ids, c.ID)
		startEpochSeconds = append(startEpochSeconds, c.StartEpochSecond)
		durationSeconds = append(durationSeconds, c.DurationSecond)
		titles = append(titles, c.Title)
		rateChanges = append(rateChanges, c.RateChange)
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO contests
		(id, start_epoch_second, duration_second, title, rate_change)
		SELECT * FROM UNNEST(
			$1::VARCHAR(255)[],
			$2::BIGINT[],
			$3::BIGINT[],
			$4::TEXT[],
			$5::VARCHAR(255)[]
		)
		ON CONFLICT DO NOTHING
	`, ids, startEpochSeconds, durationSeconds, titles, rateChanges)
	if err != nil {
		return 0, fmt.Errorf("insert contests: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertProblems stores problems, ignoring already-known ids.
func (db *DB) InsertProblems(ctx context.Context, problems []models.Problem) (int64, error) {
	if len(problems) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(problems))
	contestIDs := make([]string, 0, len(problems))
	titles := make([]string, 0, len(problems))
	for i := range problems {
		p := &problems[i]
		ids = append(ids, p.ID)
		contestIDs = append(contestIDs, p.ContestID)
		titles = append(titles, p.Title)
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO problems (id, contest_id, title)
		SELECT * FROM UNNEST(
			$1::VARCHAR(255)[],
			$2::VARCHAR(255)[],
			$3::TEXT[]
		)
		ON CONFLICT DO NOTHING
	`, ids, contestIDs, titles)
	if err != nil {
		return 0, fmt.Errorf("insert problems: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertContestProblems stores contest-problem pairs.
func (db *DB) InsertContestProblems(ctx context.Context, pairs []models.ContestProblem) (int64, error) {
	if len(pairs) == 0 {
		return 0, nil
	}

	contestIDs := make([]string, 0, len(pairs))
	problemIDs := make([]string, 0, len(pairs))
	problemIndexes := make([]string, 0, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		contestIDs = append(contestIDs, p.ContestID)
		problemIDs = append(problemIDs, p.ProblemID)
		problemIndexes = append(problemIndexes, p.ProblemIndex)
	}

	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO contest_problems (contest_id, problem_id, problem_index)
		SELECT * FROM UNNEST(
			$1::VARCHAR(255)[],
			$2::VARCHAR(255)[],
			$3::VARCHAR(255)[]
		)
		ON CONFLICT DO NOTHING
	`, contestIDs, problemIDs, problemIndexes)
	if err != nil {
		return 0, fmt.Errorf("insert contest problems: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LoadContests returns all known contests.
func (db *DB) LoadContests(ctx context.Context) ([]models.Contest, error) {
	rows, err := db.Query(ctx, `
		SELECT id, start_epoch_second, duration_second, title, rate_change
		FROM contests
	`)
	if err != nil {
		return nil, fmt.Errorf("load contests: %w", err)
	}
	defer rows.Close()

	var contests []models.Contest
	for rows.Next() {
		var c models.Contest
		if err := rows.Scan(&c.ID, &c.StartEpochSecond, &c.DurationSecond, &c.Title, &c.RateChange); err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

// LoadProblems returns all known problems.
func (db *DB) LoadProblems(ctx context.Context) ([]models.Problem, error) {
	rows, err := db.Query(ctx, `SELECT id, contest_id, title FROM problems`)
	if err != nil {
		return nil, fmt.Errorf("load problems: %w", err)
	}
	defer rows.Close()

	var problems []models.Problem
	for rows.Next() {
		var p models.Problem
		if err := rows.Scan(&p.ID, &p.ContestID, &p.Title); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// LoadContestProblems returns all contest-problem pairs.
func (db *DB) LoadContestProblems(ctx context.Context) ([]models.ContestProblem, error) {
	rows, err := db.Query(ctx, `SELECT contest_id, problem_id, problem_index FROM contest_problems`)
	if err != nil {
		return nil, fmt.Errorf("load contest problems: %w", err)
	}
	defer rows.Close()

	var pairs []models.ContestProblem
	for rows.Next() {
		var p models.ContestProblem
		if err := rows.Scan(&p.ContestID, &p.ProblemID, &p.ProblemIndex); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// GetRunningVirtualContestProblems returns the problem ids of every
// virtual contest whose window contains timeSecond.
func (db *DB) GetRunningVirtualContestProblems(ctx context.Context, timeSecond int64) ([]string, error) {
	rows, err := db.Query(ctx, `
		SELECT a.problem_id
		FROM internal_virtual_contest_items AS a
		LEFT JOIN internal_virtual_contests AS b
		ON a.internal_virtual_contest_id = b.id
		WHERE b.start_epoch_second <= $1
		AND b.start_epoch_second + b.duration_second >= $1
	`, timeSecond)
	if err != nil {
		return nil, fmt.Errorf("load running virtual contest problems: %w", err)
	}
	defer rows.Close()

	var problemIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		problemIDs = append(problemIDs, id)
	}
	return problemIDs, rows.Err()
}
