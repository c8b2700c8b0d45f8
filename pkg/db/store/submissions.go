package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// maxInsertRows bounds the array size of one UNNEST upsert statement.
const maxInsertRows = 5000

// UpsertSubmissions writes submissions keyed by id. Re-observation of a
// known id overwrites the judge-mutable columns (user_id, result, point,
// execution_time). Returns the number of newly inserted rows.
func (db *DB) UpsertSubmissions(ctx context.Context, submissions []models.Submission) (int64, error) {
	if len(submissions) == 0 {
		return 0, nil
	}

	var inserted int64
	for start := 0; start < len(submissions); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(submissions) {
			end = len(submissions)
		}
		chunk := submissions[start:end]

		ids := make([]int64, 0, len(chunk))
		epochSeconds := make([]int64, 0, len(chunk))
		problemIDs := make([]string, 0, len(chunk))
		contestIDs := make([]string, 0, len(chunk))
		userIDs := make([]string, 0, len(chunk))
		languages := make([]string, 0, len(chunk))
		points := make([]float64, 0, len(chunk))
		lengths := make([]int32, 0, len(chunk))
		results := make([]string, 0, len(chunk))
		executionTimes := make([]*int32, 0, len(chunk))
		for i := range chunk {
			s := &chunk[i]
			ids = append(ids, s.ID)
			epochSeconds = append(epochSeconds, s.EpochSecond)
			problemIDs = append(problemIDs, s.ProblemID)
			contestIDs = append(contestIDs, s.ContestID)
			userIDs = append(userIDs, s.UserID)
			languages = append(languages, s.Language)
			points = append(points, s.Point)
			lengths = append(lengths, s.Length)
			results = append(results, s.Result)
			executionTimes = append(executionTimes, s.ExecutionTime)
		}

		// xmax = 0 distinguishes a fresh insert from a conflict update.
		rows, err := db.Query(ctx, `
			INSERT INTO submissions
			(id, epoch_second, problem_id, contest_id, user_id, language, point, length, result, execution_time)
			SELECT * FROM UNNEST(
				$1::BIGINT[],
				$2::BIGINT[],
				$3::VARCHAR(255)[],
				$4::VARCHAR(255)[],
				$5::VARCHAR(255)[],
				$6::VARCHAR(255)[],
				$7::FLOAT8[],
				$8::INTEGER[],
				$9::VARCHAR(255)[],
				$10::INTEGER[]
			)
			ON CONFLICT (id)
			DO UPDATE SET
				user_id = EXCLUDED.user_id,
				result = EXCLUDED.result,
				point = EXCLUDED.point,
				execution_time = EXCLUDED.execution_time
			RETURNING (xmax = 0)
		`, ids, epochSeconds, problemIDs, contestIDs, userIDs, languages, points, lengths, results, executionTimes)
		if err != nil {
			return inserted, fmt.Errorf("upsert submissions: %w", err)
		}

		for rows.Next() {
			var fresh bool
			if scanErr := rows.Scan(&fresh); scanErr != nil {
				rows.Close()
				return inserted, fmt.Errorf("upsert submissions: %w", scanErr)
			}
			if fresh {
				inserted++
			}
		}
		rowsErr := rows.Err()
		rows.Close()
		if rowsErr != nil {
			return inserted, fmt.Errorf("upsert submissions: %w", rowsErr)
		}
	}

	return inserted, nil
}

const submissionColumns = `id, epoch_second, problem_id, contest_id, user_id, language, point, length, result, execution_time`

func scanSubmissions(rows pgx.Rows) ([]models.Submission, error) {
	defer rows.Close()
	var submissions []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(
			&s.ID, &s.EpochSecond, &s.ProblemID, &s.ContestID, &s.UserID,
			&s.Language, &s.Point, &s.Length, &s.Result, &s.ExecutionTime,
		); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// GetInvalidResultSubmissions returns submissions whose result is still a
// transient judge placeholder, observed at or after fromSecond.
func (db *DB) GetInvalidResultSubmissions(ctx context.Context, fromSecond int64) ([]models.Submission, error) {
	rows, err := db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE result != ALL($1::VARCHAR(255)[])
		AND epoch_second >= $2
		ORDER BY id DESC
	`, models.ValidResults, fromSecond)
	if err != nil {
		return nil, fmt.Errorf("load invalid submissions: %w", err)
	}
	return scanSubmissions(rows)
}

// CountStoredSubmissions reports how many of the given ids already exist.
func (db *DB) CountStoredSubmissions(ctx context.Context, ids []int64) (int, error) {
	var count int
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions WHERE id = ANY($1)
	`, ids).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stored submissions: %w", err)
	}
	return count, nil
}

// GetRecentAcceptedSubmissions returns the newest accepted submissions by
// id descending; this is the delta the aggregation engine works from.
func (db *DB) GetRecentAcceptedSubmissions(ctx context.Context, limit int64) ([]models.Submission, error) {
	rows, err := db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE result = $1
		ORDER BY id DESC
		LIMIT $2
	`, models.AcceptedResult, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent accepted submissions: %w", err)
	}
	return scanSubmissions(rows)
}

// GetAcceptedSubmissionsForUsers returns the complete accepted history of
// the given users.
func (db *DB) GetAcceptedSubmissionsForUsers(ctx context.Context, userIDs []string) ([]models.Submission, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE result = $1
		AND user_id = ANY($2)
	`, models.AcceptedResult, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load accepted submissions for users: %w", err)
	}
	return scanSubmissions(rows)
}

// GetAllAcceptedSubmissions returns every accepted submission; the batch
// updater uses this for full recomputation.
func (db *DB) GetAllAcceptedSubmissions(ctx context.Context) ([]models.Submission, error) {
	rows, err := db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE result = $1
	`, models.AcceptedResult)
	if err != nil {
		return nil, fmt.Errorf("load all accepted submissions: %w", err)
	}
	return scanSubmissions(rows)
}

// GetSubmissionsSince returns submissions observed at or after fromSecond,
// oldest first, at most limit rows.
func (db *DB) GetSubmissionsSince(ctx context.Context, fromSecond, limit int64) ([]models.Submission, error) {
	rows, err := db.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE epoch_second >= $1
		ORDER BY epoch_second ASC
		LIMIT $2
	`, fromSecond, limit)
	if err != nil {
		return nil, fmt.Errorf("load submissions since: %w", err)
	}
	return scanSubmissions(rows)
}
