package store

import (
	"context"
	"fmt"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// UpsertAcceptedCounts replaces the accepted_count rows of the given users.
func (db *DB) UpsertAcceptedCounts(ctx context.Context, counts []models.UserProblemCount) error {
	for start := 0; start < len(counts); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(counts) {
			end = len(counts)
		}
		chunk := counts[start:end]

		userIDs := make([]string, 0, len(chunk))
		problemCounts := make([]int32, 0, len(chunk))
		for i := range chunk {
			userIDs = append(userIDs, chunk[i].UserID)
			problemCounts = append(problemCounts, int32(chunk[i].ProblemCount))
		}

		if err := db.Exec(ctx, `
			INSERT INTO accepted_count (user_id, problem_count)
			SELECT * FROM UNNEST($1::VARCHAR(255)[], $2::INTEGER[])
			ON CONFLICT (user_id)
			DO UPDATE SET problem_count = EXCLUDED.problem_count
		`, userIDs, problemCounts); err != nil {
			return fmt.Errorf("upsert accepted counts: %w", err)
		}
	}
	return nil
}

// UpsertRatedPointSums replaces the rated_point_sum rows of the given users.
func (db *DB) UpsertRatedPointSums(ctx context.Context, sums []models.UserPointSum) error {
	for start := 0; start < len(sums); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(sums) {
			end = len(sums)
		}
		chunk := sums[start:end]

		userIDs := make([]string, 0, len(chunk))
		pointSums := make([]int64, 0, len(chunk))
		for i := range chunk {
			userIDs = append(userIDs, chunk[i].UserID)
			pointSums = append(pointSums, chunk[i].PointSum)
		}

		if err := db.Exec(ctx, `
			INSERT INTO rated_point_sum (user_id, point_sum)
			SELECT * FROM UNNEST($1::VARCHAR(255)[], $2::BIGINT[])
			ON CONFLICT (user_id)
			DO UPDATE SET point_sum = EXCLUDED.point_sum
		`, userIDs, pointSums); err != nil {
			return fmt.Errorf("upsert rated point sums: %w", err)
		}
	}
	return nil
}

// UpsertStreaks replaces the max_streaks rows of the given users.
func (db *DB) UpsertStreaks(ctx context.Context, streaks []models.UserStreak) error {
	for start := 0; start < len(streaks); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(streaks) {
			end = len(streaks)
		}
		chunk := streaks[start:end]

		userIDs := make([]string, 0, len(chunk))
		values := make([]int64, 0, len(chunk))
		for i := range chunk {
			userIDs = append(userIDs, chunk[i].UserID)
			values = append(values, chunk[i].Streak)
		}

		if err := db.Exec(ctx, `
			INSERT INTO max_streaks (user_id, streak)
			SELECT * FROM UNNEST($1::VARCHAR(255)[], $2::BIGINT[])
			ON CONFLICT (user_id)
			DO UPDATE SET streak = EXCLUDED.streak
		`, userIDs, values); err != nil {
			return fmt.Errorf("upsert streaks: %w", err)
		}
	}
	return nil
}

// UpsertLanguageCounts replaces language_count rows keyed by
// (user_id, simplified_language).
func (db *DB) UpsertLanguageCounts(ctx context.Context, counts []models.UserLanguageCount) error {
	for start := 0; start < len(counts); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(counts) {
			end = len(counts)
		}
		chunk := counts[start:end]

		userIDs := make([]string, 0, len(chunk))
		languages := make([]string, 0, len(chunk))
		problemCounts := make([]int32, 0, len(chunk))
		for i := range chunk {
			userIDs = append(userIDs, chunk[i].UserID)
			languages = append(languages, chunk[i].SimplifiedLanguage)
			problemCounts = append(problemCounts, int32(chunk[i].ProblemCount))
		}

		if err := db.Exec(ctx, `
			INSERT INTO language_count (user_id, simplified_language, problem_count)
			SELECT * FROM UNNEST($1::VARCHAR(255)[], $2::VARCHAR(255)[], $3::INTEGER[])
			ON CONFLICT (user_id, simplified_language)
			DO UPDATE SET problem_count = EXCLUDED.problem_count
		`, userIDs, languages, problemCounts); err != nil {
			return fmt.Errorf("upsert language counts: %w", err)
		}
	}
	return nil
}

// RefreshSolverCounts recomputes the solver table from scratch. A plain
// GROUP BY over submissions is cheap enough that no delta bounding is
// worth it here.
func (db *DB) RefreshSolverCounts(ctx context.Context) error {
	if err := db.Exec(ctx, `
		INSERT INTO solver (user_count, problem_id)
			SELECT COUNT(DISTINCT(user_id)), problem_id
			FROM submissions
			WHERE result = $1
			GROUP BY problem_id
		ON CONFLICT (problem_id) DO UPDATE
		SET user_count = EXCLUDED.user_count
	`, models.AcceptedResult); err != nil {
		return fmt.Errorf("refresh solver counts: %w", err)
	}
	return nil
}

// RefreshProblemPoints recomputes the points table. Only submissions made
// after the contest started count: writers sometimes solve a problem
// before the contest while it still carries a provisional point value.
func (db *DB) RefreshProblemPoints(ctx context.Context) error {
	if err := db.Exec(ctx, `
		INSERT INTO points (problem_id, point)
			SELECT submissions.problem_id, MAX(submissions.point)
			FROM submissions
			INNER JOIN contests ON contests.id = submissions.contest_id
			WHERE contests.start_epoch_second >= $1
			AND submissions.epoch_second >= contests.start_epoch_second
			AND contests.rate_change != $2
			GROUP BY submissions.problem_id
		ON CONFLICT (problem_id) DO UPDATE
		SET point = EXCLUDED.point
	`, models.FirstRatedEpochSecond, models.UnratedState); err != nil {
		return fmt.Errorf("refresh problem points: %w", err)
	}
	return nil
}
