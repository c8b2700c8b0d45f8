package store

import (
	"context"
	"fmt"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
	"github.com/atcoder-problems/problemsx/pkg/db/postgres"
)

// Ranking reads. Ranges are [from, to) ordered by metric descending with
// user_id ascending as the deterministic tie-break; rank of a value is
// 1 + the number of users strictly above it, so equal metrics share a
// rank.

func (db *DB) GetAcceptedCountRanking(ctx context.Context, from, to int) ([]models.UserProblemCount, error) {
	rows, err := db.Query(ctx, `
		SELECT user_id, problem_count FROM accepted_count
		ORDER BY problem_count DESC, user_id ASC
		OFFSET $1 LIMIT $2
	`, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("load accepted count ranking: %w", err)
	}
	defer rows.Close()

	var ranking []models.UserProblemCount
	for rows.Next() {
		var r models.UserProblemCount
		if err := rows.Scan(&r.UserID, &r.ProblemCount); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

func (db *DB) GetUserAcceptedCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.QueryRow(ctx, `
		SELECT problem_count FROM accepted_count WHERE user_id = $1
	`, userID).Scan(&count)
	if postgres.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load user accepted count: %w", err)
	}
	return count, nil
}

func (db *DB) GetAcceptedCountRank(ctx context.Context, count int) (int64, error) {
	var above int64
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM accepted_count WHERE problem_count > $1
	`, count).Scan(&above)
	if err != nil {
		return 0, fmt.Errorf("load accepted count rank: %w", err)
	}
	return above + 1, nil
}

func (db *DB) GetRatedPointSumRanking(ctx context.Context, from, to int) ([]models.UserPointSum, error) {
	rows, err := db.Query(ctx, `
		SELECT user_id, point_sum FROM rated_point_sum
		ORDER BY point_sum DESC, user_id ASC
		OFFSET $1 LIMIT $2
	`, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("load rated point sum ranking: %w", err)
	}
	defer rows.Close()

	var ranking []models.UserPointSum
	for rows.Next() {
		var r models.UserPointSum
		if err := rows.Scan(&r.UserID, &r.PointSum); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

// GetUserRatedPointSum reports the user's rated point sum and whether a
// row exists at all. The distinction matters: a user whose accepted
// problems are all unrated legitimately holds a sum of 0.
func (db *DB) GetUserRatedPointSum(ctx context.Context, userID string) (int64, bool, error) {
	var sum int64
	err := db.QueryRow(ctx, `
		SELECT point_sum FROM rated_point_sum WHERE user_id = $1
	`, userID).Scan(&sum)
	if postgres.IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load user rated point sum: %w", err)
	}
	return sum, true, nil
}

func (db *DB) GetRatedPointSumRank(ctx context.Context, pointSum int64) (int64, error) {
	var above int64
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM rated_point_sum WHERE point_sum > $1
	`, pointSum).Scan(&above)
	if err != nil {
		return 0, fmt.Errorf("load rated point sum rank: %w", err)
	}
	return above + 1, nil
}

func (db *DB) GetStreakRanking(ctx context.Context, from, to int) ([]models.UserStreak, error) {
	rows, err := db.Query(ctx, `
		SELECT user_id, streak FROM max_streaks
		ORDER BY streak DESC, user_id ASC
		OFFSET $1 LIMIT $2
	`, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("load streak ranking: %w", err)
	}
	defer rows.Close()

	var ranking []models.UserStreak
	for rows.Next() {
		var r models.UserStreak
		if err := rows.Scan(&r.UserID, &r.Streak); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

func (db *DB) GetUserStreak(ctx context.Context, userID string) (int64, error) {
	var streak int64
	err := db.QueryRow(ctx, `
		SELECT streak FROM max_streaks WHERE user_id = $1
	`, userID).Scan(&streak)
	if postgres.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load user streak: %w", err)
	}
	return streak, nil
}

func (db *DB) GetStreakRank(ctx context.Context, streak int64) (int64, error) {
	var above int64
	err := db.QueryRow(ctx, `
		SELECT COUNT(*) FROM max_streaks WHERE streak > $1
	`, streak).Scan(&above)
	if err != nil {
		return 0, fmt.Errorf("load streak rank: %w", err)
	}
	return above + 1, nil
}

func (db *DB) GetLanguageRanking(ctx context.Context, language string, from, to int) ([]models.UserProblemCount, error) {
	rows, err := db.Query(ctx, `
		SELECT user_id, problem_count FROM language_count
		WHERE simplified_language = $1
		ORDER BY problem_count DESC, user_id ASC
		OFFSET $2 LIMIT $3
	`, language, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("load language ranking: %w", err)
	}
	defer rows.Close()

	var ranking []models.UserProblemCount
	for rows.Next() {
		var r models.UserProblemCount
		if err := rows.Scan(&r.UserID, &r.ProblemCount); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	return ranking, rows.Err()
}

func (db *DB) GetLanguages(ctx context.Context) ([]string, error) {
	rows, err := db.Query(ctx, `
		SELECT DISTINCT simplified_language FROM language_count
		ORDER BY simplified_language
	`)
	if err != nil {
		return nil, fmt.Errorf("load languages: %w", err)
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		languages = append(languages, l)
	}
	return languages, rows.Err()
}

func (db *DB) GetSolverCounts(ctx context.Context) ([]models.ProblemSolver, error) {
	rows, err := db.Query(ctx, `SELECT problem_id, user_count FROM solver`)
	if err != nil {
		return nil, fmt.Errorf("load solver counts: %w", err)
	}
	defer rows.Close()

	var solvers []models.ProblemSolver
	for rows.Next() {
		var s models.ProblemSolver
		if err := rows.Scan(&s.ProblemID, &s.UserCount); err != nil {
			return nil, err
		}
		solvers = append(solvers, s)
	}
	return solvers, rows.Err()
}

func (db *DB) GetProblemPoints(ctx context.Context) ([]models.ProblemPoint, error) {
	rows, err := db.Query(ctx, `SELECT problem_id, point FROM points`)
	if err != nil {
		return nil, fmt.Errorf("load problem points: %w", err)
	}
	defer rows.Close()

	var points []models.ProblemPoint
	for rows.Next() {
		var p models.ProblemPoint
		if err := rows.Scan(&p.ProblemID, &p.Point); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
