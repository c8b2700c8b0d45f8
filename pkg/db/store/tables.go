package store

import "context"

func (db *DB) initContests(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contests (
			id VARCHAR(255) PRIMARY KEY,
			start_epoch_second BIGINT NOT NULL,
			duration_second BIGINT NOT NULL,
			title TEXT NOT NULL,
			rate_change VARCHAR(255) NOT NULL
		)
	`)
}

func (db *DB) initProblems(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS problems (
			id VARCHAR(255) PRIMARY KEY,
			contest_id VARCHAR(255) NOT NULL,
			title TEXT NOT NULL
		)
	`)
}

func (db *DB) initContestProblems(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contest_problems (
			contest_id VARCHAR(255) NOT NULL,
			problem_id VARCHAR(255) NOT NULL,
			problem_index VARCHAR(255) NOT NULL,
			PRIMARY KEY (contest_id, problem_id)
		)
	`)
}

func (db *DB) initSubmissions(ctx context.Context) error {
	if err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS submissions (
			id BIGINT PRIMARY KEY,
			epoch_second BIGINT NOT NULL,
			problem_id VARCHAR(255) NOT NULL,
			contest_id VARCHAR(255) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			language VARCHAR(255) NOT NULL,
			point DOUBLE PRECISION NOT NULL,
			length INTEGER NOT NULL,
			result VARCHAR(255) NOT NULL,
			execution_time INTEGER
		)
	`); err != nil {
		return err
	}
	// The fix crawler scans by result+time, the delta updater by
	// result+id, user recomputation by user+result.
	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS submissions_user_result_idx ON submissions (user_id, result)`,
		`CREATE INDEX IF NOT EXISTS submissions_result_id_idx ON submissions (result, id DESC)`,
		`CREATE INDEX IF NOT EXISTS submissions_epoch_second_idx ON submissions (epoch_second)`,
		`CREATE INDEX IF NOT EXISTS submissions_contest_id_idx ON submissions (contest_id)`,
	} {
		if err := db.Exec(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) initAcceptedCount(ctx context.Context) error {
	if err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accepted_count (
			user_id VARCHAR(255) PRIMARY KEY,
			problem_count INTEGER NOT NULL
		)
	`); err != nil {
		return err
	}
	return db.Exec(ctx, `CREATE INDEX IF NOT EXISTS accepted_count_order_idx ON accepted_count (problem_count DESC, user_id ASC)`)
}

func (db *DB) initRatedPointSum(ctx context.Context) error {
	if err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rated_point_sum (
			user_id VARCHAR(255) PRIMARY KEY,
			point_sum BIGINT NOT NULL
		)
	`); err != nil {
		return err
	}
	return db.Exec(ctx, `CREATE INDEX IF NOT EXISTS rated_point_sum_order_idx ON rated_point_sum (point_sum DESC, user_id ASC)`)
}

func (db *DB) initMaxStreaks(ctx context.Context) error {
	if err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS max_streaks (
			user_id VARCHAR(255) PRIMARY KEY,
			streak BIGINT NOT NULL
		)
	`); err != nil {
		return err
	}
	return db.Exec(ctx, `CREATE INDEX IF NOT EXISTS max_streaks_order_idx ON max_streaks (streak DESC, user_id ASC)`)
}

func (db *DB) initLanguageCount(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS language_count (
			user_id VARCHAR(255) NOT NULL,
			simplified_language VARCHAR(255) NOT NULL,
			problem_count INTEGER NOT NULL,
			PRIMARY KEY (user_id, simplified_language)
		)
	`)
}

func (db *DB) initSolver(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS solver (
			problem_id VARCHAR(255) PRIMARY KEY,
			user_count INTEGER NOT NULL
		)
	`)
}

func (db *DB) initPoints(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS points (
			problem_id VARCHAR(255) PRIMARY KEY,
			point DOUBLE PRECISION NOT NULL
		)
	`)
}

func (db *DB) initVirtualContests(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS internal_virtual_contests (
			id VARCHAR(255) PRIMARY KEY,
			title TEXT NOT NULL,
			owner_user_id VARCHAR(255) NOT NULL,
			start_epoch_second BIGINT NOT NULL,
			duration_second BIGINT NOT NULL
		)
	`)
}

func (db *DB) initVirtualContestItems(ctx context.Context) error {
	return db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS internal_virtual_contest_items (
			internal_virtual_contest_id VARCHAR(255) NOT NULL,
			problem_id VARCHAR(255) NOT NULL,
			point BIGINT,
			item_order BIGINT,
			PRIMARY KEY (internal_virtual_contest_id, problem_id)
		)
	`)
}
