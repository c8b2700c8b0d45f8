package models

// FirstRatedEpochSecond is the start time of the first rated contest
// (AGC001). Contests that started earlier never affect ratings, whatever
// their rate_change says.
const FirstRatedEpochSecond int64 = 1_468_670_400

// UnratedState is the rate_change marker of an unrated contest.
const UnratedState = "-"

// AcceptedResult is the verdict of a correct submission.
const AcceptedResult = "AC"

// ValidResults are the terminal judge verdicts. Anything else (judge
// pending, partial progress like "5/12") is transient and must be fixed by
// re-crawling once the judge settles.
var ValidResults = []string{"AC", "WA", "TLE", "CE", "RE", "MLE", "OLE", "QLE", "IE", "NG"}

type Contest struct {
	ID               string `json:"id"`
	StartEpochSecond int64  `json:"start_epoch_second"`
	DurationSecond   int64  `json:"duration_second"`
	Title            string `json:"title"`
	RateChange       string `json:"rate_change"`
}

// IsRated reports whether performances in the contest affect ratings.
func (c *Contest) IsRated() bool {
	return c.StartEpochSecond >= FirstRatedEpochSecond && c.RateChange != UnratedState
}

type Problem struct {
	ID        string `json:"id"`
	ContestID string `json:"contest_id"`
	Title     string `json:"title"`
}

// ContestProblem links a problem to the contest page it appears on, with
// its position ("A", "B", ...) on that page.
type ContestProblem struct {
	ContestID    string `json:"contest_id"`
	ProblemID    string `json:"problem_id"`
	ProblemIndex string `json:"problem_index"`
}

type Submission struct {
	ID            int64   `json:"id"`
	EpochSecond   int64   `json:"epoch_second"`
	ProblemID     string  `json:"problem_id"`
	ContestID     string  `json:"contest_id"`
	UserID        string  `json:"user_id"`
	Language      string  `json:"language"`
	Point         float64 `json:"point"`
	Length        int32   `json:"length"`
	Result        string  `json:"result"`
	ExecutionTime *int32  `json:"execution_time"`
}

// IsAccepted reports whether the submission solved its problem.
func (s *Submission) IsAccepted() bool {
	return s.Result == AcceptedResult
}

// HasTerminalResult reports whether the judge has settled on a verdict.
func (s *Submission) HasTerminalResult() bool {
	for _, r := range ValidResults {
		if s.Result == r {
			return true
		}
	}
	return false
}

// UserProblemCount is one row of the accepted_count ranking table.
type UserProblemCount struct {
	UserID       string `json:"user_id"`
	ProblemCount int    `json:"problem_count"`
}

// UserPointSum is one row of the rated_point_sum ranking table.
type UserPointSum struct {
	UserID   string `json:"user_id"`
	PointSum int64  `json:"point_sum"`
}

// UserStreak is one row of the max_streaks ranking table.
type UserStreak struct {
	UserID string `json:"user_id"`
	Streak int64  `json:"streak"`
}

// UserLanguageCount is one row of the language_count ranking table, keyed
// by (user_id, simplified_language).
type UserLanguageCount struct {
	UserID             string `json:"user_id"`
	SimplifiedLanguage string `json:"language"`
	ProblemCount       int    `json:"count"`
}

// ProblemSolver is one row of the solver table.
type ProblemSolver struct {
	ProblemID string `json:"problem_id"`
	UserCount int    `json:"user_count"`
}

// ProblemPoint is one row of the points table: the maximum point observed
// among in-contest submissions to the problem in rated contests.
type ProblemPoint struct {
	ProblemID string  `json:"problem_id"`
	Point     float64 `json:"point"`
}

// VirtualContest is a user-defined, time-boxed problem set tracked
// internally, distinct from official site contests.
type VirtualContest struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	OwnerUserID      string `json:"owner_user_id"`
	StartEpochSecond int64  `json:"start_epoch_second"`
	DurationSecond   int64  `json:"duration_second"`
}

// VirtualContestItem is one problem entry of a virtual contest.
type VirtualContestItem struct {
	VirtualContestID string `json:"virtual_contest_id"`
	ProblemID        string `json:"problem_id"`
	Point            *int64 `json:"point"`
	Order            *int64 `json:"order"`
}
