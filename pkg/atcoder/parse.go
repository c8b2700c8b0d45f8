package atcoder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
)

// permanentContestDurationSecond marks the always-open contests; they
// never end, so any "running" check must pass.
const permanentContestDurationSecond = 100 * 365 * 24 * 3600

const siteTimeLayout = "2006-01-02 15:04:05-0700"

var (
	pageParamRe    = regexp.MustCompile(`page=(\d+)$`)
	submissionHref = regexp.MustCompile(`submissions/(\d+)$`)
)

func newDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPage, err)
	}
	return doc, nil
}

// parseSubmissionPageCount finds the highest page number linked from the
// pager; defaults to 1 when the list fits on a single page.
func parseSubmissionPageCount(html string) (int, error) {
	doc, err := newDocument(html)
	if err != nil {
		return 0, err
	}

	maxPage := 1
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		m := pageParamRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > maxPage {
			maxPage = n
		}
	})
	return maxPage, nil
}

// parseSubmissions reads the submission table. Rows whose verdict is CE
// have no execution-time cell, so the last columns are read defensively.
func parseSubmissions(html string, contestID string) ([]models.Submission, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		// Contests with no submissions render no table at all.
		return nil, nil
	}

	var submissions []models.Submission
	var parseErr error
	tbody.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() < 7 {
			parseErr = fmt.Errorf("%w: submission row has %d cells", ErrBadPage, tds.Length())
			return false
		}

		at, timeErr := time.Parse(siteTimeLayout, strings.TrimSpace(tds.Eq(0).Text()))
		if timeErr != nil {
			parseErr = fmt.Errorf("%w: %v", ErrBadPage, timeErr)
			return false
		}

		problemID, ok := lastHrefSegment(tds.Eq(1).Find("a").First())
		if !ok {
			parseErr = fmt.Errorf("%w: submission row without problem link", ErrBadPage)
			return false
		}
		userID, ok := lastHrefSegment(tds.Eq(2).Find("a").First())
		if !ok {
			parseErr = fmt.Errorf("%w: submission row without user link", ErrBadPage)
			return false
		}

		language := strings.TrimSpace(tds.Eq(3).Text())
		point, pointErr := strconv.ParseFloat(strings.TrimSpace(tds.Eq(4).Text()), 64)
		if pointErr != nil {
			parseErr = fmt.Errorf("%w: %v", ErrBadPage, pointErr)
			return false
		}
		lengthText := strings.TrimSpace(strings.ReplaceAll(tds.Eq(5).Text(), "Byte", ""))
		length, lengthErr := strconv.ParseInt(lengthText, 10, 32)
		if lengthErr != nil {
			parseErr = fmt.Errorf("%w: %v", ErrBadPage, lengthErr)
			return false
		}
		result := strings.TrimSpace(tds.Eq(6).Text())

		var executionTime *int32
		if tds.Length() > 7 {
			msText := strings.TrimSpace(strings.ReplaceAll(tds.Eq(7).Text(), "ms", ""))
			if ms, msErr := strconv.ParseInt(msText, 10, 32); msErr == nil {
				v := int32(ms)
				executionTime = &v
			}
		}

		var id int64
		found := false
		tr.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, hrefOK := a.Attr("href")
			if !hrefOK {
				return true
			}
			m := submissionHref.FindStringSubmatch(href)
			if m == nil {
				return true
			}
			if n, convErr := strconv.ParseInt(m[1], 10, 64); convErr == nil {
				id = n
				found = true
				return false
			}
			return true
		})
		if !found {
			parseErr = fmt.Errorf("%w: submission row without detail link", ErrBadPage)
			return false
		}

		submissions = append(submissions, models.Submission{
			ID:            id,
			EpochSecond:   at.Unix(),
			ProblemID:     problemID,
			ContestID:     contestID,
			UserID:        userID,
			Language:      language,
			Point:         point,
			Length:        int32(length),
			Result:        result,
			ExecutionTime: executionTime,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return submissions, nil
}

// parseContestArchive reads one page of the contest archive table.
func parseContestArchive(html string) ([]models.Contest, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		// Past the last archive page.
		return nil, nil
	}

	var contests []models.Contest
	var parseErr error
	tbody.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() < 4 {
			parseErr = fmt.Errorf("%w: contest row has %d cells", ErrBadPage, tds.Length())
			return false
		}

		start, timeErr := time.Parse(siteTimeLayout, strings.TrimSpace(tds.Eq(0).Text()))
		if timeErr != nil {
			parseErr = fmt.Errorf("%w: %v", ErrBadPage, timeErr)
			return false
		}

		link := tds.Eq(1).Find("a").First()
		id, ok := lastHrefSegment(link)
		if !ok {
			parseErr = fmt.Errorf("%w: contest row without link", ErrBadPage)
			return false
		}
		title := strings.TrimSpace(link.Text())

		duration, durErr := parseDuration(strings.TrimSpace(tds.Eq(2).Text()))
		if durErr != nil {
			parseErr = durErr
			return false
		}
		rateChange := strings.TrimSpace(tds.Eq(3).Text())

		contests = append(contests, models.Contest{
			ID:               id,
			StartEpochSecond: start.Unix(),
			DurationSecond:   duration,
			Title:            title,
			RateChange:       rateChange,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return contests, nil
}

// parsePermanentContests reads the permanent section of the contest
// index. These contests have no start time and effectively never end.
func parsePermanentContests(html string) ([]models.Contest, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	tbody := doc.Find("#contest-table-permanent tbody").First()
	if tbody.Length() == 0 {
		return nil, nil
	}

	var contests []models.Contest
	var parseErr error
	tbody.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() < 2 {
			parseErr = fmt.Errorf("%w: permanent contest row has %d cells", ErrBadPage, tds.Length())
			return false
		}

		link := tds.Eq(0).Find("a").First()
		id, ok := lastHrefSegment(link)
		if !ok {
			parseErr = fmt.Errorf("%w: permanent contest row without link", ErrBadPage)
			return false
		}
		title := strings.TrimSpace(link.Text())
		rateChange := strings.TrimSpace(tds.Eq(1).Text())

		contests = append(contests, models.Contest{
			ID:               id,
			StartEpochSecond: 0,
			DurationSecond:   permanentContestDurationSecond,
			Title:            title,
			RateChange:       rateChange,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return contests, nil
}

// parseProblems reads a contest's task list. The stored title carries the
// position prefix ("A. Frog Jump") the way the site displays it.
func parseProblems(html string, contestID string) ([]models.Problem, []models.ContestProblem, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, nil, err
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, nil, fmt.Errorf("%w: task list without table", ErrBadPage)
	}

	var problems []models.Problem
	var pairs []models.ContestProblem
	var parseErr error
	tbody.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() < 2 {
			parseErr = fmt.Errorf("%w: task row has %d cells", ErrBadPage, tds.Length())
			return false
		}

		position := strings.TrimSpace(tds.Eq(0).Text())
		link := tds.Eq(1).Find("a").First()
		id, ok := lastHrefSegment(link)
		if !ok {
			parseErr = fmt.Errorf("%w: task row without link", ErrBadPage)
			return false
		}
		name := strings.TrimSpace(link.Text())

		problems = append(problems, models.Problem{
			ID:        id,
			ContestID: contestID,
			Title:     position + ". " + name,
		})
		pairs = append(pairs, models.ContestProblem{
			ContestID:    contestID,
			ProblemID:    id,
			ProblemIndex: position,
		})
		return true
	})
	if parseErr != nil {
		return nil, nil, parseErr
	}
	return problems, pairs, nil
}

func parseCSRFToken(html string) (string, error) {
	doc, err := newDocument(html)
	if err != nil {
		return "", err
	}
	token, ok := doc.Find(`input[name="csrf_token"]`).First().Attr("value")
	if !ok || token == "" {
		return "", fmt.Errorf("%w: no csrf token on login page", ErrBadPage)
	}
	return token, nil
}

func containsLoginForm(html string) bool {
	doc, err := newDocument(html)
	if err != nil {
		return false
	}
	return doc.Find(`input[name="csrf_token"]`).Length() > 0 &&
		doc.Find(`input[name="password"]`).Length() > 0
}

func lastHrefSegment(a *goquery.Selection) (string, bool) {
	href, ok := a.Attr("href")
	if !ok || href == "" {
		return "", false
	}
	segments := strings.Split(strings.TrimSuffix(href, "/"), "/")
	return segments[len(segments)-1], true
}

// parseDuration converts the archive's "H:MM" column (hours may exceed
// two digits for marathon contests) into seconds.
func parseDuration(s string) (int64, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: bad duration %q", ErrBadPage, s)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad duration %q", ErrBadPage, s)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad duration %q", ErrBadPage, s)
	}
	return hours*3600 + minutes*60, nil
}
