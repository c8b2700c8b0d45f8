package atcoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const submissionPage = `
<html><body>
<ul class="pagination">
  <li><a href="/contests/abc001/submissions?page=1">1</a></li>
  <li><a href="/contests/abc001/submissions?page=2">2</a></li>
  <li><a href="/contests/abc001/submissions?page=30">30</a></li>
</ul>
<table><tbody>
<tr>
  <td>2019-10-04 00:00:00+0900</td>
  <td><a href="/contests/abc001/tasks/abc001_a">A. Product</a></td>
  <td><a href="/users/tourist">tourist</a></td>
  <td>C++14 (GCC 5.4.1)</td>
  <td>100</td>
  <td>123 Byte</td>
  <td>AC</td>
  <td>12 ms</td>
  <td><a href="/contests/abc001/submissions/123456">Detail</a></td>
</tr>
<tr>
  <td>2019-10-04 00:01:00+0900</td>
  <td><a href="/contests/abc001/tasks/abc001_b">B. Snow</a></td>
  <td><a href="/users/petr">petr</a></td>
  <td>Rust (1.42.0)</td>
  <td>0</td>
  <td>45 Byte</td>
  <td>CE</td>
  <td><a href="/contests/abc001/submissions/123457">Detail</a></td>
</tr>
</tbody></table>
</body></html>`

func TestParseSubmissionPageCount(t *testing.T) {
	count, err := parseSubmissionPageCount(submissionPage)
	require.NoError(t, err)
	assert.Equal(t, 30, count)
}

func TestParseSubmissionPageCountSinglePage(t *testing.T) {
	count, err := parseSubmissionPageCount("<html><body><table><tbody></tbody></table></body></html>")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestParseSubmissions(t *testing.T) {
	submissions, err := parseSubmissions(submissionPage, "abc001")
	require.NoError(t, err)
	require.Len(t, submissions, 2)

	first := submissions[0]
	assert.Equal(t, int64(123456), first.ID)
	// 2019-10-04 00:00:00+0900
	assert.Equal(t, int64(1570114800), first.EpochSecond)
	assert.Equal(t, "abc001_a", first.ProblemID)
	assert.Equal(t, "abc001", first.ContestID)
	assert.Equal(t, "tourist", first.UserID)
	assert.Equal(t, "C++14 (GCC 5.4.1)", first.Language)
	assert.Equal(t, float64(100), first.Point)
	assert.Equal(t, int32(123), first.Length)
	assert.Equal(t, "AC", first.Result)
	require.NotNil(t, first.ExecutionTime)
	assert.Equal(t, int32(12), *first.ExecutionTime)

	// CE rows carry no execution-time cell.
	second := submissions[1]
	assert.Equal(t, int64(123457), second.ID)
	assert.Equal(t, "CE", second.Result)
	assert.Nil(t, second.ExecutionTime)
}

func TestParseSubmissionsEmptyContest(t *testing.T) {
	submissions, err := parseSubmissions("<html><body></body></html>", "abc001")
	require.NoError(t, err)
	assert.Empty(t, submissions)
}

func TestParseSubmissionsBadRow(t *testing.T) {
	const page = `<table><tbody><tr><td>garbage</td></tr></tbody></table>`
	_, err := parseSubmissions(page, "abc001")
	require.ErrorIs(t, err, ErrBadPage)
}

const archivePage = `
<html><body>
<table><tbody>
<tr>
  <td>2019-10-04 21:00:00+0900</td>
  <td><a href="/contests/abc143">AtCoder Beginner Contest 143</a></td>
  <td>01:40</td>
  <td> - 1199</td>
</tr>
<tr>
  <td>2016-07-16 21:00:00+0900</td>
  <td><a href="/contests/agc001">AtCoder Grand Contest 001</a></td>
  <td>110:00</td>
  <td>All</td>
</tr>
</tbody></table>
</body></html>`

func TestParseContestArchive(t *testing.T) {
	contests, err := parseContestArchive(archivePage)
	require.NoError(t, err)
	require.Len(t, contests, 2)

	assert.Equal(t, "abc143", contests[0].ID)
	assert.Equal(t, "AtCoder Beginner Contest 143", contests[0].Title)
	assert.Equal(t, int64(6000), contests[0].DurationSecond)
	assert.Equal(t, "- 1199", contests[0].RateChange)

	assert.Equal(t, "agc001", contests[1].ID)
	assert.Equal(t, int64(1468670400), contests[1].StartEpochSecond)
	// Marathon durations exceed two hour digits.
	assert.Equal(t, int64(110*3600), contests[1].DurationSecond)
}

func TestParseContestArchivePastLastPage(t *testing.T) {
	contests, err := parseContestArchive("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, contests)
}

const permanentPage = `
<html><body>
<div id="contest-table-permanent">
<table><tbody>
<tr>
  <td><a href="/contests/practice">practice contest</a></td>
  <td>-</td>
</tr>
</tbody></table>
</div>
</body></html>`

func TestParsePermanentContests(t *testing.T) {
	contests, err := parsePermanentContests(permanentPage)
	require.NoError(t, err)
	require.Len(t, contests, 1)

	assert.Equal(t, "practice", contests[0].ID)
	assert.Equal(t, int64(0), contests[0].StartEpochSecond)
	assert.Equal(t, int64(permanentContestDurationSecond), contests[0].DurationSecond)
	assert.Equal(t, "-", contests[0].RateChange)
}

const taskPage = `
<html><body>
<table><tbody>
<tr>
  <td><a href="/contests/abc001/tasks/abc001_1">A</a></td>
  <td><a href="/contests/abc001/tasks/abc001_1">Snow Depth</a></td>
</tr>
<tr>
  <td><a href="/contests/abc001/tasks/abc001_2">B</a></td>
  <td><a href="/contests/abc001/tasks/abc001_2">Visibility</a></td>
</tr>
</tbody></table>
</body></html>`

func TestParseProblems(t *testing.T) {
	problems, pairs, err := parseProblems(taskPage, "abc001")
	require.NoError(t, err)
	require.Len(t, problems, 2)
	require.Len(t, pairs, 2)

	assert.Equal(t, "abc001_1", problems[0].ID)
	assert.Equal(t, "abc001", problems[0].ContestID)
	assert.Equal(t, "A. Snow Depth", problems[0].Title)

	assert.Equal(t, "abc001_2", pairs[1].ProblemID)
	assert.Equal(t, "B", pairs[1].ProblemIndex)
}

func TestParseCSRFToken(t *testing.T) {
	const loginPage = `<form><input type="hidden" name="csrf_token" value="token123"/><input name="password"/></form>`
	token, err := parseCSRFToken(loginPage)
	require.NoError(t, err)
	assert.Equal(t, "token123", token)

	assert.True(t, containsLoginForm(loginPage))
	assert.False(t, containsLoginForm("<html><body>Welcome back</body></html>"))
}

func TestParseCSRFTokenMissing(t *testing.T) {
	_, err := parseCSRFToken("<html><body></body></html>")
	require.ErrorIs(t, err, ErrBadPage)
}

func TestParseDuration(t *testing.T) {
	seconds, err := parseDuration("01:40")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), seconds)

	_, err = parseDuration("garbage")
	require.ErrorIs(t, err, ErrBadPage)
}
