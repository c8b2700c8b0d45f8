// Package atcoder is the remote-site client. It fetches contest, problem
// and submission pages over HTTP and parses them into store models. The
// crawl strategies consume it through the crawler.Fetcher interface, so
// nothing outside this package touches the site's HTML.
package atcoder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/atcoder-problems/problemsx/pkg/db/models"
	"github.com/atcoder-problems/problemsx/pkg/retry"
)

const defaultBaseURL = "https://atcoder.jp"

// ErrNotAuthenticated is returned when a login-gated fetch runs without a
// valid session. The problem crawl treats it as fatal; operator
// intervention is required, retrying would just lock the account.
var ErrNotAuthenticated = errors.New("atcoder: not authenticated")

// ErrBadPage is returned when a page does not have the expected shape.
var ErrBadPage = errors.New("atcoder: unexpected page shape")

type Client struct {
	http    *resty.Client
	baseURL string
	logger  *zap.Logger
	retry   retry.Config

	loggedIn bool
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retry overrides the per-fetch backoff budget; zero value means
	// retry.DefaultConfig().
	Retry *retry.Config
}

func NewClient(logger *zap.Logger, opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetCookieJar(jar)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "problemsx-crawler")

	retryCfg := retry.DefaultConfig()
	if opts.Retry != nil {
		retryCfg = *opts.Retry
	}

	return &Client{
		http:    client,
		baseURL: opts.BaseURL,
		logger:  logger,
		retry:   retryCfg,
	}, nil
}

// getHTML fetches a page, retrying transient failures with backoff.
// A 404 is not an error: the site returns it for contests without a
// public submission list, and the caller sees an empty page instead.
func (c *Client) getHTML(ctx context.Context, path string) (body string, notFound bool, err error) {
	fetchErr := retry.WithBackoff(ctx, c.retry, c.logger, "fetch "+path, func() error {
		resp, reqErr := c.http.R().SetContext(ctx).Get(path)
		if reqErr != nil {
			return reqErr
		}
		if resp.StatusCode() == http.StatusNotFound {
			notFound = true
			body = ""
			return nil
		}
		if resp.IsError() {
			return fmt.Errorf("GET %s: status=%d", path, resp.StatusCode())
		}
		body = string(resp.Body())
		return nil
	})
	if fetchErr != nil {
		return "", false, fetchErr
	}
	return body, notFound, nil
}

// FetchSubmissions returns one page of a contest's submission list
// (newest first) and the total page count the site reports. A missing
// contest yields an empty page with zero total pages.
func (c *Client) FetchSubmissions(ctx context.Context, contestID string, page int) ([]models.Submission, int, error) {
	path := fmt.Sprintf("/contests/%s/submissions?page=%d", contestID, page)
	html, notFound, err := c.getHTML(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	if notFound {
		c.logger.Warn("Submission page not found",
			zap.String("contest_id", contestID),
			zap.Int("page", page))
		return nil, 0, nil
	}

	submissions, err := parseSubmissions(html, contestID)
	if err != nil {
		return nil, 0, err
	}
	maxPage, err := parseSubmissionPageCount(html)
	if err != nil {
		return nil, 0, err
	}
	return submissions, maxPage, nil
}

// FetchContests returns one page of the contest archive; an empty slice
// means the page is past the end of the archive.
func (c *Client) FetchContests(ctx context.Context, page int) ([]models.Contest, error) {
	path := fmt.Sprintf("/contests/archive?lang=ja&page=%d", page)
	html, notFound, err := c.getHTML(ctx, path)
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, nil
	}
	return parseContestArchive(html)
}

// FetchPermanentContests returns the always-open contests (practice,
// language tests) listed on the contest index, which never appear in the
// archive.
func (c *Client) FetchPermanentContests(ctx context.Context) ([]models.Contest, error) {
	html, notFound, err := c.getHTML(ctx, "/contests/?lang=ja")
	if err != nil {
		return nil, err
	}
	if notFound {
		return nil, nil
	}
	return parsePermanentContests(html)
}

// FetchProblems returns the problem list of a contest. Requires a
// logged-in session: problem pages of some contests are only visible to
// authenticated users.
func (c *Client) FetchProblems(ctx context.Context, contestID string) ([]models.Problem, []models.ContestProblem, error) {
	if !c.loggedIn {
		return nil, nil, ErrNotAuthenticated
	}
	path := fmt.Sprintf("/contests/%s/tasks", contestID)
	html, notFound, err := c.getHTML(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if notFound {
		return nil, nil, fmt.Errorf("%w: no task list for %s", ErrBadPage, contestID)
	}
	return parseProblems(html, contestID)
}

// Login authenticates the session with the site. The login form is CSRF
// protected, so the token is scraped from the form before posting.
func (c *Client) Login(ctx context.Context, username, password string) error {
	html, notFound, err := c.getHTML(ctx, "/login")
	if err != nil {
		return err
	}
	if notFound {
		return fmt.Errorf("%w: login page missing", ErrBadPage)
	}

	token, err := parseCSRFToken(html)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username":   username,
			"password":   password,
			"csrf_token": token,
		}).
		Post("/login")
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: login status=%d", ErrNotAuthenticated, resp.StatusCode())
	}

	// A failed login bounces back to the form with an error flash.
	if containsLoginForm(string(resp.Body())) {
		return fmt.Errorf("%w: rejected credentials for %s", ErrNotAuthenticated, username)
	}

	c.loggedIn = true
	c.logger.Info("Logged in", zap.String("user", username))
	return nil
}
