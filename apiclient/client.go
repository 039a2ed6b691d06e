package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/mbolis/survey-flow/model"
)

const maxErrorBody = 64 << 10

// Config is passed explicitly to New; the client never reads tokens or
// endpoints from the environment itself.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
	UserAgent   string
	Timeout     time.Duration
}

// Client talks to the survey API. It satisfies survey.Client.
type Client struct {
	base      string
	http      *http.Client
	tokens    oauth2.TokenSource
	userAgent string
}

func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("apiclient: base url %q must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "survey-flow"
	}

	return &Client{
		base:      strings.TrimRight(u.String(), "/"),
		http:      httpClient,
		tokens:    cfg.TokenSource,
		userAgent: userAgent,
	}, nil
}

// GetPublicSurvey fetches the survey snapshot. A non-success reply is an
// *APIError; survey.Load treats every failure here as not found.
func (c *Client) GetPublicSurvey(ctx context.Context, slug string) (*model.Survey, error) {
	var sv model.Survey
	err := c.do(ctx, http.MethodGet, "/public/surveys/"+url.PathEscape(slug)+"/", nil, &sv)
	if err != nil {
		return nil, err
	}
	return &sv, nil
}

func (c *Client) Submit(ctx context.Context, slug string, req model.SubmitRequest) error {
	return c.do(ctx, http.MethodPost, "/public/surveys/"+url.PathEscape(slug)+"/submit/", req, nil)
}

func (c *Client) GetResults(ctx context.Context, slug string) (*model.Results, error) {
	var res model.Results
	err := c.do(ctx, http.MethodGet, "/surveys/"+url.PathEscape(slug)+"/results/", nil, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s %s: encode body", method, path)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return errors.Wrapf(err, "%s %s: token", method, path)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s %s: decode response", method, path)
	}
	return nil
}

func readError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body model.ErrorResponse
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Detail = body.Detail
		apiErr.Code = body.Code
	} else if s := strings.TrimSpace(string(raw)); s != "" {
		apiErr.Detail = s
	}
	return apiErr
}
