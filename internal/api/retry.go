package api

import (
	"context"
	"strconv"
	"strings"
	"time"

	"lol-tracker/internal/constants"

	crerr "github.com/cockroachdb/errors"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// HTTPDoer is the subset of *fasthttp.Client the fetch client needs.
type HTTPDoer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Response is a detached copy of an upstream response; fasthttp buffers are
// released before Fetch returns.
type Response struct {
	StatusCode int
	Body       []byte
	RetryAfter string
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type rateLimitedError struct {
	resp *Response
}

func (e *rateLimitedError) Error() string {
	return "rate limited"
}

// Fetch performs one logical request against the Riot API. 429 responses are
// retried after Retry-After (or the exponential fallback), transport errors are
// retried with exponential backoff, and any other status is returned as-is.
// The number of attempts never exceeds the configured retry count.
func (c *RiotClient) Fetch(ctx context.Context, method, url string, body []byte) (*Response, error) {
	var (
		out        *Response
		attempt    int
		retryAfter time.Duration
	)

	bounded := retry.WithMaxRetries(uint64(c.maxRetries-1), retry.NewExponential(c.retryBase))
	policy := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := bounded.Next()
		if stop {
			return 0, true
		}
		if retryAfter > 0 {
			next, retryAfter = retryAfter, 0
		}
		return next, false
	})

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		attempt++
		resp, err := c.do(ctx, method, url, body)
		if err != nil {
			c.logger.Warn().Err(err).Str("url", url).Int("attempt", attempt).Int("max_retries", c.maxRetries).Msg("riot request failed")
			return retry.RetryableError(err)
		}

		if resp.StatusCode == fasthttp.StatusTooManyRequests {
			retryAfter = parseRetryAfter(resp.RetryAfter)
			c.logger.Warn().
				Str("url", url).
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Dur("retry_after", retryAfter).
				Msg("rate limited by riot api")
			return retry.RetryableError(&rateLimitedError{resp: resp})
		}

		out = resp
		return nil
	})
	if err != nil {
		var rl *rateLimitedError
		if crerr.As(err, &rl) {
			return nil, crerr.Wrapf(ErrMaxRetries, "%s after %d attempts", url, attempt)
		}
		return nil, crerr.Wrapf(err, "riot request %s failed after %d attempts", url, attempt)
	}
	return out, nil
}

func (c *RiotClient) do(ctx context.Context, method, url string, body []byte) (*Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("X-Riot-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(constants.ExternalAPITimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.doer.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	c.rateLimit.update(resp)

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
		RetryAfter: string(resp.Header.Peek("Retry-After")),
	}, nil
}

// parseRetryAfter reads the delay-seconds form of Retry-After. Zero means the
// caller should use its own backoff.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
