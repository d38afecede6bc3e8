package campfire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// minRequestInterval is the floor between successive API calls. Campfire
// throttles aggressively; keep this even if the export feels slow.
const minRequestInterval = 100 * time.Millisecond

// RemoteError is any non-success answer from the API. Code 0 means the
// request never got an HTTP status (transport failure).
type RemoteError struct {
	Resource string
	Message  string
	Code     int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Resource, e.Message, e.Code)
}

// IsNotFound reports whether err is a RemoteError for a resource that is
// gone upstream (deleted upload, pruned user) rather than a hard failure.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == http.StatusNotFound
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(conf *Config) *Client {
	base := conf.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.campfirenow.com", conf.Subdomain)
	}
	return &Client{
		baseURL:    base,
		token:      conf.Token,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Every(minRequestInterval), 1),
	}
}

// Get performs an authenticated GET against the API. The token rides as
// the Basic Auth username with a placeholder password, which is how
// Campfire expects API tokens to be presented. Statuses >= 400 come back
// as *RemoteError; the caller decides whether a 404 means "gone" or
// "broken". There is no automatic retry.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.token, "X")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Resource: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &RemoteError{
			Resource: path,
			Message:  http.StatusText(resp.StatusCode),
			Code:     resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Resource: path, Message: err.Error(), Code: resp.StatusCode}
	}
	return body, nil
}
