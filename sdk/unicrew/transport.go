package unicrew

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxAuthRetries caps how many times a single request may be re-issued after
// a refreshed token. One retry resolves an expired access token; a second 401
// means the credential itself is bad and must surface to the caller.
const maxAuthRetries = 1

// refresher obtains a fresh access token, coordinating concurrent callers so
// the underlying refresh call happens at most once.
type refresher interface {
	refreshAccess(ctx context.Context) (string, error)
}

// authAttempt tracks the retry budget for one logical request as it moves
// through the interceptor chain.
type authAttempt struct {
	req     *http.Request
	retries int
}

// authTransport is the interceptor chain installed on every Client. Outgoing,
// it attaches the session bearer (when creds is set and the request carries
// no explicit Authorization header). Incoming, it reacts to HTTP 401 by
// refreshing the token pair and re-issuing the request exactly once; every
// other response passes through unchanged.
type authTransport struct {
	base      http.RoundTripper
	client    *Client
	refresher refresher
	creds     bool
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString()[:8])
	}
	if t.creds && out.Header.Get("Authorization") == "" {
		if token := t.client.authToken(); token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if t.refresher == nil || skipAuthRetry(req.Context()) {
		return resp, nil
	}
	// A superseded or cancelled request must never drive session changes.
	if req.Context().Err() != nil {
		return resp, nil
	}

	requestID := out.Header.Get("X-Request-ID")
	attempt := authAttempt{req: out}
	for attempt.retries < maxAuthRetries {
		attempt.retries++

		token, errRefresh := t.refresher.refreshAccess(req.Context())
		if errRefresh != nil {
			// Refresh already forced a logout; the caller sees the original 401.
			log.WithField("request_id", requestID).Debugf("auth transport: refresh failed: %v", errRefresh)
			return resp, nil
		}

		retry, errClone := cloneForRetry(attempt.req)
		if errClone != nil {
			log.WithField("request_id", requestID).Warnf("auth transport: cannot replay request: %v", errClone)
			return resp, nil
		}
		retry.Header.Set("Authorization", "Bearer "+token)

		drainBody(resp)
		log.WithField("request_id", requestID).Debugf("auth transport: retrying %s %s with refreshed token", retry.Method, retry.URL.Path)
		return t.base.RoundTrip(retry)
	}
	return resp, nil
}

// cloneForRetry duplicates a request for re-issue, rewinding the body.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}

// drainBody consumes and closes a response body so the underlying connection
// can be reused for the retry.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

type noAuthRetryKey struct{}

// withNoAuthRetry marks a context so 401 responses bypass the refresh
// protocol. The token refresh call itself uses this to avoid recursing into
// its own interceptor.
func withNoAuthRetry(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, noAuthRetryKey{}, true)
}

func skipAuthRetry(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	skip, ok := ctx.Value(noAuthRetryKey{}).(bool)
	return ok && skip
}
