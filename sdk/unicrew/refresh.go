package unicrew

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ErrMalformedRefresh marks a refresh response that did not contain a usable
// access token. It is treated exactly like a rejected refresh: the session is
// logged out and neither the store nor the state is left half-updated.
var ErrMalformedRefresh = errors.New("unicrew session: malformed refresh response")

// errRefreshSuperseded reports that the session stopped holding the refresh
// token a refresh call was started with, so its result was discarded. A logout
// or reload that lands mid-flight must not be undone by the late response.
var errRefreshSuperseded = errors.New("unicrew session: session changed during refresh")

// refreshKey is the singleflight key shared by every refresh requester.
const refreshKey = "token-refresh"

// Refresh obtains a new access token using the stored refresh token.
//
// Concurrent callers are coalesced: however many requesters race (the
// background timer, multiple 401-triggered retries), the refresh endpoint is
// called at most once and every caller observes that one call's outcome.
// Callers wait for the in-flight refresh rather than failing fast; a caller
// whose context ends first gives up waiting without affecting the others.
//
// On any failure (missing refresh token, network error, non-2xx, malformed
// response) the session is logged out and the error is returned. There is no
// internal retry.
func (s *Session) Refresh(ctx context.Context) error {
	_, err := s.refreshAccess(ctx)
	return err
}

// refreshAccess implements the refresher interface used by authTransport.
func (s *Session) refreshAccess(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := s.group.DoChan(refreshKey, s.doRefresh)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// doRefresh performs the single underlying refresh network call. It runs on
// its own deadline, detached from whichever caller happened to trigger it,
// because its result is shared by all waiters.
func (s *Session) doRefresh() (any, error) {
	s.mu.Lock()
	var refreshToken string
	if s.tokens != nil {
		refreshToken = s.tokens.Refresh
	}
	if refreshToken == "" {
		s.mu.Unlock()
		return nil, ErrNoRefreshToken
	}
	s.refreshing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	// The refresh call bypasses the 401 interceptor: a rejected refresh must
	// not recurse into another refresh.
	ctx, cancel := context.WithTimeout(withNoAuthRetry(context.Background()), DefaultTimeout)
	defer cancel()

	data, err := s.authAPI.post(ctx, "token/refresh/", map[string]string{"refresh": refreshToken})
	if err != nil {
		log.Warnf("session: token refresh rejected, logging out: %v", err)
		s.Logout()
		return nil, err
	}

	access := strings.TrimSpace(gjson.GetBytes(data, "access").String())
	if access == "" {
		log.Warn("session: refresh response missing access token, logging out")
		s.Logout()
		return nil, ErrMalformedRefresh
	}
	pair := TokenPair{Access: access, Refresh: strings.TrimSpace(gjson.GetBytes(data, "refresh").String())}
	if pair.Refresh == "" {
		// The backend rotates refresh tokens only optionally; keep the old
		// one when the response omits a replacement.
		pair.Refresh = refreshToken
	}

	// Install under the session lock, after confirming the session still
	// holds the refresh token this call started from. A Logout (or external
	// reload) that landed while the request was in flight wins: its cleared
	// state stays cleared and the late result is discarded. Saving inside
	// the lock keeps the write ordered against Logout's store.Clear.
	s.mu.Lock()
	if s.tokens == nil || s.tokens.Refresh != refreshToken {
		s.mu.Unlock()
		log.Debug("session: discarding refresh result, session changed mid-flight")
		return nil, errRefreshSuperseded
	}
	if err = s.store.Save(pair); err != nil {
		s.mu.Unlock()
		log.Errorf("session: persisting refreshed tokens failed, logging out: %v", err)
		s.Logout()
		return nil, err
	}
	s.tokens = &pair
	s.authenticated = true
	s.mu.Unlock()
	s.api.SetAuthToken(pair.Access)

	log.Debug("session: token pair refreshed")
	return pair.Access, nil
}

// autoRefreshLoop proactively refreshes on a fixed interval shorter than the
// access token lifetime, so requests normally never see a 401 from expiry.
func (s *Session) autoRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Debugf("session: scheduled refresh failed: %v", err)
			}
		}
	}
}
