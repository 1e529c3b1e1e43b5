package unicrew

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval is the proactive refresh cadence. The backend issues
// 15-minute access tokens; refreshing one minute early keeps requests from
// ever hitting a 401 through ordinary expiry.
const DefaultRefreshInterval = 14 * time.Minute

// Session is the single source of truth for authentication state. It owns
// the token pair, the current user profile, the proactive refresh timer and
// the two HTTP clients: one that attaches bearer credentials and one for
// pre-authentication endpoints (sign-in, registration, password reset).
//
// A Session is constructed once at process start and injected wherever API
// access is needed. All methods are safe for concurrent use.
type Session struct {
	store        TokenStore
	api          *Client
	authAPI      *Client
	refreshEvery time.Duration

	group singleflight.Group

	mu            sync.RWMutex
	tokens        *TokenPair
	authenticated bool
	user          *User
	refreshing    bool
	initializing  bool
	tickerCancel  context.CancelFunc
}

// SessionOption customizes a Session at construction time.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	refreshEvery time.Duration
	clientOpts   []ClientOption
}

// WithRefreshInterval overrides the proactive refresh cadence.
func WithRefreshInterval(d time.Duration) SessionOption {
	return func(cfg *sessionConfig) {
		if d > 0 {
			cfg.refreshEvery = d
		}
	}
}

// WithClientOptions applies client options (timeouts, proxy, custom HTTP
// client) to both underlying clients.
func WithClientOptions(opts ...ClientOption) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.clientOpts = append(cfg.clientOpts, opts...)
	}
}

// NewSession creates a session bound to the given API base URL and token
// store. Call Initialize to restore persisted credentials.
func NewSession(baseURL string, store TokenStore, opts ...SessionOption) *Session {
	cfg := sessionConfig{refreshEvery: DefaultRefreshInterval}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		store:        store,
		api:          NewClient(baseURL, cfg.clientOpts...),
		authAPI:      NewClient(baseURL, cfg.clientOpts...),
		refreshEvery: cfg.refreshEvery,
		initializing: true,
	}
	// One interceptor chain, parameterized: the general client attaches the
	// session bearer, the sign-in client stays anonymous on the way out but
	// still runs the 401 protocol on the way in (change-password and friends
	// can hit it post-authentication).
	s.api.attachInterceptors(s, true)
	s.authAPI.attachInterceptors(s, false)
	return s
}

// Initialize restores the session from the token store. It reads the store
// synchronously, then fetches the user profile in the background; a failed
// profile fetch leaves the user unset without deauthenticating. It reports
// whether a persisted session was restored.
func (s *Session) Initialize(ctx context.Context) bool {
	pair := s.store.Load()

	s.mu.Lock()
	if pair != nil {
		s.tokens = pair
		s.authenticated = true
	}
	s.initializing = false
	s.mu.Unlock()

	if pair == nil {
		return false
	}
	s.api.SetAuthToken(pair.Access)
	s.startAutoRefresh()
	go s.loadProfile()
	log.Debug("session: restored persisted credentials")
	return true
}

// Login authenticates with username and password, persists the issued token
// pair and loads the user profile in the background.
func (s *Session) Login(ctx context.Context, username, password string) error {
	pair, err := s.Account().Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.adopt(pair)
}

// AdoptTokens installs an externally obtained token pair, for flows where
// credentials arrive outside the password login call.
func (s *Session) AdoptTokens(access, refresh string) error {
	access = strings.TrimSpace(access)
	if access == "" {
		return fmt.Errorf("unicrew session: empty access token")
	}
	return s.adopt(TokenPair{Access: access, Refresh: strings.TrimSpace(refresh)})
}

func (s *Session) adopt(pair TokenPair) error {
	if err := s.store.Save(pair); err != nil {
		return err
	}

	s.mu.Lock()
	s.tokens = &pair
	s.authenticated = true
	s.user = nil
	s.mu.Unlock()

	s.api.SetAuthToken(pair.Access)
	s.startAutoRefresh()
	go s.loadProfile()
	return nil
}

// Logout clears the token store and resets the session state as one unit:
// no reader can observe cleared tokens alongside a stale user, or the other
// way around. The refresh timer is stopped. Idempotent.
func (s *Session) Logout() {
	s.mu.Lock()
	if err := s.store.Clear(); err != nil {
		log.Warnf("session: clearing token store failed: %v", err)
	}
	s.tokens = nil
	s.authenticated = false
	s.user = nil
	s.refreshing = false
	if s.tickerCancel != nil {
		s.tickerCancel()
		s.tickerCancel = nil
	}
	s.mu.Unlock()

	s.api.SetAuthToken("")
}

// ReloadFromStore re-reads the token store after an external change (for
// example another process on the same machine refreshing the pair) and
// installs the result without writing back, so watcher-driven reloads cannot
// loop. A removed or corrupt file is treated as an external logout.
func (s *Session) ReloadFromStore() {
	pair := s.store.Load()

	s.mu.Lock()
	if pair == nil {
		s.tokens = nil
		s.authenticated = false
		s.user = nil
		s.refreshing = false
		if s.tickerCancel != nil {
			s.tickerCancel()
			s.tickerCancel = nil
		}
		s.mu.Unlock()
		s.api.SetAuthToken("")
		return
	}
	s.tokens = pair
	s.authenticated = true
	s.mu.Unlock()

	s.api.SetAuthToken(pair.Access)
	s.startAutoRefresh()
}

// Close stops background work. The session can be re-initialized afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.tickerCancel != nil {
		s.tickerCancel()
		s.tickerCancel = nil
	}
	s.mu.Unlock()
}

// startAutoRefresh schedules the proactive refresh loop. Repeated calls
// (login after initialize, repeated logins) never stack a second timer.
func (s *Session) startAutoRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tickerCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.tickerCancel = cancel
	go s.autoRefreshLoop(ctx)
}

// loadProfile fetches the authenticated user's profile. Failures only leave
// the user unset; authentication is decided by token presence alone.
func (s *Session) loadProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	user, err := getJSON[User](ctx, s.api, "profile/")
	if err != nil {
		log.Debugf("session: profile fetch failed: %v", err)
		return
	}

	s.mu.Lock()
	if s.authenticated {
		s.user = &user
	}
	s.mu.Unlock()
}

// IsAuthenticated reports whether a token pair is held.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// IsRefreshing reports whether a refresh call is in flight.
func (s *Session) IsRefreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// IsInitializing reports whether the bootstrap read is still pending.
func (s *Session) IsInitializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

// Tokens returns a copy of the current token pair, or nil.
func (s *Session) Tokens() *TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return nil
	}
	pair := *s.tokens
	return &pair
}

// User returns a copy of the loaded profile, or nil when it has not been
// fetched (or the fetch failed).
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// API returns the bearer-attaching client for endpoints without a typed
// service wrapper.
func (s *Session) API() *Client {
	return s.api
}

// Account returns the account/authentication service.
func (s *Session) Account() *AccountService {
	return &AccountService{client: s.authAPI}
}

// Users returns the users and profile service.
func (s *Session) Users() *UsersService {
	return &UsersService{client: s.api}
}

// Teams returns the teams service.
func (s *Session) Teams() *TeamsService {
	return &TeamsService{client: s.api}
}

// Tasks returns the per-team task tracker service.
func (s *Session) Tasks() *TasksService {
	return &TasksService{client: s.api}
}

// Notifications returns the notifications service.
func (s *Session) Notifications() *NotificationsService {
	return &NotificationsService{client: s.api}
}

// Catalog returns the reference-data service (skills, qualities, categories,
// faculties, schools).
func (s *Session) Catalog() *CatalogService {
	return &CatalogService{client: s.api}
}
