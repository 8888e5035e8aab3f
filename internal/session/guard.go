// Package session keeps a client authorized against the inventory API.
// The access token is renewed lazily, once, when a gated call finds it
// expired; a failed renewal drops the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	Unknown State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

var (
	ErrNoCredential = errors.New("no stored credential")
	ErrUnauthorized = errors.New("unauthorized")
)

// RenewalError means the refresh token was refused or the renewal call
// failed. The session has been cleared; the user must log in again.
type RenewalError struct {
	Err error
}

func (e *RenewalError) Error() string { return "renew access token: " + e.Err.Error() }
func (e *RenewalError) Unwrap() error { return e.Err }

type Credential struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Renewer trades a refresh token for a new access token.
type Renewer interface {
	Renew(ctx context.Context, refresh string) (access string, err error)
}

// Persister stores the credential between runs. Load returns nil, nil when
// nothing is stored.
type Persister interface {
	Load() (*Credential, error)
	Save(Credential) error
	Clear() error
}

type Option func(*Guard)

func WithPersister(p Persister) Option { return func(g *Guard) { g.persister = p } }

func WithClock(now func() time.Time) Option { return func(g *Guard) { g.now = now } }

func WithLogger(l *zap.Logger) Option { return func(g *Guard) { g.logger = l } }

// WithRenewTimeout bounds one renewal call. It is independent of the
// callers' contexts; zero disables it.
func WithRenewTimeout(d time.Duration) Option { return func(g *Guard) { g.renewTimeout = d } }

const defaultRenewTimeout = 30 * time.Second

type Guard struct {
	renewer      Renewer
	persister    Persister
	now          func() time.Time
	logger       *zap.Logger
	renewTimeout time.Duration

	mu    sync.Mutex
	cred  *Credential
	state State

	renewals singleflight.Group
}

// NewGuard builds a guard and loads any persisted credential.
func NewGuard(renewer Renewer, opts ...Option) (*Guard, error) {
	g := &Guard{
		renewer:      renewer,
		now:          time.Now,
		logger:       zap.NewNop(),
		renewTimeout: defaultRenewTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.persister != nil {
		cred, err := g.persister.Load()
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		g.cred = cred
	}
	return g, nil
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Credential returns a copy of the current credential, if any.
func (g *Guard) Credential() (Credential, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cred == nil {
		return Credential{}, false
	}
	return *g.cred, true
}

// Login installs a fresh credential pair.
func (g *Guard) Login(cred Credential) error {
	if cred.Access == "" || cred.Refresh == "" {
		return errors.New("login: access and refresh tokens are required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cred = &cred
	g.state = Authorized
	if g.persister != nil {
		return g.persister.Save(cred)
	}
	return nil
}

// Logout drops both tokens.
func (g *Guard) Logout() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.discardLocked()
}

func (g *Guard) discardLocked() error {
	g.cred = nil
	g.state = Unauthorized
	if g.persister != nil {
		return g.persister.Clear()
	}
	return nil
}

// Check decides whether the session may make a call, renewing the access
// token first when it has expired. The error says why a session is
// Unauthorized and is nil for Authorized.
func (g *Guard) Check(ctx context.Context) (State, error) {
	g.mu.Lock()
	if g.cred == nil || g.cred.Access == "" {
		g.state = Unauthorized
		g.mu.Unlock()
		return Unauthorized, ErrNoCredential
	}

	exp, err := expiry(g.cred.Access)
	if err != nil {
		g.logger.Warn("undecodable access token, clearing session", zap.Error(err))
		if cerr := g.discardLocked(); cerr != nil {
			g.logger.Warn("clear session", zap.Error(cerr))
		}
		g.mu.Unlock()
		return Unauthorized, fmt.Errorf("decode access token: %w", err)
	}
	if !exp.Before(g.now()) {
		g.state = Authorized
		g.mu.Unlock()
		return Authorized, nil
	}
	refresh := g.cred.Refresh
	g.mu.Unlock()

	// concurrent callers holding the same refresh token share one renewal.
	// It runs detached from any single caller so that one caller giving up
	// does not fail the others or drop the session.
	ch := g.renewals.DoChan(refresh, func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		if g.renewTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, g.renewTimeout)
			defer cancel()
		}
		return nil, g.renew(rctx, refresh)
	})

	select {
	case <-ctx.Done():
		// credentials are kept; the renewal finishes in the background
		return Unauthorized, ctx.Err()
	case r := <-ch:
		return g.settle(r.Err)
	}
}

// settle reports the session as it stands after a renewal, which may have
// raced with Login or Logout.
func (g *Guard) settle(renewErr error) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cred == nil {
		g.state = Unauthorized
		if renewErr == nil {
			renewErr = ErrNoCredential
		}
		return Unauthorized, renewErr
	}
	if g.state == Authorized {
		return Authorized, nil
	}
	if renewErr == nil {
		renewErr = ErrUnauthorized
	}
	return g.state, renewErr
}

func (g *Guard) renew(ctx context.Context, refresh string) error {
	// a renewal that finished just before this one started already did the work
	g.mu.Lock()
	if g.cred != nil && g.cred.Refresh == refresh {
		if exp, err := expiry(g.cred.Access); err == nil && !exp.Before(g.now()) {
			g.state = Authorized
			g.mu.Unlock()
			return nil
		}
	}
	g.mu.Unlock()

	var (
		access string
		err    error
	)
	if refresh == "" {
		err = ErrNoCredential
	} else {
		access, err = g.renewer.Renew(ctx, refresh)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// a Login or Logout may have replaced the session meanwhile
	if g.cred == nil || g.cred.Refresh != refresh {
		if err != nil {
			return &RenewalError{Err: err}
		}
		return nil
	}

	if err != nil {
		g.logger.Info("access token renewal failed, session cleared", zap.Error(err))
		if cerr := g.discardLocked(); cerr != nil {
			g.logger.Warn("clear session", zap.Error(cerr))
		}
		return &RenewalError{Err: err}
	}

	g.cred.Access = access
	g.state = Authorized
	g.logger.Debug("access token renewed")
	if g.persister != nil {
		if perr := g.persister.Save(*g.cred); perr != nil {
			g.logger.Warn("persist renewed session", zap.Error(perr))
		}
	}
	return nil
}

// Do runs action with a usable access token, or returns ErrUnauthorized
// without calling it.
func (g *Guard) Do(ctx context.Context, action func(ctx context.Context, accessToken string) error) error {
	state, err := g.Check(ctx)
	if state != Authorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	g.mu.Lock()
	if g.cred == nil {
		g.mu.Unlock()
		return ErrUnauthorized
	}
	token := g.cred.Access
	g.mu.Unlock()

	return action(ctx, token)
}

// expiry reads exp without verifying the signature; the server does that.
func expiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
