// Package session carries the per-request identity slot that the
// authentication core writes into and downstream code reads from.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
)

// ErrNoSession is returned when a binder is asked to act on a context that
// carries no Session.
var ErrNoSession = errors.New("session: no session in context")

// Session is the mutable identity slot for one caller. A fresh Session
// starts anonymous.
type Session struct {
	mu       sync.RWMutex
	identity domain.Identity
}

func New() *Session {
	return &Session{identity: domain.AnonymousIdentity()}
}

func (s *Session) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) SetIdentity(id domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Session carried by ctx, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Binder materializes identities into whatever session object the caller
// owns. Implementations do no validation of their own.
type Binder interface {
	SetIdentity(ctx context.Context, id domain.Identity) error
	GetIdentity(ctx context.Context) (domain.Identity, error)
}

// ContextBinder binds through the Session stored in the request context.
type ContextBinder struct{}

func (ContextBinder) SetIdentity(ctx context.Context, id domain.Identity) error {
	s, ok := FromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	s.SetIdentity(id)
	return nil
}

func (ContextBinder) GetIdentity(ctx context.Context) (domain.Identity, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return domain.AnonymousIdentity(), ErrNoSession
	}
	return s.Identity(), nil
}

var _ Binder = ContextBinder{}
