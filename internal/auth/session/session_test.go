package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionIsAnonymous(t *testing.T) {
	s := session.New()
	assert.Equal(t, domain.AnonymousIdentity(), s.Identity())
}

func TestContextBinder(t *testing.T) {
	var b session.ContextBinder

	t.Run("without a session", func(t *testing.T) {
		err := b.SetIdentity(context.Background(), domain.Identity{IsAuthenticated: true})
		require.ErrorIs(t, err, session.ErrNoSession)

		id, err := b.GetIdentity(context.Background())
		require.ErrorIs(t, err, session.ErrNoSession)
		assert.False(t, id.IsAuthenticated)
	})

	t.Run("writes through the context", func(t *testing.T) {
		s := session.New()
		ctx := session.NewContext(context.Background(), s)

		want := domain.Identity{IsAuthenticated: true, IsSuperuser: true, Username: "root"}
		require.NoError(t, b.SetIdentity(ctx, want))
		assert.Equal(t, want, s.Identity())

		got, err := b.GetIdentity(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("nil session is no session", func(t *testing.T) {
		ctx := session.NewContext(context.Background(), nil)
		_, ok := session.FromContext(ctx)
		assert.False(t, ok)
	})
}

func TestSessionConcurrentAccess(t *testing.T) {
	s := session.New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetIdentity(domain.Identity{IsAuthenticated: i%2 == 0, Username: "u"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Identity()
		}()
	}
	wg.Wait()
}
