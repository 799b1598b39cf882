//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/sessionauth/pkg/idx"
)

func setupPostgresContainer() (*postgres.Store, func(), error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sessionauth_test"),
		tcpostgres.WithUsername("sessionauth"),
		tcpostgres.WithPassword("sessionauth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	st, err := postgres.Connect(ctx, connStr, postgres.DefaultConnectOptions)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	if err := st.ApplyMigrations(); err != nil {
		st.Close()
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		_ = st.Close()
		_ = container.Terminate(ctx)
	}
	return st, cleanup, nil
}

func newUser(username string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "hash",
		Active:       true,
		CreatedOn:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

var _ = Describe("Postgres Store", Ordered, func() {
	var (
		st      *postgres.Store
		cleanup func()
		ctx     context.Context
	)

	BeforeAll(func() {
		var err error
		st, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("reapplies migrations without error", func() {
		Expect(st.ApplyMigrations()).To(Succeed())
		Expect(st.Ping(ctx)).To(Succeed())
	})

	Describe("Users", func() {
		It("round-trips a user and hides inactive ones on request", func() {
			u := newUser("alice")
			u.Active = false
			Expect(st.Users().CreateUser(ctx, u)).To(Succeed())

			got, ok, err := st.Users().GetUserByUsername(ctx, "alice", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(u))

			_, ok, err = st.Users().GetUserByUsername(ctx, "alice", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("rejects duplicate usernames", func() {
			Expect(st.Users().CreateUser(ctx, newUser("bob"))).To(Succeed())
			err := st.Users().CreateUser(ctx, newUser("bob"))
			Expect(err).To(MatchError(store.ErrAlreadyExists))
		})

		It("admits exactly one of many concurrent registrations", func() {
			const workers = 10
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
			)
			for range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					if err := st.Users().CreateUser(ctx, newUser("racer")); err == nil {
						mu.Lock()
						created++
						mu.Unlock()
					} else {
						Expect(err).To(MatchError(store.ErrAlreadyExists))
					}
				}()
			}
			wg.Wait()
			Expect(created).To(Equal(1))
		})
	})

	Describe("SessionTokens", func() {
		It("expires, refreshes and cascades", func() {
			u := newUser("carol")
			Expect(st.Users().CreateUser(ctx, u)).To(Succeed())

			now := time.Now().UTC().Truncate(time.Microsecond)
			old := domain.SessionToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "c-old", ExpiresAt: now.Add(-time.Minute), CreatedAt: now}
			live := domain.SessionToken{ID: idx.New().String(), UserID: u.ID, TokenHash: "c-live", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
			Expect(st.SessionTokens().CreateSessionToken(ctx, old)).To(Succeed())
			Expect(st.SessionTokens().CreateSessionToken(ctx, live)).To(Succeed())

			n, err := st.SessionTokens().DeleteExpiredSessionTokens(ctx, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeNumerically(">=", 1))

			ok, err := st.SessionTokens().UpdateSessionTokenExpiry(ctx, live.ID, now.Add(2*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, ok, err := st.SessionTokens().GetSessionTokenByHash(ctx, "c-live")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(got.ExpiresAt).To(BeTemporally("==", now.Add(2*time.Hour)))

			ok, err = st.Users().DeleteUser(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			_, ok, err = st.SessionTokens().GetSessionTokenByHash(ctx, "c-live")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("WithTx", func() {
		It("rolls back every write when fn fails", func() {
			err := st.WithTx(ctx, func(tx store.Repos) error {
				Expect(tx.Users().CreateUser(ctx, newUser("dave"))).To(Succeed())
				return context.Canceled
			})
			Expect(err).To(MatchError(context.Canceled))

			_, ok, err := st.Users().GetUserByUsername(ctx, "dave", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})
})
