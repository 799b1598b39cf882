package sqlite

import (
	"database/sql"

	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/sqlite/gen"
)

// txRepos scopes the repositories to one open transaction. Commit and
// rollback belong to Store.WithTx.
type txRepos struct {
	q *gen.Queries
}

func newTx(tx *sql.Tx) *txRepos {
	return &txRepos{q: gen.New(tx)}
}

func (t *txRepos) Users() store.Users                 { return &usersRepo{q: t.q} }
func (t *txRepos) SessionTokens() store.SessionTokens { return &sessionTokensRepo{q: t.q} }
