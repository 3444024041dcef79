// Package sandbox assembles the in-memory stand-in API used for local
// development and integration tests.
package sandbox

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"mincadmin/internal/app/sandbox/api"
	"mincadmin/internal/app/sandbox/store"
)

type Options struct {
	APIKey   string
	FixedOTP string
	// Now overrides the clock; nil means time.Now.
	Now        func() time.Time
	BcryptCost int
	// Empty skips the demo data set.
	Empty bool
}

type Sandbox struct {
	Records  *store.Records
	Accounts *store.Accounts
	Handler  http.Handler
}

func New(opts Options, log *slog.Logger) (*Sandbox, error) {
	if log == nil {
		log = slog.Default()
	}
	var accountOpts []store.AccountsOption
	if opts.FixedOTP != "" {
		accountOpts = append(accountOpts, store.WithFixedOTP(opts.FixedOTP))
	}
	if opts.BcryptCost > 0 {
		accountOpts = append(accountOpts, store.WithBcryptCost(opts.BcryptCost))
	}

	sb := &Sandbox{
		Records:  store.NewRecords(opts.Now),
		Accounts: store.NewAccounts(opts.Now, accountOpts...),
	}
	if !opts.Empty {
		if err := store.Seed(sb.Records, sb.Accounts); err != nil {
			return nil, fmt.Errorf("seed sandbox: %w", err)
		}
	}
	sb.Handler = api.New(api.Deps{
		Records:  sb.Records,
		Accounts: sb.Accounts,
		APIKey:   opts.APIKey,
	}, log.With(slog.String("component", "sandbox")))
	return sb, nil
}
