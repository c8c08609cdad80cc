// Package resolver projects a profile's on-chain grid pointer into the
// shared in-memory document. It is a read-only projection: it never writes
// storage, and it re-runs when the connected account or wallet connection
// changes rather than on a timer.
package resolver

import (
	"context"
	"errors"

	"github.com/deliquified/ministore/internal/grid"
	"github.com/deliquified/ministore/internal/gridstate"
	"github.com/deliquified/ministore/internal/ipfs"
	"github.com/deliquified/ministore/internal/metrics"
	"github.com/deliquified/ministore/internal/profile"
	"github.com/deliquified/ministore/internal/wallet"
	"github.com/deliquified/ministore/pkg/logger"
)

// PointerReader reads the grid pointer for an account.
type PointerReader interface {
	ReadPointer(ctx context.Context, account string) (*profile.VerifiableURI, error)
}

// ContentResolver fetches the bytes behind a content-store locator.
type ContentResolver interface {
	Resolve(ctx context.Context, locator string) ([]byte, error)
}

// Resolver resolves the current grid document for the connected account and
// publishes the result to the shared store.
type Resolver struct {
	provider wallet.Provider
	pointers PointerReader
	content  ContentResolver
	store    *gridstate.Store
	log      *logger.Logger
}

// New creates a resolver.
func New(provider wallet.Provider, pointers PointerReader, content ContentResolver, store *gridstate.Store, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewDefault("resolver")
	}
	return &Resolver{
		provider: provider,
		pointers: pointers,
		content:  content,
		store:    store,
		log:      log,
	}
}

// Refresh resolves the document for the currently connected account and
// publishes the resulting snapshot. The returned snapshot equals the one
// published.
func (r *Resolver) Refresh(ctx context.Context) gridstate.Snapshot {
	account, err := wallet.PrimaryAccount(r.provider)
	if err != nil {
		snap := gridstate.Snapshot{State: gridstate.StateNotFetched}
		r.store.Set(snap)
		metrics.Resolution(string(snap.State))
		return snap
	}

	r.store.Set(gridstate.Snapshot{State: gridstate.StateLoading, Account: account})

	snap := r.resolve(ctx, account)
	r.store.Set(snap)
	metrics.Resolution(string(snap.State))
	return snap
}

func (r *Resolver) resolve(ctx context.Context, account string) gridstate.Snapshot {
	fail := func(kind gridstate.ErrorKind) gridstate.Snapshot {
		return gridstate.Snapshot{State: gridstate.StateError, Account: account, Error: kind}
	}

	pointer, err := r.pointers.ReadPointer(ctx, account)
	if err != nil {
		r.log.WithError(err).WithField("account", account).Warn("grid pointer read failed")
		return fail(gridstate.ErrorFetchFailed)
	}
	if pointer == nil {
		// No pointer is the valid "no grid configured yet" state.
		return gridstate.Snapshot{State: gridstate.StateEmpty, Account: account}
	}

	if !ipfs.IsLocator(pointer.URL) {
		r.log.WithField("account", account).WithField("url", pointer.URL).Warn("grid pointer uses unknown scheme")
		return fail(gridstate.ErrorInvalidLocator)
	}

	raw, err := r.content.Resolve(ctx, pointer.URL)
	if err != nil {
		if errors.Is(err, ipfs.ErrBadLocator) {
			return fail(gridstate.ErrorInvalidLocator)
		}
		r.log.WithError(err).WithField("account", account).Warn("grid document fetch failed")
		return fail(gridstate.ErrorFetchFailed)
	}

	sections, err := grid.Normalize(raw)
	if err != nil {
		r.log.WithError(err).WithField("account", account).Warn("grid document rejected")
		if errors.Is(err, grid.ErrInvalidJSON) {
			return fail(gridstate.ErrorInvalidData)
		}
		return fail(gridstate.ErrorInvalidFormat)
	}

	return gridstate.Snapshot{State: gridstate.StateReady, Account: account, Sections: sections}
}

// Run performs an initial refresh and then re-resolves on every wallet
// accounts/chain change until ctx is done.
func (r *Resolver) Run(ctx context.Context) {
	events, cancel := r.provider.Subscribe()
	defer cancel()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			r.Refresh(ctx)
		}
	}
}
