package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deliquified/ministore/internal/gridstate"
	"github.com/deliquified/ministore/internal/ipfs"
	"github.com/deliquified/ministore/internal/profile"
	"github.com/deliquified/ministore/internal/wallet"
)

type fakePointers struct {
	uri *profile.VerifiableURI
	err error
}

func (f *fakePointers) ReadPointer(ctx context.Context, account string) (*profile.VerifiableURI, error) {
	return f.uri, f.err
}

type fakeContent struct {
	data []byte
	err  error
}

func (f *fakeContent) Resolve(ctx context.Context, locator string) ([]byte, error) {
	return f.data, f.err
}

func pointerTo(url string) *profile.VerifiableURI {
	return &profile.VerifiableURI{
		Verification: profile.Verification{Method: profile.VerificationMethodKeccak256UTF8},
		URL:          url,
	}
}

const goodLocator = "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func newResolver(provider wallet.Provider, pointers PointerReader, content ContentResolver) (*Resolver, *gridstate.Store) {
	store := gridstate.New()
	return New(provider, pointers, content, store, nil), store
}

func connectedProvider() *wallet.StaticProvider {
	return wallet.NewStaticProvider([]string{"0xabc"}, 42, nil)
}

func TestRefresh_NotConnected(t *testing.T) {
	r, _ := newResolver(wallet.NewStaticProvider(nil, 42, nil), &fakePointers{}, &fakeContent{})

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateNotFetched {
		t.Fatalf("expected not-fetched, got %q", snap.State)
	}
}

func TestRefresh_NoPointerIsEmpty(t *testing.T) {
	r, _ := newResolver(connectedProvider(), &fakePointers{uri: nil}, &fakeContent{})

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateEmpty {
		t.Fatalf("expected empty, got %q (%q)", snap.State, snap.Error)
	}
	if snap.Account != "0xabc" {
		t.Fatalf("account missing from snapshot: %#v", snap)
	}
}

func TestRefresh_InvalidLocatorScheme(t *testing.T) {
	r, _ := newResolver(connectedProvider(), &fakePointers{uri: pointerTo("https://example.com/doc.json")}, &fakeContent{})

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateError || snap.Error != gridstate.ErrorInvalidLocator {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestRefresh_FetchFailure(t *testing.T) {
	content := &fakeContent{err: errors.New("gateway down")}
	r, _ := newResolver(connectedProvider(), &fakePointers{uri: pointerTo(goodLocator)}, content)

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateError || snap.Error != gridstate.ErrorFetchFailed {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestRefresh_BadLocatorFromGateway(t *testing.T) {
	content := &fakeContent{err: ipfs.ErrBadLocator}
	r, _ := newResolver(connectedProvider(), &fakePointers{uri: pointerTo(goodLocator)}, content)

	snap := r.Refresh(context.Background())
	if snap.Error != gridstate.ErrorInvalidLocator {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestRefresh_InvalidJSON(t *testing.T) {
	content := &fakeContent{data: []byte(`{broken`)}
	r, _ := newResolver(connectedProvider(), &fakePointers{uri: pointerTo(goodLocator)}, content)

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateError || snap.Error != gridstate.ErrorInvalidData {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestRefresh_InvalidShape(t *testing.T) {
	content := &fakeContent{data: []byte(`{"unexpected":true}`)}
	r, _ := newResolver(connectedProvider(), &fakePointers{uri: pointerTo(goodLocator)}, content)

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateError || snap.Error != gridstate.ErrorInvalidFormat {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestRefresh_Ready(t *testing.T) {
	content := &fakeContent{data: []byte(`{"LSP28TheGrid":[{"title":"Acme","gridColumns":2,"grid":[]}]}`)}
	r, store := newResolver(connectedProvider(), &fakePointers{uri: pointerTo(goodLocator)}, content)

	snap := r.Refresh(context.Background())
	if snap.State != gridstate.StateReady {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	if len(snap.Sections) != 1 || snap.Sections[0].Title != "Acme" {
		t.Fatalf("unexpected sections: %#v", snap.Sections)
	}
	if store.Current().State != gridstate.StateReady {
		t.Fatal("store not updated")
	}
}

func TestRun_RefreshesOnAccountChange(t *testing.T) {
	provider := wallet.NewStaticProvider(nil, 42, nil)
	content := &fakeContent{data: []byte(`[]`)}
	r, store := newResolver(provider, &fakePointers{uri: pointerTo(goodLocator)}, content)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	// Initial refresh with no account lands in not-fetched.
	waitForState(t, store, gridstate.StateNotFetched)

	provider.SetAccounts([]string{"0xabc"})
	waitForState(t, store, gridstate.StateReady)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func waitForState(t *testing.T, store *gridstate.Store, want gridstate.State) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if store.Current().State == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("store never reached %q (currently %q)", want, store.Current().State)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
