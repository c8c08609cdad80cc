package installer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deliquified/ministore/internal/catalog"
	"github.com/deliquified/ministore/internal/chain"
	"github.com/deliquified/ministore/internal/grid"
	"github.com/deliquified/ministore/internal/gridstate"
	"github.com/deliquified/ministore/internal/profile"
	"github.com/deliquified/ministore/internal/wallet"
)

type fakeSigner struct{}

func (fakeSigner) SendTransaction(ctx context.Context, tx wallet.Tx) (string, error) {
	return "0xsigned", nil
}

type fakePointers struct {
	handle profile.TxHandle
	err    error
	wrote  []byte
}

func (f *fakePointers) WritePointer(ctx context.Context, account string, signer wallet.Signer, locator string, content []byte) (profile.TxHandle, error) {
	f.wrote = content
	return f.handle, f.err
}

type fakeUploads struct {
	locator string
	err     error
}

func (f *fakeUploads) Upload(ctx context.Context, data []byte) (string, error) {
	return f.locator, f.err
}

type fakeReceipts struct {
	receipt *chain.Receipt
	err     error
}

func (f *fakeReceipts) WaitForReceipt(ctx context.Context, txHash string, pollInterval time.Duration) (*chain.Receipt, error) {
	return f.receipt, f.err
}

var testApp = catalog.App{
	ID:        "acme-notes",
	Name:      "Acme Notes",
	Developer: "Acme",
	LaunchURL: "https://notes.acme.example",
}

type fixture struct {
	service  *Service
	store    *gridstate.Store
	pointers *fakePointers
}

func newFixture(receipts ReceiptWaiter) *fixture {
	provider := wallet.NewStaticProvider([]string{"0xabc"}, 42, fakeSigner{})
	store := gridstate.New()
	store.SetSections("0xabc", nil)
	pointers := &fakePointers{handle: profile.TxHandle{Hash: "0xdeadbeef"}}
	uploads := &fakeUploads{locator: "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"}
	service := New(provider, pointers, uploads, receipts, store, nil)
	service.waitTimeout = time.Second
	service.pollInterval = time.Millisecond
	return &fixture{service: service, store: store, pointers: pointers}
}

func confirmedReceipts() *fakeReceipts {
	return &fakeReceipts{receipt: &chain.Receipt{TransactionHash: "0xdeadbeef", Status: "0x1"}}
}

func waitForTerminal(t *testing.T, service *Service, id string) Operation {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		op, ok := service.Get(id)
		if !ok {
			t.Fatalf("operation %s vanished", id)
		}
		if op.Status.IsTerminal() {
			return op
		}
		select {
		case <-deadline:
			t.Fatalf("operation stuck in %s", op.Status)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestInstallFlow(t *testing.T) {
	f := newFixture(confirmedReceipts())

	op, err := f.service.BeginInstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if op.Status != StatusAwaitingTarget {
		t.Fatalf("expected awaiting-target, got %s", op.Status)
	}

	op, err = f.service.ConfirmTarget(context.Background(), op.ID, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if op.Status != StatusAwaitingConfirmation {
		t.Fatalf("expected awaiting-confirmation, got %s", op.Status)
	}
	if op.TxHash != "0xdeadbeef" {
		t.Fatalf("tx hash not recorded: %#v", op)
	}

	// The optimistic update lands before confirmation.
	if !f.service.IsInstalled(testApp) {
		t.Fatal("app not visible in grid after submission")
	}
	snap := f.store.Current()
	if len(snap.Sections) != 1 || snap.Sections[0].Title != testApp.Developer {
		t.Fatalf("unexpected sections: %#v", snap.Sections)
	}

	op = waitForTerminal(t, f.service, op.ID)
	if op.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %s (%s)", op.Status, op.Error)
	}
}

func TestInstallAlreadyInstalled(t *testing.T) {
	f := newFixture(confirmedReceipts())
	f.store.SetSections("0xabc", []grid.Section{{
		Title: "Acme",
		Grid:  []grid.Item{{Type: grid.ItemTypeIFrame, Properties: map[string]any{"src": testApp.LaunchURL}}},
	}})

	op, err := f.service.BeginInstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if op.Status != StatusAlreadyInstalled {
		t.Fatalf("expected already-installed, got %s", op.Status)
	}
	if f.pointers.wrote != nil {
		t.Fatal("no transaction must be submitted for an installed app")
	}
}

func TestInstallNotConnected(t *testing.T) {
	provider := wallet.NewStaticProvider(nil, 42, fakeSigner{})
	service := New(provider, &fakePointers{}, &fakeUploads{}, confirmedReceipts(), gridstate.New(), nil)

	if _, err := service.BeginInstall(context.Background(), testApp); !errors.Is(err, wallet.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestInstallBusyGuard(t *testing.T) {
	f := newFixture(confirmedReceipts())

	first, err := f.service.BeginInstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := f.service.BeginInstall(context.Background(), testApp); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	// Canceling releases the slot.
	if _, err := f.service.Cancel(first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.service.BeginInstall(context.Background(), testApp); err != nil {
		t.Fatalf("begin after cancel: %v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(confirmedReceipts())

	op, _ := f.service.BeginInstall(context.Background(), testApp)
	canceled, err := f.service.Cancel(op.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Fatalf("expected canceled, got %s", canceled.Status)
	}
	if f.pointers.wrote != nil {
		t.Fatal("cancel must not submit anything")
	}

	if _, err := f.service.Cancel(op.ID); !errors.Is(err, ErrNotAwaitingTarget) {
		t.Fatalf("expected ErrNotAwaitingTarget on double cancel, got %v", err)
	}
	if _, err := f.service.Cancel("nope"); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestConfirmTargetOutOfRange(t *testing.T) {
	f := newFixture(confirmedReceipts())

	op, _ := f.service.BeginInstall(context.Background(), testApp)
	target := 5
	op, err := f.service.ConfirmTarget(context.Background(), op.ID, &target)
	if err == nil {
		t.Fatal("expected error for out-of-range target")
	}
	if op.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", op.Status)
	}
	if f.service.IsInstalled(testApp) {
		t.Fatal("failed install must not update the grid")
	}
}

func TestUninstallFlow(t *testing.T) {
	f := newFixture(confirmedReceipts())
	f.store.SetSections("0xabc", []grid.Section{{
		Title: "Acme",
		Grid:  []grid.Item{{Type: grid.ItemTypeIFrame, Properties: map[string]any{"src": testApp.LaunchURL}}},
	}})

	op, err := f.service.Uninstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if op.Status != StatusAwaitingConfirmation {
		t.Fatalf("expected awaiting-confirmation, got %s", op.Status)
	}
	if f.service.IsInstalled(testApp) {
		t.Fatal("app still present after uninstall submission")
	}
	if len(f.store.Current().Sections) != 0 {
		t.Fatalf("empty section not dropped: %#v", f.store.Current().Sections)
	}

	op = waitForTerminal(t, f.service, op.ID)
	if op.Status != StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", op.Status)
	}
}

func TestUninstallNotInstalled(t *testing.T) {
	f := newFixture(confirmedReceipts())

	op, err := f.service.Uninstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	if op.Status != StatusNotInstalled {
		t.Fatalf("expected not-installed, got %s", op.Status)
	}
	if f.pointers.wrote != nil {
		t.Fatal("no transaction must be submitted for an absent app")
	}
}

func TestUploadFailureLeavesGridUntouched(t *testing.T) {
	provider := wallet.NewStaticProvider([]string{"0xabc"}, 42, fakeSigner{})
	store := gridstate.New()
	store.SetSections("0xabc", nil)
	uploads := &fakeUploads{err: errors.New("pin service down")}
	service := New(provider, &fakePointers{}, uploads, confirmedReceipts(), store, nil)

	op, _ := service.BeginInstall(context.Background(), testApp)
	op, err := service.ConfirmTarget(context.Background(), op.ID, nil)
	if err == nil {
		t.Fatal("expected upload error")
	}
	if op.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", op.Status)
	}
	if len(store.Current().Sections) != 0 {
		t.Fatal("grid updated despite synchronous failure")
	}

	// The slot is released for a retry.
	if _, err := service.BeginInstall(context.Background(), testApp); err != nil {
		t.Fatalf("begin after failure: %v", err)
	}
}

func TestRevertedReceiptKeepsOptimisticState(t *testing.T) {
	f := newFixture(&fakeReceipts{receipt: &chain.Receipt{TransactionHash: "0xdeadbeef", Status: "0x0"}})

	op, _ := f.service.BeginInstall(context.Background(), testApp)
	op, err := f.service.ConfirmTarget(context.Background(), op.ID, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	op = waitForTerminal(t, f.service, op.ID)
	if op.Status != StatusFailed || op.Error != "transaction reverted" {
		t.Fatalf("unexpected settle: %#v", op)
	}
	// No rollback: the document keeps the optimistic shape.
	if !f.service.IsInstalled(testApp) {
		t.Fatal("optimistic state was rolled back")
	}
}

func TestMissingReceiptFailsOperation(t *testing.T) {
	f := newFixture(&fakeReceipts{err: context.DeadlineExceeded})

	op, _ := f.service.BeginInstall(context.Background(), testApp)
	op, err := f.service.ConfirmTarget(context.Background(), op.ID, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	op = waitForTerminal(t, f.service, op.ID)
	if op.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", op.Status)
	}
}

func TestSettledOperationsEvicted(t *testing.T) {
	f := newFixture(confirmedReceipts())
	f.service.retention = -time.Nanosecond

	op, err := f.service.BeginInstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := f.service.Cancel(op.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The next mutation prunes the settled record; live ones survive.
	second, err := f.service.BeginInstall(context.Background(), testApp)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, ok := f.service.Get(op.ID); ok {
		t.Fatal("settled operation not evicted")
	}
	if _, ok := f.service.Get(second.ID); !ok {
		t.Fatal("pending operation must not be evicted")
	}
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusIdle:                 "idle",
		StatusAwaitingTarget:       "awaiting-target",
		StatusSubmitting:           "submitting",
		StatusAwaitingConfirmation: "awaiting-confirmation",
		StatusConfirmed:            "confirmed",
		StatusFailed:               "failed",
		StatusCanceled:             "canceled",
		StatusAlreadyInstalled:     "already-installed",
		StatusNotInstalled:         "not-installed",
	}
	for status, want := range cases {
		if status.String() != want {
			t.Fatalf("status %d: got %q", status, status.String())
		}
	}
	if !StatusConfirmed.IsTerminal() || StatusSubmitting.IsTerminal() {
		t.Fatal("terminal classification wrong")
	}
}
