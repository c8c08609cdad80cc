// Package installer coordinates the grid install/uninstall pipeline: resolve
// the current document, compute the mutation, re-upload to the content
// store, write the new pointer on-chain, and optimistically publish the new
// document while the transaction confirms in the background.
//
// The service serializes operations per app launch URL only. Two concurrent
// operations against different apps each read the same pre-mutation
// snapshot; whichever write-back lands last on-chain wins. That matches the
// UI contract (one disabled button per app) and is left unguarded.
package installer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deliquified/ministore/internal/catalog"
	"github.com/deliquified/ministore/internal/chain"
	"github.com/deliquified/ministore/internal/grid"
	"github.com/deliquified/ministore/internal/gridstate"
	"github.com/deliquified/ministore/internal/metrics"
	"github.com/deliquified/ministore/internal/profile"
	"github.com/deliquified/ministore/internal/wallet"
	"github.com/deliquified/ministore/pkg/logger"
)

var (
	// ErrBusy is returned when an operation for the same app is in flight.
	ErrBusy = errors.New("installer: operation already in flight for this app")

	// ErrUnknownOperation is returned for an operation id the service does
	// not track.
	ErrUnknownOperation = errors.New("installer: unknown operation")

	// ErrNotAwaitingTarget is returned when ConfirmTarget or Cancel is
	// called on an operation past the target-selection point.
	ErrNotAwaitingTarget = errors.New("installer: operation is not awaiting a target")
)

// Kind distinguishes install from uninstall operations.
type Kind string

const (
	KindInstall   Kind = "install"
	KindUninstall Kind = "uninstall"
)

// Operation is the transient record of one install/uninstall. It is owned by
// the service for the duration of the operation and discarded afterwards,
// never persisted.
type Operation struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	App       catalog.App `json:"app"`
	Status    Status      `json:"status"`
	TxHash    string      `json:"txHash,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// PointerWriter writes the grid pointer for an account.
type PointerWriter interface {
	WritePointer(ctx context.Context, account string, signer wallet.Signer, locator string, content []byte) (profile.TxHandle, error)
}

// Uploader stores document bytes and returns their locator.
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// ReceiptWaiter polls for a transaction receipt.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, txHash string, pollInterval time.Duration) (*chain.Receipt, error)
}

// Service is the install/uninstall orchestrator.
type Service struct {
	provider wallet.Provider
	pointers PointerWriter
	uploads  Uploader
	receipts ReceiptWaiter
	store    *gridstate.Store
	log      *logger.Logger

	waitTimeout  time.Duration
	pollInterval time.Duration
	retention    time.Duration

	mu       sync.Mutex
	ops      map[string]*Operation
	inflight map[string]string // launch URL -> operation id
}

// DefaultOpRetention is how long a settled operation stays queryable through
// Get before it is pruned.
const DefaultOpRetention = 10 * time.Minute

// New creates the orchestrator.
func New(provider wallet.Provider, pointers PointerWriter, uploads Uploader, receipts ReceiptWaiter, store *gridstate.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("installer")
	}
	return &Service{
		provider:     provider,
		pointers:     pointers,
		uploads:      uploads,
		receipts:     receipts,
		store:        store,
		log:          log,
		waitTimeout:  chain.DefaultTxWaitTimeout,
		pollInterval: chain.DefaultPollInterval,
		retention:    DefaultOpRetention,
		ops:          make(map[string]*Operation),
		inflight:     make(map[string]string),
	}
}

// IsInstalled reports whether the current resolved document contains an
// IFRAME item with app's launch URL. A pure query against the shared
// snapshot; no I/O.
func (s *Service) IsInstalled(app catalog.App) bool {
	return grid.Contains(s.store.Current().Sections, app.LaunchURL)
}

// Get returns a copy of the tracked operation.
func (s *Service) Get(id string) (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// BeginInstall starts an install for app. When the app is already installed
// the returned operation settles immediately as already-installed and
// nothing else happens. Otherwise the operation suspends in awaiting-target
// until ConfirmTarget or Cancel.
func (s *Service) BeginInstall(ctx context.Context, app catalog.App) (Operation, error) {
	if _, err := wallet.PrimaryAccount(s.provider); err != nil {
		return Operation{}, err
	}

	if s.IsInstalled(app) {
		op := s.newOperation(KindInstall, app, StatusAlreadyInstalled)
		metrics.InstallOutcome("already_installed")
		s.log.WithField("app", app.ID).Info("install requested for already installed app")
		return op, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())
	if _, busy := s.inflight[app.LaunchURL]; busy {
		return Operation{}, ErrBusy
	}

	op := &Operation{
		ID:        uuid.NewString(),
		Kind:      KindInstall,
		App:       app,
		Status:    StatusAwaitingTarget,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.ops[op.ID] = op
	s.inflight[app.LaunchURL] = op.ID
	return *op, nil
}

// Cancel abandons an install at the target-selection point. No side effects
// were performed; the pending intent is discarded.
func (s *Service) Cancel(id string) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[id]
	if !ok {
		return Operation{}, ErrUnknownOperation
	}
	if op.Status != StatusAwaitingTarget {
		return *op, ErrNotAwaitingTarget
	}

	op.Status = StatusCanceled
	op.UpdatedAt = time.Now().UTC()
	delete(s.inflight, op.App.LaunchURL)
	metrics.InstallOutcome("canceled")
	return *op, nil
}

// ConfirmTarget resumes a suspended install with the chosen target section
// index, or nil to create a new section titled with the app's developer.
// On success the shared document is already updated when this returns; the
// transaction confirms in the background.
func (s *Service) ConfirmTarget(ctx context.Context, id string, target *int) (Operation, error) {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return Operation{}, ErrUnknownOperation
	}
	if op.Status != StatusAwaitingTarget {
		current := *op
		s.mu.Unlock()
		return current, ErrNotAwaitingTarget
	}
	op.Status = StatusSubmitting
	op.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	snapshot := s.store.Current()
	next, err := grid.ComputeInstall(snapshot.Sections, op.App.Ref(), target)
	if err != nil {
		s.fail(op, "install", err)
		return s.snapshot(op), err
	}

	if err := s.submit(ctx, op, next); err != nil {
		return s.snapshot(op), err
	}
	return s.snapshot(op), nil
}

// Uninstall removes every grid item embedding app, across all sections,
// dropping sections left empty. There is no target-selection step. Same
// optimistic-update-then-async-confirm discipline as install. Uninstalling an
// app the grid does not contain settles immediately as not-installed.
func (s *Service) Uninstall(ctx context.Context, app catalog.App) (Operation, error) {
	if _, err := wallet.PrimaryAccount(s.provider); err != nil {
		return Operation{}, err
	}

	if !s.IsInstalled(app) {
		op := s.newOperation(KindUninstall, app, StatusNotInstalled)
		metrics.Outcome(string(KindUninstall), "not_installed")
		s.log.WithField("app", app.ID).Info("uninstall requested for app not on the grid")
		return op, nil
	}

	s.mu.Lock()
	s.pruneLocked(time.Now())
	if _, busy := s.inflight[app.LaunchURL]; busy {
		s.mu.Unlock()
		return Operation{}, ErrBusy
	}
	op := &Operation{
		ID:        uuid.NewString(),
		Kind:      KindUninstall,
		App:       app,
		Status:    StatusSubmitting,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.ops[op.ID] = op
	s.inflight[app.LaunchURL] = op.ID
	s.mu.Unlock()

	snapshot := s.store.Current()
	next := grid.ComputeUninstall(snapshot.Sections, app.Ref())

	if err := s.submit(ctx, op, next); err != nil {
		return s.snapshot(op), err
	}
	return s.snapshot(op), nil
}

// submit runs the shared write-back pipeline: serialize, upload, write the
// pointer, then apply the optimistic update and hand off to the receipt
// watcher. Synchronous failures settle the operation as failed with no
// optimistic update applied.
func (s *Service) submit(ctx context.Context, op *Operation, next []grid.Section) error {
	account, err := wallet.PrimaryAccount(s.provider)
	if err != nil {
		s.fail(op, "account", err)
		return err
	}
	signer, err := s.provider.Signer()
	if err != nil {
		s.fail(op, "signer", err)
		return err
	}

	document, err := grid.Envelope(next)
	if err != nil {
		s.fail(op, "encode", err)
		return err
	}

	locator, err := s.uploads.Upload(ctx, document)
	if err != nil {
		s.fail(op, "upload", err)
		return fmt.Errorf("upload grid document: %w", err)
	}

	handle, err := s.pointers.WritePointer(ctx, account, signer, locator, document)
	if err != nil {
		s.fail(op, "submit", err)
		return fmt.Errorf("write grid pointer: %w", err)
	}

	// Optimistic update: the UI sees the new document as soon as the
	// transaction is submitted, not when it confirms.
	s.store.SetSections(account, next)

	s.mu.Lock()
	op.TxHash = handle.Hash
	op.Status = StatusAwaitingConfirmation
	op.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.log.WithField("op", op.ID).WithField("tx", handle.Hash).Infof("%s submitted", op.Kind)
	go s.awaitReceipt(op)
	return nil
}

// awaitReceipt watches for the transaction receipt in the background. A
// reverted transaction or a missing receipt is reported through logs and the
// operation record only; the optimistic document state is never rolled back.
func (s *Service) awaitReceipt(op *Operation) {
	ctx, cancel := context.WithTimeout(context.Background(), s.waitTimeout)
	defer cancel()

	receipt, err := s.receipts.WaitForReceipt(ctx, op.TxHash, s.pollInterval)
	switch {
	case err != nil:
		s.log.WithError(err).WithField("tx", op.TxHash).Warn("transaction confirmation not observed")
		s.settle(op, StatusFailed, fmt.Sprintf("confirmation: %v", err))
		metrics.Outcome(string(op.Kind), "confirmation_timeout")
	case !receipt.Succeeded():
		s.log.WithField("tx", op.TxHash).Warn("transaction reverted after optimistic update")
		s.settle(op, StatusFailed, "transaction reverted")
		metrics.Outcome(string(op.Kind), "reverted")
	default:
		s.settle(op, StatusConfirmed, "")
		metrics.Outcome(string(op.Kind), "confirmed")
	}
}

func (s *Service) settle(op *Operation, status Status, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op.Status = status
	op.Error = reason
	op.UpdatedAt = time.Now().UTC()
	delete(s.inflight, op.App.LaunchURL)
	s.pruneLocked(time.Now())
}

// pruneLocked drops settled operations past the retention window so the
// operation map stays bounded. Callers must hold mu.
func (s *Service) pruneLocked(now time.Time) {
	for id, op := range s.ops {
		if op.Status.IsTerminal() && now.Sub(op.UpdatedAt) > s.retention {
			delete(s.ops, id)
		}
	}
}

func (s *Service) fail(op *Operation, stage string, err error) {
	s.log.WithError(err).WithField("op", op.ID).Warnf("%s failed at %s", op.Kind, stage)
	s.settle(op, StatusFailed, fmt.Sprintf("%s: %v", stage, err))
	metrics.Outcome(string(op.Kind), "failed")
}

func (s *Service) snapshot(op *Operation) Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *op
}

func (s *Service) newOperation(kind Kind, app catalog.App, status Status) Operation {
	op := &Operation{
		ID:        uuid.NewString(),
		Kind:      kind,
		App:       app,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.ops[op.ID] = op
	s.mu.Unlock()
	return *op
}
