// Package ledger is the lowest-level ownership primitive of the registry.
// Every write that touches a credential's owner passes through a pre-update
// hook before it reaches storage, so no caller — present or future — can
// change ownership without the hook's consent. The only ownership transition
// the default hook permits is the original mint, which originates from the
// zero handle.
package ledger

import (
	"context"
	"time"

	"proofgate/internal/registry/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

// Store is the generic bookkeeping backend under the ledger: id assignment,
// (owner, topic) uniqueness, and per-owner enumeration in mint order.
type Store interface {
	// Insert assigns the next id and records the credential. It fails with
	// sentinel.ErrAlreadyUsed when a credential for (owner, topic) exists.
	Insert(ctx context.Context, cred *models.Credential) error
	// Get returns the credential with the given id, or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.CredentialID) (*models.Credential, error)
	// SetOwner rewrites the owner of an existing credential. Only the ledger
	// may call it, and only after the update hook has passed.
	SetOwner(ctx context.Context, id domain.CredentialID, owner domain.Address) error
	// ByOwner lists the owner's credentials in mint order. Unknown owners
	// yield an empty slice, not an error.
	ByOwner(ctx context.Context, owner domain.Address) ([]*models.Credential, error)
}

// UpdateHook inspects an ownership transition before it is applied.
// prev is the credential as stored (for mints, a synthetic record owned by
// the zero handle); next carries the ownership state being written.
type UpdateHook func(prev, next *models.Credential) error

// nonTransferable rejects every ownership change whose previous owner is a
// concrete handle. Mints pass because they originate from the zero handle.
func nonTransferable(prev, next *models.Credential) error {
	if !prev.Owner.IsZero() {
		return dErrors.New(dErrors.CodeTransferNotAllowed,
			"credentials are bound to their claimant and cannot be transferred")
	}
	return nil
}

// Ledger wraps a Store and gates all ownership writes through update hooks.
// The non-transferability hook is always installed; extra hooks stack after it.
type Ledger struct {
	store Store
	hooks []UpdateHook
}

// New builds a ledger over the given store.
func New(store Store, extra ...UpdateHook) *Ledger {
	hooks := append([]UpdateHook{nonTransferable}, extra...)
	return &Ledger{store: store, hooks: hooks}
}

func (l *Ledger) runHooks(prev, next *models.Credential) error {
	for _, hook := range l.hooks {
		if err := hook(prev, next); err != nil {
			return err
		}
	}
	return nil
}

// Mint records a new credential bound to owner and topic. The hook sees a
// transition from the zero handle, which is the one ownership write allowed.
func (l *Ledger) Mint(ctx context.Context, owner domain.Address, topic domain.Topic, at time.Time) (*models.Credential, error) {
	next := &models.Credential{Owner: owner, Topic: topic, MintedAt: at}
	prev := &models.Credential{Owner: domain.ZeroAddress, Topic: topic}
	if err := l.runHooks(prev, next); err != nil {
		return nil, err
	}
	if err := l.store.Insert(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SetOwner attempts an ownership change on an existing credential. The
// stored record is loaded first so the hook always sees the true previous
// owner; with the default hook this fails for every minted credential.
func (l *Ledger) SetOwner(ctx context.Context, id domain.CredentialID, newOwner domain.Address) error {
	prev, err := l.store.Get(ctx, id)
	if err != nil {
		return err
	}
	next := *prev
	next.Owner = newOwner
	if err := l.runHooks(prev, &next); err != nil {
		return err
	}
	return l.store.SetOwner(ctx, id, newOwner)
}

// Get returns the credential with the given id.
func (l *Ledger) Get(ctx context.Context, id domain.CredentialID) (*models.Credential, error) {
	return l.store.Get(ctx, id)
}

// OwnedBy lists a claimant's credentials in mint order.
func (l *Ledger) OwnedBy(ctx context.Context, owner domain.Address) ([]*models.Credential, error) {
	return l.store.ByOwner(ctx, owner)
}
