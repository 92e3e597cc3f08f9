// Package capability hands out store handles with an explicit authorization level.
//
// An Elevated handle bypasses row ownership and is only accepted by moderation,
// settings, bootstrap and ingestion code. A CallerScoped handle filters every owned
// relation by the resolved caller, so self-service code cannot touch other users' rows.
// The two are distinct types: a repository that requires *Elevated cannot be built
// from a caller-scoped handle.
package capability

import (
	"context"

	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"gorm.io/gorm"
)

// Identity is the resolved caller of a request. The zero value is anonymous.
type Identity struct {
	UserID uint
	Role   string
}

// Anonymous is the identity of an unauthenticated request.
func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == 0
}

func (i Identity) IsAdmin() bool {
	return !i.IsAnonymous() && i.Role == "admin"
}

// Reader is satisfied by both handles; it only opens publicly readable relations.
type Reader interface {
	Read(ctx context.Context) *gorm.DB
}

// Provider issues handles over one gorm pool and, optionally, the media object store.
type Provider struct {
	db      *gorm.DB
	objects storage.ObjectStorage
}

type Option func(*Provider)

// WithObjectStorage makes objects reachable through elevated handles.
func WithObjectStorage(objects storage.ObjectStorage) Option {
	return func(p *Provider) { p.objects = objects }
}

func NewProvider(db *gorm.DB, opts ...Option) *Provider {
	p := &Provider{db: db}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Elevated returns a handle that bypasses row ownership.
func (p *Provider) Elevated() *Elevated {
	return &Elevated{db: p.db, objects: p.objects}
}

// CallerScoped returns a handle restricted to rows owned by caller.
func (p *Provider) CallerScoped(caller Identity) *CallerScoped {
	return &CallerScoped{db: p.db, caller: caller}
}

// Elevated is the admin capability.
type Elevated struct {
	db      *gorm.DB
	objects storage.ObjectStorage
}

// Objects returns the media object store, or nil when none is configured.
func (e *Elevated) Objects() storage.ObjectStorage {
	return e.objects
}

// DB returns an unfiltered session bound to ctx.
func (e *Elevated) DB(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx)
}

func (e *Elevated) Read(ctx context.Context) *gorm.DB {
	return e.DB(ctx)
}

// Transaction runs fn in one unfiltered transaction.
func (e *Elevated) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(fn)
}

// CallerScoped is the self-service capability.
type CallerScoped struct {
	db     *gorm.DB
	caller Identity
}

// CurrentCaller returns the resolved identity, or false for anonymous requests.
func (c *CallerScoped) CurrentCaller() (Identity, bool) {
	if c.caller.IsAnonymous() {
		return Identity{}, false
	}
	return c.caller, true
}

// Owned returns a session filtered to rows whose user_id is the caller.
func (c *CallerScoped) Owned(ctx context.Context) (*gorm.DB, error) {
	if c.caller.IsAnonymous() {
		return nil, apperrors.ErrUnauthenticated
	}
	return ownedBy(c.db.WithContext(ctx), c.caller.UserID), nil
}

// Public returns a session for relations every caller may read (catalog, approved reviews).
func (c *CallerScoped) Public(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

func (c *CallerScoped) Read(ctx context.Context) *gorm.DB {
	return c.Public(ctx)
}

// Transaction runs fn in one transaction. owned is filtered like Owned; public is the
// same transaction without the owner filter, for reading public relations.
func (c *CallerScoped) Transaction(ctx context.Context, fn func(owned, public *gorm.DB) error) error {
	if c.caller.IsAnonymous() {
		return apperrors.ErrUnauthenticated
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ownedBy(tx, c.caller.UserID), tx.Session(&gorm.Session{}))
	})
}

// ownedBy returns a reusable session: every chain started from it carries the owner filter.
func ownedBy(db *gorm.DB, userID uint) *gorm.DB {
	return db.Where("user_id = ?", userID).Session(&gorm.Session{})
}
