package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

type txState struct {
	tx          *gorm.DB
	afterCommit []func()
}

// Transactor runs fn inside a database transaction carried by ctx.
// Repositories pick it up through Conn, so services can compose several
// repository calls into one atomic unit.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// Transaction joins the transaction already in ctx, if any.
func (t *gormTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if activeState(ctx) != nil {
		return fn(ctx)
	}

	state := &txState{}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	// contexts captured inside fn must not reach the finished tx
	state.tx = nil
	if err != nil {
		return err
	}

	for _, cb := range state.afterCommit {
		cb()
	}
	return nil
}

func activeState(ctx context.Context) *txState {
	if state, ok := ctx.Value(txKey{}).(*txState); ok && state.tx != nil {
		return state
	}
	return nil
}

// Conn returns the transaction carried by ctx, or db bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if state := activeState(ctx); state != nil {
		return state.tx
	}
	return db.WithContext(ctx)
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	return activeState(ctx) != nil
}

// AfterCommit defers fn until the surrounding transaction commits. Outside a
// transaction fn runs immediately. Callbacks of a rolled back transaction are dropped.
func AfterCommit(ctx context.Context, fn func()) {
	if state := activeState(ctx); state != nil {
		state.afterCommit = append(state.afterCommit, fn)
		return
	}
	fn()
}
