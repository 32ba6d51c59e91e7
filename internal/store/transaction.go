// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Tx is one batch's transaction handle. It is statement-agnostic: every
// component of the pipeline runs its own queries against it, and the
// Driver alone decides when to Commit or Rollback.
type Tx struct {
	tx   *sqlx.Tx
	done bool
}

// Begin opens a new transaction against the store's connection pool.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, wrapf(err, "begin transaction")
	}
	return &Tx{tx: tx}, nil
}

// Commit finalises the transaction. Calling Commit twice, or Commit after
// Rollback, returns an error rather than panicking.
func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already committed or rolled back")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return wrapf(err, "commit transaction")
	}
	return nil
}

// Rollback discards every change made on this transaction. It is safe to
// call on an already-finished transaction; the error is swallowed the way
// a deferred cleanup rollback usually is.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return wrapf(err, "rollback transaction")
	}
	return nil
}

// Exec runs a parameterised statement on the transaction.
func (t *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	res, err := t.tx.Exec(query, args...)
	if err != nil {
		return nil, wrapf(err, "exec in transaction")
	}
	return res, nil
}

// NamedExec runs a named-parameter statement (":field" placeholders bound
// from struct tags) on the transaction.
func (t *Tx) NamedExec(query string, arg interface{}) (sql.Result, error) {
	res, err := t.tx.NamedExec(query, arg)
	if err != nil {
		return nil, wrapf(err, "named exec in transaction")
	}
	return res, nil
}

// RunWith exposes the transaction as a squirrel BaseRunner, so a squirrel
// builder can run directly against it: builder.RunWith(tx.RunWith()).Exec().
func (t *Tx) RunWith() sq.BaseRunner {
	return t.tx
}

// Queryx runs a parameterised query and returns rows bound to struct tags.
func (t *Tx) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	rows, err := t.tx.Queryx(query, args...)
	if err != nil {
		return nil, wrapf(err, "query in transaction")
	}
	return rows, nil
}

// Get scans a single row into dest (a pointer to a struct or scalar).
func (t *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	if err := t.tx.Get(dest, query, args...); err != nil {
		return wrapf(err, "get in transaction")
	}
	return nil
}
