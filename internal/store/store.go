// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store is the Relational Store Adapter: a thin capability over
// *sqlx.DB giving the pipeline parameterised query execution via squirrel
// builders, explicit transactions, and the handful of dialect tokens no
// builder expresses. It carries no business logic.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/JoePelz/SAM/internal/dialect"
	"github.com/JoePelz/SAM/pkg/log"
	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"
)

// Store wraps one database connection pool plus the dialect it was opened
// with. One Store is shared by every (subscription, datasource) batch in
// the process; batches serialise among themselves at the transaction
// level, not at this level.
type Store struct {
	DB        *sqlx.DB
	Dialect   dialect.Dialect
	StmtCache *sq.StmtCache
}

var (
	registerSQLiteHooksOnce sync.Once
)

// Connect opens the pool for driver ("sqlite3" or "mysql") against dsn.
// The sqlite3 driver is wrapped with query-logging hooks and capped to a
// single connection: sqlite does not benefit from concurrent writers,
// and having more than one connection open just means waiting on its
// single writer lock.
func Connect(driver, dsn string) (*Store, error) {
	d, err := dialect.For(driver)
	if err != nil {
		return nil, wrapf(err, "connect")
	}

	var db *sqlx.DB
	switch d {
	case dialect.SQLite:
		registerSQLiteHooksOnce.Do(func() {
			sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &queryHooks{}))
		})
		db, err = sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on", dsn))
		if err != nil {
			return nil, wrapf(err, "open sqlite3")
		}
		db.SetMaxOpenConns(1)
	case dialect.MySQL:
		db, err = sqlx.Open("mysql", fmt.Sprintf("%s?multiStatements=true", dsn))
		if err != nil {
			return nil, wrapf(err, "open mysql")
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}

	if err := db.Ping(); err != nil {
		return nil, wrapf(err, "ping %s", d)
	}

	log.Infof("connected to %s database", d)
	return &Store{DB: db, Dialect: d, StmtCache: sq.NewStmtCache(db.DB)}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Exec runs a parameterised statement outside of any transaction. It
// exists for DDL (CREATE TABLE, migrations) that squirrel has no builder
// for; query construction for DML belongs on RunWith.
func (s *Store) Exec(query string, args ...interface{}) (sql.Result, error) {
	res, err := s.DB.Exec(query, args...)
	if err != nil {
		return nil, wrapf(err, "exec")
	}
	return res, nil
}

// RunWith exposes the store's prepared-statement cache as a squirrel
// BaseRunner, so a squirrel builder can run directly against the pool
// outside of a transaction: builder.RunWith(s.RunWith()).Exec().
func (s *Store) RunWith() sq.BaseRunner {
	return s.StmtCache
}
