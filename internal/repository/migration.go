// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/JoePelz/SAM/internal/dialect"
	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*
var migrationFiles embed.FS

// MigrateSharedSchema brings the subscriptions/datasources tables (the
// tenancy roots, shared across every batch regardless of which (sub,
// datasource) it targets) up to date. Per-tenant flow tables are not
// migrated this way: their names are templated at runtime, so they are
// created on demand by EnsureTenantTables (tenancy.go) instead.
func MigrateSharedSchema(s *store.Store) error {
	var m *migrate.Migrate
	var err error

	switch s.Dialect {
	case dialect.SQLite:
		drv, derr := sqlite3.WithInstance(s.DB.DB, &sqlite3.Config{})
		if derr != nil {
			return fmt.Errorf("migration driver: %w", derr)
		}
		src, serr := iofs.New(migrationFiles, "migrations/sqlite3")
		if serr != nil {
			return fmt.Errorf("migration source: %w", serr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	case dialect.MySQL:
		drv, derr := mysql.WithInstance(s.DB.DB, &mysql.Config{})
		if derr != nil {
			return fmt.Errorf("migration driver: %w", derr)
		}
		src, serr := iofs.New(migrationFiles, "migrations/mysql")
		if serr != nil {
			return fmt.Errorf("migration source: %w", serr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "mysql", drv)
	default:
		return fmt.Errorf("unsupported dialect: %s", s.Dialect)
	}

	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	log.Info("shared schema is up to date")
	return nil
}
