// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"os"
	"testing"

	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/log"
	"github.com/stretchr/testify/require"
)

// setup opens a fresh temp-file SQLite database, migrates the shared
// schema, and returns it ready for a test to create its own tenant
// tables with EnsureTenantTables. One throwaway database file per test,
// never a shared fixture.
func setup(t *testing.T) *store.Store {
	t.Helper()
	log.SetLogLevel("warn")

	f, err := os.CreateTemp(t.TempDir(), "sam-*.db")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err := store.Connect("sqlite3", f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, MigrateSharedSchema(s))
	return s
}

// seedSubscription inserts a subscription and datasource directly (not
// through the pipeline, which never writes to these tables) and returns
// their models with EnsureTenantTables already having run for them.
func seedSubscription(t *testing.T, s *store.Store, email, datasourceName string) (int64, int64) {
	t.Helper()

	res, err := s.Exec(`INSERT INTO subscriptions (email) VALUES (?)`, email)
	require.NoError(t, err)
	subID, err := res.LastInsertId()
	require.NoError(t, err)

	res, err = s.Exec(`INSERT INTO datasources (subscription_id, name) VALUES (?, ?)`, subID, datasourceName)
	require.NoError(t, err)
	dsID, err := res.LastInsertId()
	require.NoError(t, err)

	require.NoError(t, EnsureTenantTables(s, Tables(subID, dsID)))
	return subID, dsID
}
