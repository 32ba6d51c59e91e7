// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"testing"

	"github.com/JoePelz/SAM/internal/addrutil"
	"github.com/stretchr/testify/require"
)

func TestMaterialiseNodesCreatesFullHierarchy(t *testing.T) {
	s := setup(t)
	subID, dsID := seedSubscription(t, s, "alice@example.com", "primary")
	tables := Tables(subID, dsID)

	src, err := addrutil.Parse("10.20.30.40")
	require.NoError(t, err)
	dst, err := addrutil.Parse("192.168.1.1")
	require.NoError(t, err)

	tx, err := s.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(
		`INSERT INTO `+s.Dialect.QuoteIdent(tables.Syslog)+
			` (src, dst, dstport, protocol, timestamp, bytes_sent, bytes_received, packets_sent, packets_received, duration)
			 VALUES (?, ?, 443, 'tcp', 1000, 10, 20, 1, 2, 0.5)`,
		src.Start, dst.Start)
	require.NoError(t, err)

	cache := NewNodeCache()
	require.NoError(t, MaterialiseNodes(tx, s.Dialect, cache, tables))
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, s.DB.Get(&count, `SELECT COUNT(1) FROM `+s.Dialect.QuoteIdent(tables.Nodes)))
	require.Equal(t, 8, count, "two addresses x four levels each = 8 distinct nodes")

	n, ok := cache.Get(src.Start&0xFF000000, 8)
	require.True(t, ok)
	require.Equal(t, float64(20736), n.Radius)
}

func TestMaterialiseNodesIsIdempotent(t *testing.T) {
	s := setup(t)
	subID, dsID := seedSubscription(t, s, "bob@example.com", "primary")
	tables := Tables(subID, dsID)

	addr, err := addrutil.Parse("1.2.3.4")
	require.NoError(t, err)

	insertSyslog := `INSERT INTO ` + s.Dialect.QuoteIdent(tables.Syslog) +
		` (src, dst, dstport, protocol, timestamp, bytes_sent, bytes_received, packets_sent, packets_received, duration)
		  VALUES (?, ?, 80, 'tcp', 1000, 1, 1, 1, 1, 0.1)`

	for i := 0; i < 2; i++ {
		tx, err := s.Begin()
		require.NoError(t, err)
		_, err = tx.Exec(insertSyslog, addr.Start, addr.Start)
		require.NoError(t, err)

		cache := NewNodeCache()
		require.NoError(t, MaterialiseNodes(tx, s.Dialect, cache, tables))
		require.NoError(t, tx.Commit())
	}

	var count int
	require.NoError(t, s.DB.Get(&count, `SELECT COUNT(1) FROM `+s.Dialect.QuoteIdent(tables.Nodes)))
	require.Equal(t, 4, count, "repeating the same address must not duplicate nodes")
}
