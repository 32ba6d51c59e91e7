// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateStagingGroupsSameBucket(t *testing.T) {
	s := setup(t)
	subID, dsID := seedSubscription(t, s, "heidi@example.com", "primary")
	tables := Tables(subID, dsID)

	tx, err := s.Begin()
	require.NoError(t, err)

	insert := `INSERT INTO ` + s.Dialect.QuoteIdent(tables.Syslog) +
		` (src, dst, dstport, protocol, timestamp, bytes_sent, bytes_received, packets_sent, packets_received, duration)
		  VALUES (?, ?, 22, 'tcp', ?, 10, 20, 1, 2, 1.0)`
	_, err = tx.Exec(insert, uint32(1), uint32(2), int64(1000))
	require.NoError(t, err)
	_, err = tx.Exec(insert, uint32(1), uint32(2), int64(1100))
	require.NoError(t, err)

	require.NoError(t, AggregateStaging(tx, s.Dialect, tables, 300))
	require.NoError(t, tx.Commit())

	var links int64
	var bytesSent int64
	require.NoError(t, s.DB.Get(&links, `SELECT links FROM `+s.Dialect.QuoteIdent(tables.StagingLinks)))
	require.NoError(t, s.DB.Get(&bytesSent, `SELECT bytes_sent FROM `+s.Dialect.QuoteIdent(tables.StagingLinks)))
	require.Equal(t, int64(2), links)
	require.Equal(t, int64(20), bytesSent)
}

func TestAggregateStagingSeparatesDifferentBuckets(t *testing.T) {
	s := setup(t)
	subID, dsID := seedSubscription(t, s, "ivan@example.com", "primary")
	tables := Tables(subID, dsID)

	tx, err := s.Begin()
	require.NoError(t, err)

	insert := `INSERT INTO ` + s.Dialect.QuoteIdent(tables.Syslog) +
		` (src, dst, dstport, protocol, timestamp, bytes_sent, bytes_received, packets_sent, packets_received, duration)
		  VALUES (?, ?, 22, 'tcp', ?, 10, 20, 1, 2, 1.0)`
	_, err = tx.Exec(insert, uint32(1), uint32(2), int64(0))
	require.NoError(t, err)
	_, err = tx.Exec(insert, uint32(1), uint32(2), int64(900))
	require.NoError(t, err)

	require.NoError(t, AggregateStaging(tx, s.Dialect, tables, 300))
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, s.DB.Get(&count, `SELECT COUNT(1) FROM `+s.Dialect.QuoteIdent(tables.StagingLinks)))
	require.Equal(t, 2, count)
}
