// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeLinksAddsOntoExisting(t *testing.T) {
	s := setup(t)
	subID, dsID := seedSubscription(t, s, "judy@example.com", "primary")
	tables := Tables(subID, dsID)

	tx, err := s.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(
		`INSERT INTO `+s.Dialect.QuoteIdent(tables.Links)+
			` (src, dst, port, protocol, timestamp, links, bytes_sent, bytes_received, packets_sent, packets_received, duration)
			 VALUES (1, 2, 22, 'tcp', 1000, 2, 100, 200, 2, 4, 2.0)`)
	require.NoError(t, err)
	_, err = tx.Exec(
		`INSERT INTO `+s.Dialect.QuoteIdent(tables.StagingLinks)+
			` (src, dst, port, protocol, timestamp, links, bytes_sent, bytes_received, packets_sent, packets_received, duration)
			 VALUES (1, 2, 22, 'tcp', 1000, 1, 50, 60, 1, 1, 4.0)`)
	require.NoError(t, err)

	require.NoError(t, MergeLinks(tx, s.Dialect, tables))
	require.NoError(t, tx.Commit())

	var links int64
	var bytesSent int64
	var duration float64
	require.NoError(t, s.DB.Get(&links, `SELECT links FROM `+s.Dialect.QuoteIdent(tables.Links)))
	require.NoError(t, s.DB.Get(&bytesSent, `SELECT bytes_sent FROM `+s.Dialect.QuoteIdent(tables.Links)))
	require.NoError(t, s.DB.Get(&duration, `SELECT duration FROM `+s.Dialect.QuoteIdent(tables.Links)))

	require.Equal(t, int64(3), links, "2 existing + 1 new")
	require.Equal(t, int64(150), bytesSent, "100 existing + 50 new")
	require.InDelta(t, (2.0*2+4.0*1)/3.0, duration, 0.0001, "links-weighted average duration")
}

func TestMergeLinksInsertsWhenNoExistingRow(t *testing.T) {
	s := setup(t)
	subID, dsID := seedSubscription(t, s, "kevin@example.com", "primary")
	tables := Tables(subID, dsID)

	tx, err := s.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(
		`INSERT INTO `+s.Dialect.QuoteIdent(tables.StagingLinks)+
			` (src, dst, port, protocol, timestamp, links, bytes_sent, bytes_received, packets_sent, packets_received, duration)
			 VALUES (3, 4, 80, 'udp', 2000, 5, 10, 20, 1, 1, 0.2)`)
	require.NoError(t, err)

	require.NoError(t, MergeLinks(tx, s.Dialect, tables))
	require.NoError(t, tx.Commit())

	var links int64
	require.NoError(t, s.DB.Get(&links, `SELECT links FROM `+s.Dialect.QuoteIdent(tables.Links)))
	require.Equal(t, int64(5), links)
}
