// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"

	"github.com/JoePelz/SAM/internal/dialect"
	"github.com/JoePelz/SAM/internal/store"
	sq "github.com/Masterminds/squirrel"
)

// MergeLinks folds every StagingLink row into the master Link table,
// additively combining counters for any (src, dst, port, protocol,
// timestamp) key that already has a Link row, and inserting a fresh one
// otherwise. The duration column is a links-weighted average, not a sum:
// a row describing more flows should move the average further than one
// describing few.
func MergeLinks(tx *store.Tx, d dialect.Dialect, t TenantTables) error {
	sl := d.QuoteIdent(t.StagingLinks)
	link := d.QuoteIdent(t.Links)

	combined := sq.Select(
		"sl.src", "sl.dst", "sl.port", "sl.protocol", "sl.timestamp",
		"sl.links + COALESCE(l.links, 0)",
		"sl.bytes_sent + COALESCE(l.bytes_sent, 0)",
		"sl.bytes_received + COALESCE(l.bytes_received, 0)",
		"sl.packets_sent + COALESCE(l.packets_sent, 0)",
		"sl.packets_received + COALESCE(l.packets_received, 0)",
		"(sl.duration * sl.links + COALESCE(l.duration * l.links, 0)) / (sl.links + COALESCE(l.links, 0))",
	).From(sl + " AS sl").
		LeftJoin(link + " AS l ON l.src = sl.src AND l.dst = sl.dst AND l.port = sl.port" +
			" AND l.protocol = sl.protocol AND l.timestamp = sl.timestamp")

	_, err := d.ReplaceBuilder(link).
		Columns("src", "dst", "port", "protocol", "timestamp", "links", "bytes_sent", "bytes_received", "packets_sent", "packets_received", "duration").
		Select(combined).
		RunWith(tx.RunWith()).
		Exec()
	if err != nil {
		return fmt.Errorf("merge links: %w", err)
	}
	return nil
}
