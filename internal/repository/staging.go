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

// AggregateStaging groups every row currently in the Syslog table by
// (src, dst, dstport, protocol, bucket), where bucket floors timestamp to
// the nearest bucketSeconds, and writes one StagingLink row per group.
// Byte and packet counters are summed; duration is averaged across the
// group's flows.
func AggregateStaging(tx *store.Tx, d dialect.Dialect, t TenantTables, bucketSeconds int64) error {
	bucketExpr := d.TimeBucketExpr("timestamp", bucketSeconds)

	grouped := sq.Select(
		"src", "dst", "dstport", "protocol", bucketExpr+" AS ts",
		"COUNT(1)", "SUM(bytes_sent)", "SUM(bytes_received)", "SUM(packets_sent)", "SUM(packets_received)", "AVG(duration)",
	).From(d.QuoteIdent(t.Syslog)).GroupBy("src", "dst", "dstport", "protocol", "ts")

	_, err := sq.Insert(d.QuoteIdent(t.StagingLinks)).
		Columns("src", "dst", "port", "protocol", "timestamp", "links", "bytes_sent", "bytes_received", "packets_sent", "packets_received", "duration").
		Select(grouped).
		RunWith(tx.RunWith()).
		Exec()
	if err != nil {
		return fmt.Errorf("aggregate staging: %w", err)
	}
	return nil
}
