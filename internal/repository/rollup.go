// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JoePelz/SAM/internal/addrutil"
	"github.com/JoePelz/SAM/internal/dialect"
	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/schema"
	sq "github.com/Masterminds/squirrel"
)

// rollupLevels are the four granularities the roll-up materialises,
// finest to coarsest is the reverse of this slice.
var rollupLevels = []schema.Subnet{schema.Subnet8, schema.Subnet16, schema.Subnet24, schema.Subnet32}

// commonPrefixLevel returns the finest level at which src and dst share a
// prefix, or 0 if they do not even share a /8. Because truncation is
// hierarchical — matching at a finer level implies matching at every
// coarser one — the search only needs to try the four levels from
// finest to coarsest and stop at the first hit.
func commonPrefixLevel(src, dst uint32) schema.Subnet {
	for i := len(rollupLevels) - 1; i >= 0; i-- {
		l := rollupLevels[i]
		if addrutil.TruncateToLevel(src, l).Start == addrutil.TruncateToLevel(dst, l).Start {
			return l
		}
	}
	return 0
}

// coarseLevelFor returns the truncation level assigned to the "other"
// side of a link rolling up to target, given how deep src and dst's
// shared prefix goes. When the batch's src/dst already agree down to
// target's immediate parent level, both sides roll up to target itself.
// Otherwise the other side is pinned at the level just below their
// deepest shared prefix, i.e. the level at which they diverge (/8 when
// they share nothing), whatever finer target is asked for — this is what lets
// LinksIn/LinksOut answer "who talks to this exact host" without losing
// the coarse shape of traffic that never gets more specific than a /8.
func coarseLevelFor(common, target schema.Subnet) schema.Subnet {
	idx := -1
	for i, l := range rollupLevels {
		if l == target {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return target
	}
	parent := rollupLevels[idx-1]
	if common >= parent {
		return target
	}
	for j := idx - 2; j >= 0; j-- {
		if common == rollupLevels[j] {
			return rollupLevels[j+1]
		}
	}
	return rollupLevels[0]
}

type rollupKey struct {
	srcStart, srcEnd uint32
	dstStart, dstEnd uint32
	port             int
	timestamp        int64
}

type rollupAccum struct {
	links     int64
	bytes     int64
	packets   int64
	protocols map[string]struct{}
}

func (a *rollupAccum) add(protocol string, links, bytes, packets int64) {
	if a.protocols == nil {
		a.protocols = make(map[string]struct{})
	}
	a.protocols[protocol] = struct{}{}
	a.links += links
	a.bytes += bytes
	a.packets += packets
}

func (a *rollupAccum) protocolList() string {
	list := make([]string, 0, len(a.protocols))
	for p := range a.protocols {
		list = append(list, p)
	}
	sort.Strings(list)
	return strings.Join(list, ",")
}

// RollupWindow captures the [min,max] timestamp currently in the
// StagingLink table, so the roll-up knows which slice of LinksIn/LinksOut
// to recompute. It must run before the Staging Sweep deletes that data.
func RollupWindow(tx *store.Tx, d dialect.Dialect, t TenantTables) (schema.TimeRange, error) {
	var r schema.TimeRange
	query, args, err := sq.Select("MIN(timestamp)", "MAX(timestamp)").From(d.QuoteIdent(t.StagingLinks)).ToSql()
	if err != nil {
		return r, fmt.Errorf("rollup window: build query: %w", err)
	}

	var minTS, maxTS *int64
	if err := scanMinMax(tx, query, args, &minTS, &maxTS); err != nil {
		return r, fmt.Errorf("rollup window: %w", err)
	}
	if minTS == nil || maxTS == nil {
		return r, nil
	}
	r.Start, r.End = *minTS, *maxTS
	return r, nil
}

func scanMinMax(tx *store.Tx, query string, args []interface{}, minTS, maxTS **int64) error {
	rows, err := tx.Queryx(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(minTS, maxTS)
	}
	return nil
}

// Rollup recomputes the LinksIn and LinksOut directional aggregates for
// window: it deletes any existing rows in that range, reads every master
// Link row in the range, and re-derives the four granularities (/8, /16,
// /24, /32) for both directions.
func Rollup(tx *store.Tx, d dialect.Dialect, t TenantTables, window schema.TimeRange) error {
	if window.Empty() {
		return nil
	}

	_, err := sq.Delete(d.QuoteIdent(t.LinksIn)).
		Where("timestamp BETWEEN ? AND ?", window.Start, window.End).
		RunWith(tx.RunWith()).
		Exec()
	if err != nil {
		return fmt.Errorf("rollup: clear links_in: %w", err)
	}
	_, err = sq.Delete(d.QuoteIdent(t.LinksOut)).
		Where("timestamp BETWEEN ? AND ?", window.Start, window.End).
		RunWith(tx.RunWith()).
		Exec()
	if err != nil {
		return fmt.Errorf("rollup: clear links_out: %w", err)
	}

	linkQuery, linkArgs, err := sq.Select("src", "dst", "port", "protocol", "timestamp", "links", "bytes_sent", "bytes_received", "packets_sent", "packets_received").
		From(d.QuoteIdent(t.Links)).
		Where("timestamp BETWEEN ? AND ?", window.Start, window.End).
		ToSql()
	if err != nil {
		return fmt.Errorf("rollup: build links query: %w", err)
	}
	rows, err := tx.Queryx(linkQuery, linkArgs...)
	if err != nil {
		return fmt.Errorf("rollup: read links: %w", err)
	}
	defer rows.Close()

	linksIn := make(map[rollupKey]*rollupAccum)
	linksOut := make(map[rollupKey]*rollupAccum)

	for rows.Next() {
		var src, dst uint32
		var port int
		var protocol string
		var timestamp, links, bytesSent, bytesReceived, packetsSent, packetsReceived int64
		if err := rows.Scan(&src, &dst, &port, &protocol, &timestamp, &links, &bytesSent, &bytesReceived, &packetsSent, &packetsReceived); err != nil {
			return fmt.Errorf("rollup: scan link: %w", err)
		}
		bytesTotal := bytesSent + bytesReceived
		packetsTotal := packetsSent + packetsReceived
		common := commonPrefixLevel(src, dst)

		for _, cl := range rollupLevels {
			// LinksIn: dst refines to cl, src coarsens to the level that
			// still describes the common ancestor.
			srcLevel := coarseLevelFor(common, cl)
			sr := addrutil.TruncateToLevel(src, srcLevel)
			dr := addrutil.TruncateToLevel(dst, cl)
			key := rollupKey{sr.Start, sr.End, dr.Start, dr.End, port, timestamp}
			acc := linksIn[key]
			if acc == nil {
				acc = &rollupAccum{}
				linksIn[key] = acc
			}
			acc.add(protocol, links, bytesTotal, packetsTotal)

			// LinksOut: src refines to cl, dst coarsens symmetrically.
			dstLevel := coarseLevelFor(common, cl)
			sr2 := addrutil.TruncateToLevel(src, cl)
			dr2 := addrutil.TruncateToLevel(dst, dstLevel)
			key2 := rollupKey{sr2.Start, sr2.End, dr2.Start, dr2.End, port, timestamp}
			acc2 := linksOut[key2]
			if acc2 == nil {
				acc2 = &rollupAccum{}
				linksOut[key2] = acc2
			}
			acc2.add(protocol, links, bytesTotal, packetsTotal)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rollup: iterate links: %w", err)
	}

	if err := insertDirectional(tx, d, t.LinksIn, linksIn); err != nil {
		return fmt.Errorf("rollup: write links_in: %w", err)
	}
	if err := insertDirectional(tx, d, t.LinksOut, linksOut); err != nil {
		return fmt.Errorf("rollup: write links_out: %w", err)
	}
	return nil
}

func insertDirectional(tx *store.Tx, d dialect.Dialect, table string, rows map[rollupKey]*rollupAccum) error {
	if len(rows) == 0 {
		return nil
	}
	builder := sq.Insert(d.QuoteIdent(table)).
		Columns("src_start", "src_end", "dst_start", "dst_end", "protocols", "port", "timestamp", "links", "bytes", "packets")
	for key, acc := range rows {
		builder = builder.Values(
			key.srcStart, key.srcEnd, key.dstStart, key.dstEnd,
			acc.protocolList(), key.port, key.timestamp,
			acc.links, acc.bytes, acc.packets,
		)
	}
	_, err := builder.RunWith(tx.RunWith()).Exec()
	return err
}
