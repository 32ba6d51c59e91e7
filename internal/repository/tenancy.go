// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"

	"github.com/JoePelz/SAM/internal/dialect"
	"github.com/JoePelz/SAM/internal/store"
)

// TenantTables names the six flow tables a (subscription, datasource)
// batch works on. Nodes is shared by every datasource of the
// subscription; the other five belong to the pair alone. Names are built from the integer ids alone — never
// from the subscription email or datasource name — so there is nothing in
// the template to allowlist beyond "is this actually an int64": Go's type
// system does that for us before a byte of the name is formatted.
type TenantTables struct {
	Nodes        string
	Syslog       string
	StagingLinks string
	Links        string
	LinksIn      string
	LinksOut     string
}

// Tables builds the TenantTables for one (subscription, datasource) pair.
func Tables(subscriptionID, datasourceID int64) TenantTables {
	prefix := fmt.Sprintf("sub%d_ds%d", subscriptionID, datasourceID)
	return TenantTables{
		Nodes:        fmt.Sprintf("sub%d_nodes", subscriptionID),
		Syslog:       prefix + "_syslog",
		StagingLinks: prefix + "_staging_links",
		Links:        prefix + "_links",
		LinksIn:      prefix + "_links_in",
		LinksOut:     prefix + "_links_out",
	}
}

// EnsureTenantTables creates the six flow tables for t if they do not
// already exist. It is idempotent and safe to call at the start of every
// batch rather than only once at provisioning time. CREATE TABLE is DDL,
// which squirrel has no builder for, so this is the one place the store
// adapter's raw Exec is used for something other than a migration.
func EnsureTenantTables(s *store.Store, t TenantTables) error {
	q := t.quoted(s.Dialect)
	autoInc := "INTEGER"
	if s.Dialect == dialect.MySQL {
		autoInc = "BIGINT"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ipstart %s NOT NULL,
			ipend %s NOT NULL,
			subnet INTEGER NOT NULL,
			x DOUBLE NOT NULL,
			y DOUBLE NOT NULL,
			radius DOUBLE NOT NULL,
			alias VARCHAR(255),
			env VARCHAR(255),
			PRIMARY KEY (ipstart, ipend)
		)`, q.Nodes, autoInc, autoInc),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			src %s NOT NULL,
			dst %s NOT NULL,
			dstport INTEGER NOT NULL,
			protocol VARCHAR(32) NOT NULL,
			timestamp BIGINT NOT NULL,
			bytes_sent BIGINT NOT NULL,
			bytes_received BIGINT NOT NULL,
			packets_sent BIGINT NOT NULL,
			packets_received BIGINT NOT NULL,
			duration DOUBLE NOT NULL
		)`, q.Syslog, autoInc, autoInc),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			src %s NOT NULL,
			dst %s NOT NULL,
			port INTEGER NOT NULL,
			protocol VARCHAR(32) NOT NULL,
			timestamp BIGINT NOT NULL,
			links BIGINT NOT NULL,
			bytes_sent BIGINT NOT NULL,
			bytes_received BIGINT NOT NULL,
			packets_sent BIGINT NOT NULL,
			packets_received BIGINT NOT NULL,
			duration DOUBLE NOT NULL,
			PRIMARY KEY (src, dst, port, protocol, timestamp)
		)`, q.StagingLinks, autoInc, autoInc),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			src %s NOT NULL,
			dst %s NOT NULL,
			port INTEGER NOT NULL,
			protocol VARCHAR(32) NOT NULL,
			timestamp BIGINT NOT NULL,
			links BIGINT NOT NULL,
			bytes_sent BIGINT NOT NULL,
			bytes_received BIGINT NOT NULL,
			packets_sent BIGINT NOT NULL,
			packets_received BIGINT NOT NULL,
			duration DOUBLE NOT NULL,
			PRIMARY KEY (src, dst, port, protocol, timestamp)
		)`, q.Links, autoInc, autoInc),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			src_start %s NOT NULL,
			src_end %s NOT NULL,
			dst_start %s NOT NULL,
			dst_end %s NOT NULL,
			protocols TEXT NOT NULL,
			port INTEGER NOT NULL,
			timestamp BIGINT NOT NULL,
			links BIGINT NOT NULL,
			bytes BIGINT NOT NULL,
			packets BIGINT NOT NULL
		)`, q.LinksIn, autoInc, autoInc, autoInc, autoInc),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			src_start %s NOT NULL,
			src_end %s NOT NULL,
			dst_start %s NOT NULL,
			dst_end %s NOT NULL,
			protocols TEXT NOT NULL,
			port INTEGER NOT NULL,
			timestamp BIGINT NOT NULL,
			links BIGINT NOT NULL,
			bytes BIGINT NOT NULL,
			packets BIGINT NOT NULL
		)`, q.LinksOut, autoInc, autoInc, autoInc, autoInc),
	}

	for _, stmt := range stmts {
		if _, err := s.Exec(stmt); err != nil {
			return fmt.Errorf("ensure tenant tables: %w", err)
		}
	}
	return nil
}

// quoted returns t with every table name wrapped in the dialect's
// identifier quoting, ready to splice into a query string built with
// fmt.Sprintf or squirrel's raw Expr.
func (t TenantTables) quoted(d dialect.Dialect) TenantTables {
	return TenantTables{
		Nodes:        d.QuoteIdent(t.Nodes),
		Syslog:       d.QuoteIdent(t.Syslog),
		StagingLinks: d.QuoteIdent(t.StagingLinks),
		Links:        d.QuoteIdent(t.Links),
		LinksIn:      d.QuoteIdent(t.LinksIn),
		LinksOut:     d.QuoteIdent(t.LinksOut),
	}
}
