// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dialect isolates the SQL-surface differences between the
// backends the store adapter supports: integer division and identifier
// quoting. It also hosts the 5-minute timestamp floor used to bucket
// staging rows, which happens to be the same expression on both.
// Everything else the pipeline needs is expressed through
// github.com/Masterminds/squirrel, which is already portable — including
// the other place the two backends diverge, the insert-or-skip/
// insert-or-overwrite statement verb, which is exposed here as squirrel
// builder factories rather than raw string prefixes so every call site
// builds its query the same way.
package dialect

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect names the two supported relational backends.
type Dialect struct {
	name string
}

var (
	SQLite = Dialect{"sqlite3"}
	MySQL  = Dialect{"mysql"}
)

// For resolves the dialect for a driver string, the same string
// repository.Connect branches on ("sqlite3" or "mysql").
func For(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func (d Dialect) String() string { return d.name }

// DivOp returns the integer-division token: "DIV" for MySQL (where "/" is
// float division), "/" for SQLite (where "/" on integer operands already
// truncates).
func (d Dialect) DivOp() string {
	if d == MySQL {
		return "DIV"
	}
	return "/"
}

// DivExpr wraps a and b in the dialect's integer-division token.
func (d Dialect) DivExpr(a, b string) string {
	return fmt.Sprintf("(%s %s %s)", a, d.DivOp(), b)
}

// TimeBucketExpr returns the SQL expression that floors column (stored as
// a Unix epoch integer) to the nearest multiple of bucketSeconds. The
// pipeline always calls this with bucketSeconds=300 (5 minutes). Modulo
// arithmetic on integers is identical in both backends, so there is
// nothing dialect-specific to branch on here, unlike DivExpr.
func (d Dialect) TimeBucketExpr(column string, bucketSeconds int64) string {
	return fmt.Sprintf("(%s - (%s %% %d))", column, column, bucketSeconds)
}

// InsertIgnoreBuilder returns a squirrel insert builder for table that
// silently skips any row that violates a uniqueness constraint, the
// primitive the Node Materialiser uses for idempotent inserts.
func (d Dialect) InsertIgnoreBuilder(table string) sq.InsertBuilder {
	if d == MySQL {
		return sq.Insert(table).Options("IGNORE")
	}
	return sq.Insert(table).Options("OR IGNORE")
}

// ReplaceBuilder returns a squirrel insert builder for table that inserts
// a row or overwrites the existing row sharing its primary key, the
// primitive the Link Merger uses to write its additively-combined
// counters.
func (d Dialect) ReplaceBuilder(table string) sq.InsertBuilder {
	if d == MySQL {
		return sq.Replace(table)
	}
	return sq.Insert(table).Options("OR REPLACE")
}

// QuoteIdent quotes a SQL identifier for safe interpolation into a query
// string. SQLite accepts ANSI double quotes; MySQL's default sql_mode does
// not enable ANSI_QUOTES, so a double-quoted identifier there is parsed as
// a string literal instead — it needs backticks.
func (d Dialect) QuoteIdent(ident string) string {
	if d == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}
