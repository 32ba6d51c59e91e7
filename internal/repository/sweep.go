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

// Sweep deletes every row from the Syslog and StagingLinks tables,
// the final step of a committed batch. It must run after the roll-up
// has already captured the staging time range: once this runs, that
// range is unrecoverable from staging.
func Sweep(tx *store.Tx, d dialect.Dialect, t TenantTables) error {
	if _, err := sq.Delete(d.QuoteIdent(t.Syslog)).RunWith(tx.RunWith()).Exec(); err != nil {
		return fmt.Errorf("sweep: clear syslog: %w", err)
	}
	if _, err := sq.Delete(d.QuoteIdent(t.StagingLinks)).RunWith(tx.RunWith()).Exec(); err != nil {
		return fmt.Errorf("sweep: clear staging links: %w", err)
	}
	return nil
}
