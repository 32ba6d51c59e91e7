// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import "errors"

// Sentinel error kinds. Wrap them with fmt.Errorf("...: %w", ErrX) so
// errors.Is still matches while the message carries the offending value.
var (
	// ErrMalformedAddress is returned by the address parser when its input
	// is not a dotted host, a truncated dotted prefix, or a CIDR literal.
	ErrMalformedAddress = errors.New("malformed address")

	// ErrInvalidDatasource is returned when a CLI argument does not match
	// any datasource registered for the subscription. It is always raised
	// before any transaction is opened.
	ErrInvalidDatasource = errors.New("invalid datasource")

	// ErrStoreError wraps any failure surfaced by the relational store:
	// constraint violations, connection loss, timeouts. Any ErrStoreError
	// raised during a batch aborts it via rollback.
	ErrStoreError = errors.New("store error")

	// ErrHookError wraps a failure raised by an import hook. It is logged
	// and suppressed; it never aborts a batch.
	ErrHookError = errors.New("hook error")
)
