// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"context"
	"time"

	"github.com/JoePelz/SAM/pkg/log"
)

// queryHooks satisfies sqlhooks.Hooks, logging every query the pipeline
// issues at Debug level along with how long it took. Registered once per
// driver in Connect.
type queryHooks struct{}

type beginKey struct{}

func (h *queryHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, beginKey{}, time.Now()), nil
}

func (h *queryHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(beginKey{}).(time.Time); ok {
		log.Debugf("took %s", time.Since(begin))
	}
	return ctx, nil
}
