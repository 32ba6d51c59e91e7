// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/log"
	"github.com/JoePelz/SAM/pkg/schema"
)

// Hook observes a completed batch. HookRegistry is a value every Driver
// is handed explicitly, so two drivers in the same process never see
// each other's hooks.
type Hook interface {
	// AfterRollup is called once per non-empty batch, after the
	// directional roll-up aggregates have been written and before the
	// staging sweep and the commit; the batch can still roll back after
	// it returns if the sweep or the commit fails. store is the pool the batch ran against, not the
	// in-flight transaction: a hook runs after the roll-up's writes are
	// staged but is not itself part of that transaction, so it can only
	// see what the transaction has written once the batch commits.
	AfterRollup(store *store.Store, subscription schema.Subscription, datasource schema.Datasource, window schema.TimeRange) error
}

// HookRegistry holds an ordered list of Hooks invoked after every batch.
// A failing hook is logged and skipped; it never aborts the batch, per
// the Post-Merge Dispatcher's isolation requirement.
type HookRegistry struct {
	hooks []Hook
}

// NewHookRegistry returns an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{}
}

// Register appends hook to the registry. Registration order is call
// order.
func (r *HookRegistry) Register(hook Hook) {
	if hook != nil {
		r.hooks = append(r.hooks, hook)
	}
}

// Dispatch runs every registered hook in registration order, each bounded
// by timeout. Each hook's error (including a timeout) is logged and
// swallowed so that one misbehaving hook cannot roll back a batch that
// otherwise merged cleanly.
func (r *HookRegistry) Dispatch(s *store.Store, sub schema.Subscription, datasource schema.Datasource, window schema.TimeRange, timeout time.Duration) {
	for _, hook := range r.hooks {
		if err := runHookWithTimeout(hook, s, sub, datasource, window, timeout); err != nil {
			log.Warnf("hook failed for datasource %d: %s", datasource.ID, err.Error())
		}
	}
}

// runHookWithTimeout invokes hook on its own goroutine, bounded by a
// context.WithTimeout deadline. A hook that runs past timeout is left to
// finish in the background; its result is discarded and the batch moves
// on, since Hook takes no context argument to cancel by.
func runHookWithTimeout(hook Hook, s *store.Store, sub schema.Subscription, datasource schema.Datasource, window schema.TimeRange, timeout time.Duration) error {
	if timeout <= 0 {
		return hook.AfterRollup(s, sub, datasource, window)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- hook.AfterRollup(s, sub, datasource, window)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("hook timed out after %s: %w", timeout, ctx.Err())
	}
}
