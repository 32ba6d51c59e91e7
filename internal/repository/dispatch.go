// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JoePelz/SAM/internal/ruleeval"
	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/schema"
)

// Dispatch runs the Post-Merge Dispatcher: it submits a rule-evaluation
// job for window, then invokes every registered hook. A rule-submission
// failure is returned (it aborts the batch); a hook failure is only
// logged by the registry and never reaches the caller. Both the
// submission and each hook are bounded by cfg's DispatchTimeout and
// HookTimeout. An empty window (nothing was staged) submits no job and
// invokes no hook.
func Dispatch(s *store.Store, evaluator ruleeval.Evaluator, hooks *HookRegistry, sub schema.Subscription, ds schema.Datasource, window schema.TimeRange, cfg *PipelineConfig) error {
	if window.Empty() {
		return nil
	}

	if evaluator != nil {
		job := ruleeval.Job{SubscriptionID: sub.ID, DatasourceID: ds.ID, Window: window}
		if err := submitWithTimeout(evaluator, job, cfg.DispatchTimeout); err != nil {
			return fmt.Errorf("submit rule evaluation: %w", err)
		}
	}

	if hooks != nil {
		hooks.Dispatch(s, sub, ds, window, cfg.HookTimeout)
	}
	return nil
}

// submitWithTimeout runs evaluator.Submit on its own goroutine, bounded
// by a context.WithTimeout deadline, since Evaluator.Submit takes no
// context argument to cancel by. A submission that overruns the deadline
// fails the batch just as a returned error would.
func submitWithTimeout(evaluator ruleeval.Evaluator, job ruleeval.Job, timeout time.Duration) error {
	if timeout <= 0 {
		return evaluator.Submit(job)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- evaluator.Submit(job)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("rule evaluation submission timed out after %s: %w", timeout, ctx.Err())
	}
}
