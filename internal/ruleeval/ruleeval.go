// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ruleeval defines the rule-evaluation job the Post-Merge
// Dispatcher submits after every batch, and an expr-lang/expr-backed
// Evaluator that runs it. A ruleset's internal shape stays opaque to the
// CORE pipeline itself (ExprEvaluator is one concrete way to give it
// meaning, not the only one); Evaluator is the seam any implementation
// plugs into.
package ruleeval

import "github.com/JoePelz/SAM/pkg/schema"

// Job describes one batch's worth of freshly-merged traffic, ready for
// rule evaluation against it.
type Job struct {
	SubscriptionID int64
	DatasourceID   int64
	Window         schema.TimeRange
}

// Evaluator submits a Job for rule evaluation. Unlike the Python
// original's module-level submit_job (a single global queue every caller
// shares), Evaluator is a collaborator the Driver is handed explicitly,
// so a batch run in a test never touches a real ruleset engine unless the
// test wires one in.
//
// A Submit failure aborts the batch: unlike a Hook, rule evaluation is
// part of what "this batch succeeded" means.
type Evaluator interface {
	Submit(job Job) error
}

// NoopEvaluator submits nothing and never fails. It is the default used
// when a deployment has no ruleset engine configured.
type NoopEvaluator struct{}

func (NoopEvaluator) Submit(Job) error { return nil }
