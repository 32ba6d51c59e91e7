// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"

	"github.com/JoePelz/SAM/internal/ruleeval"
	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/log"
	"github.com/JoePelz/SAM/pkg/schema"
)

// State is one step of the batch state machine. The Driver only ever
// moves forward through these in order, except that any error in
// NODES..SWEEP sends it straight to ROLLED_BACK.
type State int

const (
	StateIdle State = iota
	StateNodes
	StateStagingLinks
	StateMasterLinks
	StateRollup
	StateDispatch
	StateSweep
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateNodes:
		return "NODES"
	case StateStagingLinks:
		return "STAGING_LINKS"
	case StateMasterLinks:
		return "MASTER_LINKS"
	case StateRollup:
		return "ROLLUP"
	case StateDispatch:
		return "DISPATCH"
	case StateSweep:
		return "SWEEP"
	case StateCommitted:
		return "COMMITTED"
	case StateRolledBack:
		return "ROLLED_BACK"
	default:
		return "UNKNOWN"
	}
}

// Driver orchestrates one batch for a (subscription, datasource) pair
// inside a single transaction: node materialisation, staging aggregation,
// link merge, directional roll-up, dispatch, and sweep. It is the
// generalisation of preprocess.py's Preprocessor.run_all, with hooks and
// the rule evaluator injected rather than reached through module globals.
type Driver struct {
	Store     *store.Store
	Cache     *NodeCache
	Hooks     *HookRegistry
	Evaluator ruleeval.Evaluator

	state State
}

// NewDriver returns a Driver ready to run batches against s. evaluator
// may be nil, which behaves like ruleeval.NoopEvaluator.
func NewDriver(s *store.Store, evaluator ruleeval.Evaluator) *Driver {
	return &Driver{
		Store:     s,
		Cache:     NewNodeCache(),
		Hooks:     NewHookRegistry(),
		Evaluator: evaluator,
		state:     StateIdle,
	}
}

// State reports the driver's last-reached state. After Run returns nil
// this is always StateCommitted; after it returns an error it is always
// StateRolledBack.
func (d *Driver) State() State { return d.state }

// Run processes every row currently in the Syslog table for (sub, ds):
// materialises nodes, aggregates and merges links, rolls up directional
// aggregates, dispatches rule evaluation and hooks, and sweeps staging —
// all inside one transaction. Any failure before SWEEP completes rolls
// the whole batch back; a hook failure inside Dispatch does not (hooks
// isolate their own errors).
func (d *Driver) Run(sub schema.Subscription, ds schema.Datasource) error {
	t := Tables(sub.ID, ds.ID)
	if err := EnsureTenantTables(d.Store, t); err != nil {
		d.state = StateRolledBack
		return fmt.Errorf("pipeline: %w", err)
	}

	tx, err := d.Store.Begin()
	if err != nil {
		d.state = StateRolledBack
		return fmt.Errorf("pipeline: %w", err)
	}

	if err := d.run(tx, t, sub, ds); err != nil {
		d.state = StateRolledBack
		log.Warnf("pipeline rolled back for subscription %d datasource %d: %s", sub.ID, ds.ID, err.Error())
		if rerr := tx.Rollback(); rerr != nil {
			log.Errorf("rollback failed: %s", rerr.Error())
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		d.state = StateRolledBack
		return fmt.Errorf("pipeline: commit: %w", err)
	}

	d.state = StateCommitted
	log.Infof("pipeline committed for subscription %d datasource %d", sub.ID, ds.ID)
	return nil
}

func (d *Driver) run(tx *store.Tx, t TenantTables, sub schema.Subscription, ds schema.Datasource) error {
	dialect := d.Store.Dialect

	d.state = StateNodes
	log.Debugf("pipeline: %s", d.state)
	if err := MaterialiseNodes(tx, dialect, d.Cache, t); err != nil {
		return err
	}

	d.state = StateStagingLinks
	log.Debugf("pipeline: %s", d.state)
	if err := AggregateStaging(tx, dialect, t, GetConfig().StagingBucketSeconds); err != nil {
		return err
	}

	d.state = StateMasterLinks
	log.Debugf("pipeline: %s", d.state)
	if err := MergeLinks(tx, dialect, t); err != nil {
		return err
	}

	window, err := RollupWindow(tx, dialect, t)
	if err != nil {
		return err
	}

	d.state = StateRollup
	log.Debugf("pipeline: %s", d.state)
	if err := Rollup(tx, dialect, t, window); err != nil {
		return err
	}

	d.state = StateDispatch
	log.Debugf("pipeline: %s", d.state)
	if err := Dispatch(d.Store, d.Evaluator, d.Hooks, sub, ds, window, GetConfig()); err != nil {
		return err
	}

	d.state = StateSweep
	log.Debugf("pipeline: %s", d.state)
	if err := Sweep(tx, dialect, t); err != nil {
		return err
	}

	return nil
}
