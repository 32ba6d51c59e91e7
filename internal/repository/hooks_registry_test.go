// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/schema"
	"github.com/stretchr/testify/assert"
)

type mockHook struct {
	called bool
	err    error
	seen   []schema.TimeRange
}

func (m *mockHook) AfterRollup(_ *store.Store, _ schema.Subscription, _ schema.Datasource, window schema.TimeRange) error {
	m.called = true
	m.seen = append(m.seen, window)
	return m.err
}

func TestHookRegistryDispatchesInOrder(t *testing.T) {
	var order []int
	first := &orderedHook{id: 1, order: &order}
	second := &orderedHook{id: 2, order: &order}

	r := NewHookRegistry()
	r.Register(first)
	r.Register(second)

	r.Dispatch(nil, schema.Subscription{ID: 1}, schema.Datasource{ID: 1}, schema.TimeRange{Start: 1, End: 2}, 0)

	assert.Equal(t, []int{1, 2}, order)
}

type orderedHook struct {
	id    int
	order *[]int
}

func (h *orderedHook) AfterRollup(*store.Store, schema.Subscription, schema.Datasource, schema.TimeRange) error {
	*h.order = append(*h.order, h.id)
	return nil
}

func TestHookRegistryIsolatesFailures(t *testing.T) {
	failing := &mockHook{err: errors.New("boom")}
	succeeding := &mockHook{}

	r := NewHookRegistry()
	r.Register(failing)
	r.Register(succeeding)

	r.Dispatch(nil, schema.Subscription{ID: 7}, schema.Datasource{ID: 7}, schema.TimeRange{Start: 10, End: 20}, 0)

	assert.True(t, failing.called)
	assert.True(t, succeeding.called, "a failing hook must not prevent later hooks from running")
}

type hungHook struct {
	called atomic.Bool
}

func (h *hungHook) AfterRollup(*store.Store, schema.Subscription, schema.Datasource, schema.TimeRange) error {
	time.Sleep(20 * time.Millisecond)
	h.called.Store(true)
	return nil
}

func TestHookRegistryTimesOutHungHook(t *testing.T) {
	hung := &hungHook{}

	r := NewHookRegistry()
	r.Register(hung)

	r.Dispatch(nil, schema.Subscription{ID: 9}, schema.Datasource{ID: 9}, schema.TimeRange{Start: 1, End: 2}, time.Millisecond)

	assert.False(t, hung.called.Load(), "dispatch must not block past HookTimeout even though the hook is still running")
}

func TestHookRegistryIgnoresNilHook(t *testing.T) {
	r := NewHookRegistry()
	r.Register(nil)
	assert.Len(t, r.hooks, 0)
}
