// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"sync"

	"github.com/JoePelz/SAM/internal/addrutil"
	"github.com/JoePelz/SAM/pkg/schema"
	"github.com/gaissmai/bart"
)

// NodeCache is a write-through cache in front of one subscription's Nodes
// table, keyed by IP prefix rather than by id: the Node Materialiser's
// hottest operation is "does a node already exist for this exact range",
// which a bart.Table answers without a round trip for anything this
// process has already seen or inserted this run.
//
// One NodeCache is scoped to a single subscription; node ranges from two
// different subscriptions are never comparable, so there is no value in
// sharing a table across them.
type NodeCache struct {
	mu    sync.RWMutex
	table *bart.Table[*schema.Node]
}

// NewNodeCache returns an empty cache.
func NewNodeCache() *NodeCache {
	return &NodeCache{table: new(bart.Table[*schema.Node])}
}

// Get reports whether a node exists for the exact range [start, end] at
// level, returning it if so.
func (c *NodeCache) Get(start uint32, level schema.Subnet) (*schema.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.table.Get(addrutil.Prefix(start, level))
	return n, ok
}

// Put records that a node for n now exists, so a later Get in the same
// batch (or a later batch in this process) doesn't re-query the store.
func (c *NodeCache) Put(n *schema.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table.Insert(addrutil.Prefix(n.IPStart, n.Subnet), n)
}

// Warm populates the cache from every row already in the Nodes table, so
// the first batch against a long-lived subscription doesn't treat
// previously materialised nodes as missing.
func (c *NodeCache) Warm(nodes []schema.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range nodes {
		n := nodes[i]
		c.table.Insert(addrutil.Prefix(n.IPStart, n.Subnet), &n)
	}
}
