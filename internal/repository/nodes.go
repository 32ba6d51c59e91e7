// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"

	"github.com/JoePelz/SAM/internal/addrutil"
	"github.com/JoePelz/SAM/internal/dialect"
	"github.com/JoePelz/SAM/internal/layout"
	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/log"
	"github.com/JoePelz/SAM/pkg/schema"
	sq "github.com/Masterminds/squirrel"
)

// levelOrder is the materialisation order: each level's parent must exist
// in the cache before it is processed.
var levelOrder = []schema.Subnet{schema.Subnet8, schema.Subnet16, schema.Subnet24, schema.Subnet32}

func parentLevel(l schema.Subnet) schema.Subnet {
	switch l {
	case schema.Subnet16:
		return schema.Subnet8
	case schema.Subnet24:
		return schema.Subnet16
	case schema.Subnet32:
		return schema.Subnet24
	default:
		return 0
	}
}

// MaterialiseNodes derives every distinct host-prefix present in the
// batch's Syslog rows (at /8, /16, /24, /32) and inserts a Node for any
// that is not already known, assigning each its deterministic layout
// geometry from its parent. Existing nodes are left untouched: Nodes rows
// are append-only across the life of a subscription.
func MaterialiseNodes(tx *store.Tx, d dialect.Dialect, cache *NodeCache, t TenantTables) error {
	query, args, err := sq.Select("src", "dst").From(d.QuoteIdent(t.Syslog)).ToSql()
	if err != nil {
		return fmt.Errorf("materialise nodes: build syslog query: %w", err)
	}
	rows, err := tx.Queryx(query, args...)
	if err != nil {
		return fmt.Errorf("materialise nodes: read syslog: %w", err)
	}
	defer rows.Close()

	seen := make(map[uint32]struct{})
	for rows.Next() {
		var src, dst uint32
		if err := rows.Scan(&src, &dst); err != nil {
			return fmt.Errorf("materialise nodes: scan syslog: %w", err)
		}
		seen[src] = struct{}{}
		seen[dst] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("materialise nodes: iterate syslog: %w", err)
	}

	for _, level := range levelOrder {
		wanted := make(map[uint32]addrutil.Range)
		for ip := range seen {
			r := addrutil.TruncateToLevel(ip, level)
			wanted[r.Start] = r
		}

		for start, r := range wanted {
			if _, ok := cache.Get(start, level); ok {
				continue
			}

			var geom layout.Geometry
			if level == schema.Subnet8 {
				geom = layout.Root(layout.Root8(start))
			} else {
				parentRange := addrutil.TruncateToLevel(start, parentLevel(level))
				parent, ok := cache.Get(parentRange.Start, parentLevel(level))
				if !ok {
					return fmt.Errorf("materialise nodes: missing parent /%d for %s", parentLevel(level), addrutil.Dotted(start))
				}
				index := layout.ChildIndex(start, level)
				geom = layout.Child(layout.Geometry{X: parent.X, Y: parent.Y, Radius: parent.Radius}, index)
			}

			node := &schema.Node{
				IPStart: r.Start,
				IPEnd:   r.End,
				Subnet:  level,
				X:       geom.X,
				Y:       geom.Y,
				Radius:  geom.Radius,
			}

			_, err := d.InsertIgnoreBuilder(d.QuoteIdent(t.Nodes)).
				Columns("ipstart", "ipend", "subnet", "x", "y", "radius").
				Values(node.IPStart, node.IPEnd, int(node.Subnet), node.X, node.Y, node.Radius).
				RunWith(tx.RunWith()).
				Exec()
			if err != nil {
				return fmt.Errorf("materialise nodes: insert /%d node: %w", level, err)
			}
			cache.Put(node)
			log.Debugf("materialised /%d node %s-%s", level, addrutil.Dotted(node.IPStart), addrutil.Dotted(node.IPEnd))
		}
	}

	return nil
}
