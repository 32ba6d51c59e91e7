// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"fmt"
	"strconv"

	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/schema"
	sq "github.com/Masterminds/squirrel"
)

// SubscriptionByEmail resolves the tenancy root for email, the way
// preprocess.py's entry point resolves its default subscription before any
// datasource lookup happens.
func SubscriptionByEmail(s *store.Store, email string) (*schema.Subscription, error) {
	var sub schema.Subscription
	query, args, err := sq.Select("id", "email").From("subscriptions").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("subscription %q: build query: %w", email, err)
	}
	if err := s.DB.QueryRowx(query, args...).StructScan(&sub); err != nil {
		return nil, fmt.Errorf("subscription %q: %w", email, schema.ErrInvalidDatasource)
	}
	return &sub, nil
}

// DatasourceByNameOrID resolves nameOrID to a Datasource within sub,
// trying an exact name match first and falling back to a numeric id
// match, mirroring determine_datasource's two-pass lookup. It returns
// ErrInvalidDatasource before any transaction is opened if nothing
// matches, so a bad CLI argument never touches the flow tables.
func DatasourceByNameOrID(s *store.Store, sub schema.Subscription, nameOrID string) (*schema.Datasource, error) {
	var ds schema.Datasource

	byName, args, err := sq.Select("id", "subscription_id", "name").From("datasources").
		Where(sq.Eq{"subscription_id": sub.ID, "name": nameOrID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("datasource %q: build query: %w", nameOrID, err)
	}
	if err := s.DB.QueryRowx(byName, args...).StructScan(&ds); err == nil {
		return &ds, nil
	}

	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		byID, args, err := sq.Select("id", "subscription_id", "name").From("datasources").
			Where(sq.Eq{"subscription_id": sub.ID, "id": id}).ToSql()
		if err != nil {
			return nil, fmt.Errorf("datasource %q: build query: %w", nameOrID, err)
		}
		if err := s.DB.QueryRowx(byID, args...).StructScan(&ds); err == nil {
			return &ds, nil
		}
	}

	return nil, fmt.Errorf("datasource %q for subscription %d: %w", nameOrID, sub.ID, schema.ErrInvalidDatasource)
}
