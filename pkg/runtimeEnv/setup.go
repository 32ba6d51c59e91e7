// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package runtimeEnv loads the process environment the preprocessing CLI
// reads its configuration from.
package runtimeEnv

import (
	"os"

	"github.com/JoePelz/SAM/pkg/log"
	"github.com/joho/godotenv"
)

// LoadEnv loads key=value pairs from file into the process environment,
// the way a systemd EnvironmentFile or a developer's local .env would be
// picked up. A missing file is not an error; an invalid one is.
func LoadEnv(file string) error {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(file); err != nil {
		log.Warnf("could not load environment file %q: %s", file, err.Error())
		return err
	}

	return nil
}

// Config is the set of environment variables the CORE pipeline consults.
// Non-empty fields override their defaults.
type Config struct {
	DBDriver                 string
	DBDSN                    string
	DefaultSubscriptionEmail string
	StagingSQLBasePath       string
	RulesPath                string
}

// FromEnv reads the SAM_* environment variables, applying the given
// defaults for anything unset.
func FromEnv(defaults Config) Config {
	cfg := defaults
	if v := os.Getenv("SAM_DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("SAM_DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	if v := os.Getenv("SAM_DEFAULT_SUBSCRIPTION_EMAIL"); v != "" {
		cfg.DefaultSubscriptionEmail = v
	}
	if v := os.Getenv("SAM_STAGING_SQL_BASE_PATH"); v != "" {
		cfg.StagingSQLBasePath = v
	}
	if v := os.Getenv("SAM_RULES_PATH"); v != "" {
		cfg.RulesPath = v
	}
	return cfg
}
