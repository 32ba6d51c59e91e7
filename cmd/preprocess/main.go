// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/JoePelz/SAM/internal/repository"
	"github.com/JoePelz/SAM/internal/ruleeval"
	"github.com/JoePelz/SAM/internal/store"
	"github.com/JoePelz/SAM/pkg/log"
	"github.com/JoePelz/SAM/pkg/runtimeEnv"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "loglevel", "info", "one of: debug, info, warn, err, fatal")
	flag.Parse()

	log.SetLogLevel(logLevel)

	if err := runtimeEnv.LoadEnv("./.env"); err != nil {
		log.Fatalf("loading .env: %s", err.Error())
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: preprocess <datasource-name-or-id>")
		os.Exit(2)
	}

	cfg := runtimeEnv.FromEnv(runtimeEnv.Config{
		DBDriver:                 "sqlite3",
		DBDSN:                    "./sam.db",
		DefaultSubscriptionEmail: "default@localhost",
	})

	var evaluator ruleeval.Evaluator = ruleeval.NoopEvaluator{}
	if cfg.RulesPath != "" {
		loaded, err := ruleeval.LoadExprEvaluator(cfg.RulesPath)
		if err != nil {
			log.Fatalf("loading rules from %q: %s", cfg.RulesPath, err.Error())
		}
		evaluator = loaded
	}

	s, err := store.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("connect: %s", err.Error())
	}
	defer s.Close()

	if err := repository.MigrateSharedSchema(s); err != nil {
		log.Fatalf("migrate: %s", err.Error())
	}

	sub, err := repository.SubscriptionByEmail(s, cfg.DefaultSubscriptionEmail)
	if err != nil {
		log.Fatalf("subscription %q not found: %s", cfg.DefaultSubscriptionEmail, err.Error())
	}

	ds, err := repository.DatasourceByNameOrID(s, *sub, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "data source %q missing or invalid for subscription %q.\n", args[0], cfg.DefaultSubscriptionEmail)
		fmt.Fprintln(os.Stderr, "usage: preprocess <datasource-name-or-id>")
		os.Exit(1)
	}

	driver := repository.NewDriver(s, evaluator)
	if err := driver.Run(*sub, *ds); err != nil {
		log.Errorf("preprocessing rolled back: %s", err.Error())
		os.Exit(1)
	}

	log.Info("preprocessing completed successfully")
}
