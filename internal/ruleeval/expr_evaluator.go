// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ruleeval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/JoePelz/SAM/pkg/log"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Variable is a named expression computed before a rule's main
// expression runs, so the rule body can reference it like any other
// environment field.
type Variable struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

// RuleFormat is the on-disk JSON shape for one security rule: a
// boolean expression over a submitted batch's window, gated by
// requirements and fed by computed variables.
type RuleFormat struct {
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	Requirements []string   `json:"requirements"`
	Variables    []Variable `json:"variables"`
	Rule         string     `json:"rule"`
	Hint         string     `json:"hint"`
}

type compiledVariable struct {
	name string
	expr *vm.Program
}

type compiledRule struct {
	tag          string
	requirements []*vm.Program
	variables    []compiledVariable
	rule         *vm.Program
	hint         *template.Template
}

// ExprEvaluator evaluates every loaded rule against each submitted Job's
// environment using expr-lang/expr, the same compile-once/run-per-job
// shape the node classifier uses for its own rule expressions. A
// matching rule is logged at Warn level with its rendered hint; nothing
// in this pipeline tags or stores the match, since what a match causes
// downstream is opaque to the CORE.
type ExprEvaluator struct {
	rules []compiledRule
}

// NewExprEvaluator compiles every rule in rules, skipping (and logging)
// any that fail to compile rather than rejecting the whole batch — one
// malformed rule file must not take every other rule down with it.
func NewExprEvaluator(rules []RuleFormat) *ExprEvaluator {
	e := &ExprEvaluator{}
	for _, r := range rules {
		if cr, err := compileRule(r); err != nil {
			log.Warnf("rule evaluator: skipping rule %q: %s", r.Name, err.Error())
		} else {
			e.rules = append(e.rules, cr)
		}
	}
	return e
}

// LoadExprEvaluator reads every *.json file in dir as a RuleFormat and
// returns a ready-to-use ExprEvaluator, mirroring how the node
// classifier's Register walks its own rule directory.
func LoadExprEvaluator(dir string) (*ExprEvaluator, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	var rules []RuleFormat
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warnf("rule evaluator: open %s: %s", entry.Name(), err.Error())
			continue
		}
		var r RuleFormat
		if err := json.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
			log.Warnf("rule evaluator: decode %s: %s", entry.Name(), err.Error())
			continue
		}
		rules = append(rules, r)
	}
	return NewExprEvaluator(rules), nil
}

func compileRule(r RuleFormat) (compiledRule, error) {
	cr := compiledRule{tag: r.Tag}

	for _, req := range r.Requirements {
		prog, err := expr.Compile(req, expr.AsBool())
		if err != nil {
			return cr, fmt.Errorf("requirement %q: %w", req, err)
		}
		cr.requirements = append(cr.requirements, prog)
	}

	for _, v := range r.Variables {
		prog, err := expr.Compile(v.Expr, expr.AsFloat64())
		if err != nil {
			return cr, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		cr.variables = append(cr.variables, compiledVariable{name: v.Name, expr: prog})
	}

	prog, err := expr.Compile(r.Rule, expr.AsBool())
	if err != nil {
		return cr, fmt.Errorf("rule: %w", err)
	}
	cr.rule = prog

	tmpl, err := template.New(r.Name).Parse(r.Hint)
	if err != nil {
		return cr, fmt.Errorf("hint template: %w", err)
	}
	cr.hint = tmpl

	return cr, nil
}

// jobEnv builds the expr evaluation environment for job: the fields a
// rule expression can reference.
func jobEnv(job Job) map[string]any {
	return map[string]any{
		"subscription_id": job.SubscriptionID,
		"datasource_id":   job.DatasourceID,
		"window": map[string]any{
			"start":    job.Window.Start,
			"end":      job.Window.End,
			"duration": job.Window.End - job.Window.Start,
		},
	}
}

// Submit evaluates every compiled rule against job in turn. A rule whose
// requirements are not all met is skipped silently; a rule that errors
// while running aborts the whole submission, since a rule that cannot
// be evaluated is indistinguishable from a ruleset that is broken.
func (e *ExprEvaluator) Submit(job Job) error {
	base := jobEnv(job)

	for _, cr := range e.rules {
		env := make(map[string]any, len(base))
		for k, v := range base {
			env[k] = v
		}

		met, err := allRequirementsMet(cr.requirements, env)
		if err != nil {
			return fmt.Errorf("rule %q: requirement: %w", cr.tag, err)
		}
		if !met {
			continue
		}

		for _, v := range cr.variables {
			val, err := expr.Run(v.expr, env)
			if err != nil {
				return fmt.Errorf("rule %q: variable %q: %w", cr.tag, v.name, err)
			}
			env[v.name] = val
		}

		matched, err := expr.Run(cr.rule, env)
		if err != nil {
			return fmt.Errorf("rule %q: %w", cr.tag, err)
		}
		if matched.(bool) {
			var hint bytes.Buffer
			if err := cr.hint.Execute(&hint, env); err != nil {
				return fmt.Errorf("rule %q: hint template: %w", cr.tag, err)
			}
			log.Warnf("rule %q matched for subscription %d datasource %d: %s",
				cr.tag, job.SubscriptionID, job.DatasourceID, hint.String())
		}
	}
	return nil
}

func allRequirementsMet(requirements []*vm.Program, env map[string]any) (bool, error) {
	for _, req := range requirements {
		ok, err := expr.Run(req, env)
		if err != nil {
			return false, err
		}
		if !ok.(bool) {
			return false, nil
		}
	}
	return true, nil
}
