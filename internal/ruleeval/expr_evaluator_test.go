// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ruleeval

import (
	"testing"

	"github.com/JoePelz/SAM/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprEvaluatorMatchesRule(t *testing.T) {
	e := NewExprEvaluator([]RuleFormat{
		{
			Name: "long window",
			Tag:  "long-window",
			Rule: "window.duration > 60",
			Hint: "window spans {{.window.duration}}s",
		},
	})
	require.Len(t, e.rules, 1)

	err := e.Submit(Job{SubscriptionID: 1, DatasourceID: 2, Window: schema.TimeRange{Start: 0, End: 120}})
	assert.NoError(t, err)
}

func TestExprEvaluatorSkipsRuleWhenRequirementFails(t *testing.T) {
	e := NewExprEvaluator([]RuleFormat{
		{
			Name:         "short window only",
			Tag:          "short-window",
			Requirements: []string{"window.duration < 10"},
			Rule:         "true",
			Hint:         "should never run",
		},
	})

	err := e.Submit(Job{Window: schema.TimeRange{Start: 0, End: 120}})
	assert.NoError(t, err)
}

func TestExprEvaluatorUsesComputedVariables(t *testing.T) {
	e := NewExprEvaluator([]RuleFormat{
		{
			Name:      "ratio",
			Tag:       "ratio-rule",
			Variables: []Variable{{Name: "half", Expr: "window.duration / 2"}},
			Rule:      "half == 30",
			Hint:      "half is {{.half}}",
		},
	})

	err := e.Submit(Job{Window: schema.TimeRange{Start: 0, End: 60}})
	assert.NoError(t, err)
}

func TestExprEvaluatorSkipsRuleThatFailsToCompile(t *testing.T) {
	e := NewExprEvaluator([]RuleFormat{
		{Name: "broken", Tag: "broken", Rule: "this is not valid expr ((("},
	})
	assert.Len(t, e.rules, 0)
}

func TestExprEvaluatorPropagatesRuleRunError(t *testing.T) {
	e := NewExprEvaluator([]RuleFormat{
		{
			Name:      "divide",
			Tag:       "divide",
			Variables: []Variable{{Name: "ratio", Expr: "100 % window.start"}},
			Rule:      "ratio > 0",
		},
	})
	require.Len(t, e.rules, 1)

	err := e.Submit(Job{Window: schema.TimeRange{Start: 0, End: 0}})
	assert.Error(t, err)
}
