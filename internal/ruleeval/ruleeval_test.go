// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ruleeval

import (
	"testing"

	"github.com/JoePelz/SAM/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestNoopEvaluatorNeverFails(t *testing.T) {
	var e Evaluator = NoopEvaluator{}
	require.NoError(t, e.Submit(Job{SubscriptionID: 1, DatasourceID: 2, Window: schema.TimeRange{Start: 1, End: 2}}))
}
