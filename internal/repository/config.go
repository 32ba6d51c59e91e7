// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import "time"

// PipelineConfig tunes the batch pipeline. All fields have sensible
// defaults, so this configuration is optional.
type PipelineConfig struct {
	// StagingBucketSeconds is the width of the time bucket the Link
	// Staging Aggregator groups Syslog rows into. Default: 300 (5 minutes).
	StagingBucketSeconds int64

	// DispatchTimeout bounds how long a single rule-evaluation submission
	// may run before the batch treats it as failed. Default: 30s.
	DispatchTimeout time.Duration

	// HookTimeout bounds how long a single hook invocation may run before
	// it is abandoned; hook failures are logged and isolated, never
	// propagated, but a hung hook must not hang the batch. Default: 5s.
	HookTimeout time.Duration
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		StagingBucketSeconds: 300,
		DispatchTimeout:      30 * time.Second,
		HookTimeout:          5 * time.Second,
	}
}

var pipelineConfig = DefaultPipelineConfig()

// SetConfig overrides the package-level pipeline configuration. Must be
// called before Driver.Run, if at all; it is not safe to change mid-batch.
func SetConfig(cfg *PipelineConfig) {
	if cfg != nil {
		pipelineConfig = cfg
	}
}

// GetConfig returns the current pipeline configuration.
func GetConfig() *PipelineConfig {
	return pipelineConfig
}
