// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package store

import (
	"fmt"

	"github.com/JoePelz/SAM/pkg/schema"
)

// wrapf wraps err as a schema.ErrStoreError, the kind the pipeline driver
// converts into a rollback.
func wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %s", fmt.Sprintf(format, args...), schema.ErrStoreError, err.Error())
}
