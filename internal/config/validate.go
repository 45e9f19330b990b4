// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator instance.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that the configuration is complete and consistent.
// Struct tags cover field-level constraints; cross-field rules that
// tags cannot express are checked explicitly afterwards.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("config field %s failed %q validation", first.Namespace(), first.Tag())
		}
		return err
	}

	return c.validateRun()
}

// asValidationErrors unwraps a validator.ValidationErrors value.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns this type directly
	if ok {
		*target = verrs
	}
	return ok
}

// validateRun checks cross-field run parameters.
func (c *Config) validateRun() error {
	if c.Run.DefaultSongs > c.Run.MaxSongs {
		return fmt.Errorf("run.default_songs (%d) must not exceed run.max_songs (%d)",
			c.Run.DefaultSongs, c.Run.MaxSongs)
	}

	if c.Run.RelaxedOverlap > c.Run.StrictOverlap {
		return fmt.Errorf("run.relaxed_overlap (%d) must not exceed run.strict_overlap (%d)",
			c.Run.RelaxedOverlap, c.Run.StrictOverlap)
	}

	return nil
}
