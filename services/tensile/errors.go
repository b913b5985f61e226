// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tensile

import "errors"

// Sentinel errors for the tensile service.
var (
	// ErrInvalidSetup indicates the specimen setup failed validation.
	ErrInvalidSetup = errors.New("invalid test setup")

	// ErrNoSamples indicates a request carried neither inline series
	// nor CSV contents.
	ErrNoSamples = errors.New("no sample data provided")

	// ErrConflictingInput indicates a request carried both inline series
	// and CSV contents.
	ErrConflictingInput = errors.New("conflicting sample sources")

	// ErrTooManySamples indicates the dataset exceeds the configured
	// sample cap.
	ErrTooManySamples = errors.New("too many samples")

	// ErrPayloadTooLarge indicates an uploaded file exceeds the byte cap.
	ErrPayloadTooLarge = errors.New("payload too large")
)
