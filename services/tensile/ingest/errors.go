// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import "errors"

// Sentinel errors for the ingest package.
var (
	// ErrEmptyDataset indicates the source contained no data rows.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrMissingColumn indicates a required header column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrMalformedRow indicates a data row could not be parsed.
	ErrMalformedRow = errors.New("malformed row")

	// ErrBadDataURI indicates the upload payload is not a decodable
	// base64 data URI.
	ErrBadDataURI = errors.New("bad data uri")

	// ErrTooManyRows indicates the source exceeds the row cap.
	ErrTooManyRows = errors.New("too many rows")
)
