// Copyright (C) 2025 tensile-test-analyser contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ingest

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ParseDataURI decodes a browser-upload data URI into raw bytes.
//
// # Description
//
// Upload widgets deliver file contents as
// "data:<mime>;base64,<payload>". The payload is everything after the
// first comma; the prefix is not inspected beyond locating that comma,
// matching how such uploads are conventionally decoded.
//
// # Inputs
//
//   - contents: Full data URI string.
//
// # Outputs
//
//   - []byte: Decoded payload.
//   - error: ErrBadDataURI when no comma separator exists or the
//     payload is not valid base64.
func ParseDataURI(contents string) ([]byte, error) {
	_, payload, found := strings.Cut(contents, ",")
	if !found {
		return nil, fmt.Errorf("%w: no comma separator", ErrBadDataURI)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return decoded, nil
}
