// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

// Package validation validates request payloads with go-playground/validator.
//
// A single validator instance is shared by all handlers. Failures are
// reported per field using the JSON field name and convert to the API's
// VALIDATION_FAILED error:
//
//	in.Normalize()
//	if verr := validation.ValidateStruct(&in); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Code and apiErr.Message
//	}
package validation
