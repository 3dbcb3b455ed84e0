// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/wafya/internal/platform/apperr"
	"github.com/taibuivan/wafya/internal/platform/ctxutil"
	"github.com/taibuivan/wafya/internal/platform/sec"
	"github.com/taibuivan/wafya/internal/platform/validate"
)

// maxBodyBytes caps JSON bodies on every endpoint.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body decodes to the zero value so optional payloads stay optional.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBodyBytes)

	if err := json.NewDecoder(request.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Param retrieves a named URL parameter from the request.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// Principal extracts the authenticated principal, or nil for anonymous requests.
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the principal.

Returns:
  - error: AUTH_REQUIRED (401) if no authentication middleware attached one
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {
	principal := ctxutil.GetAuthUser(request.Context())
	if principal == nil {
		return nil, ErrAuthRequired
	}
	return principal, nil
}

// ErrAuthRequired is returned by handlers reached without an authenticated principal.
var ErrAuthRequired = apperr.New(http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
