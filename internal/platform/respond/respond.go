// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every error leaves the service as {"error": ..., "code": ...} plus optional
// extra fields, and every success as {"data": ...}, so clients can branch on
// the machine-readable code alone.
package respond

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"

	"github.com/taibuivan/wafya/internal/platform/apperr"
	"github.com/taibuivan/wafya/internal/platform/constants"
	"github.com/taibuivan/wafya/internal/platform/ctxutil"
)

// SuccessEnvelope is the JSON envelope for successful single-resource responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the JSON envelope for error responses.
//
// Extra keys are flattened next to error and code. Detail is only set for
// server errors when the environment allows exposing causes.
type ErrorEnvelope struct {
	Error   string
	Code    string
	Details []apperr.FieldError
	Detail  string
	Extra   map[string]any
}

// MarshalJSON flattens Extra into the top-level object.
func (envelope ErrorEnvelope) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(envelope.Extra)+4)
	maps.Copy(body, envelope.Extra)

	body[constants.FieldError] = envelope.Error
	body[constants.FieldCode] = envelope.Code
	if len(envelope.Details) > 0 {
		body[constants.FieldDetails] = envelope.Details
	}
	if envelope.Detail != "" {
		body[constants.FieldDetail] = envelope.Detail
	}

	return json.Marshal(body)
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)

	appError := apperr.As(err)
	if appError == nil {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(ctx, "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(ctx)),
		)
		appError = apperr.Internal(err)
	}

	envelope := ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
		Extra:   appError.Extra,
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(ctx)),
			slog.Any("cause", appError.Cause),
		)

		if ctxutil.ExposeErrors(ctx) && appError.Cause != nil {
			envelope.Detail = appError.Cause.Error()
		}
	}

	JSON(writer, appError.HTTPStatus, envelope)
}
