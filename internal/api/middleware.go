// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package api

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/oscillatefm/oscillate/internal/logging"
	"github.com/oscillatefm/oscillate/internal/metrics"
)

// requestID attaches a request id to the context and echoes it in the
// X-Request-ID response header. An incoming header is honored so ids
// stay stable across a proxy.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logging.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// requestLogging logs one line per request and records API metrics.
func requestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(status), elapsed)

			logging.Ctx(r.Context()).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}
