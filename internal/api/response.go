// Oscillate - Music Discovery and Feature-Cache Engine
// Copyright 2026 Oscillate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oscillatefm/oscillate

package api

import (
	"net/http"

	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
