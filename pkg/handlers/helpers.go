package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Stable machine-readable error codes returned to clients. Internal error
// details never leave the process; they go to the logs.
const (
	CodeMissingWaID         = "MISSING_WAID"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidCustomerCode = "INVALID_CUSTOMER_CODE"
	CodeContactNotFound     = "CONTACT_NOT_FOUND"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeMissingConfig       = "CONFIGURATION_MISSING"
	CodeServerError         = "SERVER_ERROR"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{OK: false, Error: code})
}

// setCORS marks endpoints that are called cross-origin from external pages
// (purchase recording, bulk probes, delete tooling).
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// queryInt reads an integer query parameter with a default and clamps it to
// [min, max] when max > 0.
func queryInt(r *http.Request, name string, def, min, max int) int {
	v := def
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			v = n
		}
	}
	if v < min {
		v = min
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}
