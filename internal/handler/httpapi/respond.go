// Package httpapi carries the JSON surface: accounts, vehicles, log
// queries, the status probe and the landing assets.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeBody parses a POST payload. A malformed body is a client error
// with a fixed envelope, matching the rest of the API.
func decodeBody(r *http.Request, into any) bool {
	return json.NewDecoder(r.Body).Decode(into) == nil
}

func parseError(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotAcceptable, map[string]string{
		"error": "Failed to parse request. Make sure it is a valid JSON payload.",
	})
}

// storageError surfaces a persistence failure with its trace, the way
// operators expect to see it on this API.
func storageError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":      "The server had an error talking to the document store",
		"stacktrace": fmt.Sprintf("%+v", err),
	})
}
