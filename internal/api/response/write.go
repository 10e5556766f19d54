package response

import (
	"encoding/json"
	"net/http"
)

// Every body carries live balances, table state or a session token, so
// nothing is cacheable.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

// JSON writes data as a JSON body with the given status
func JSON(w http.ResponseWriter, status int, data any) {
	noStore(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// NoContent writes a 204 for a state change with nothing to report
func NoContent(w http.ResponseWriter) {
	noStore(w)
	w.WriteHeader(http.StatusNoContent)
}
