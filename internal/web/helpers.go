package web

import (
	"encoding/json"
	"net/http"
)

// problem is the JSON body of every error the console itself produces.
// Backend failures never surface here; they settle the dashboard instead.
type problem struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeProblem answers r with status and a message tagged with its request id.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, problem{
		Status:    status,
		Error:     message,
		RequestID: requestID(r.Context()),
	})
}
