package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/auracorp/aurastudio/log"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error(context.Background(), "error encoding JSON response", err)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
