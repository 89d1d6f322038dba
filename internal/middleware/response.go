package middleware

import (
	"net/http"

	"github.com/shaneHighPeek/beesold-mission-control/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
