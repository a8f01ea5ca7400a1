package middleware

import (
	"net/http"

	"github.com/Defi-Moses/tik-tok-metrics/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
