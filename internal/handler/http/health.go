package handler

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResp struct {
	Status string `json:"status"`
}

// Health reports service status, it answers 503 when database is unavailable
func Health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, healthResp{Status: "unavailable"})
			return
		}

		writeJSON(w, r, http.StatusOK, healthResp{Status: "ok"})
	}
}
