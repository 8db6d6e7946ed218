package handlers

import "net/http"

// Health is the liveness probe. It deliberately touches no dependencies: a
// process that can serve this is alive even when redis or postgres is down.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "service": "thumbforge"})
}
