package web

import "net/http"

// registerRoutes attaches all application handlers to the mux.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/members", handleMembers)
	mux.HandleFunc("/members/{id}", handleMemberByID)
	mux.HandleFunc("/members/{id}/delete", handleMemberDeleteForm)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/api/perf/stats", handlePerfStats)
}
