// Package api serves the device status over HTTP
package api

import (
	"github.com/gorilla/mux"
)

// NewRouter wires the status routes
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods("GET")
	r.HandleFunc("/readings/latest", s.latestReading).Methods("GET")
	r.HandleFunc("/readings/latest/{field}", s.latestField).Methods("GET")
	r.HandleFunc("/readings/stats", s.readingStats).Methods("GET")
	r.HandleFunc("/input", s.input).Methods("POST")

	return r
}
