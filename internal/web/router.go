package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(h.logRequests, h.withTimeout, h.authenticate)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/classes", h.ListClasses).Methods(http.MethodGet)
	r.HandleFunc("/classes/{id:[0-9]+}", h.GetClass).Methods(http.MethodGet)
	r.HandleFunc("/classes/{id:[0-9]+}/toggle", h.ToggleBooking).Methods(http.MethodPost)
	r.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet)

	// Admin
	r.HandleFunc("/classes", h.CreateClass).Methods(http.MethodPost)
	r.HandleFunc("/classes/{id:[0-9]+}", h.UpdateClass).Methods(http.MethodPut)
	r.HandleFunc("/classes/{id:[0-9]+}", h.DeleteClass).Methods(http.MethodDelete)

	return r
}
