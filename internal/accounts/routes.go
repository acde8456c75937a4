package accounts

import (
	"net/http"

	"github.com/gorilla/mux"

	"lavka/internal/token"
)

// RegisterRoutes вешает публичные register/login и админский просмотр
// пользователей на /api/v1/users.
func RegisterRoutes(r *mux.Router, h *Handler, iss *token.Issuer) {
	pub := r.PathPrefix("/api/v1/users").Subrouter()
	pub.HandleFunc("", h.Register).Methods(http.MethodPost)
	pub.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	adm := r.PathPrefix("/api/v1/users").Subrouter()
	adm.Use(iss.RequireRole("Admin"))
	adm.HandleFunc("", h.ListUsers).Methods(http.MethodGet)
	adm.HandleFunc("/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
}
