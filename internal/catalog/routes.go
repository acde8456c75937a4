package catalog

import (
	"net/http"

	"github.com/gorilla/mux"

	"lavka/internal/middleware"
	"lavka/internal/token"
)

// RegisterRoutes: чтение каталога публичное, всё остальное — Admin.
func RegisterRoutes(r *mux.Router, h *Handler, iss *token.Issuer) {
	pub := r.PathPrefix("/api/v1").Subrouter()
	pub.HandleFunc("/categories", h.GetCategories).Methods(http.MethodGet)
	pub.HandleFunc("/categories/{id:[0-9]+}",
		middleware.CacheControl(middleware.CacheDefault10)(h.GetCategory)).Methods(http.MethodGet)
	pub.HandleFunc("/products", h.GetProducts).Methods(http.MethodGet)
	pub.HandleFunc("/products/paged", h.GetProductsPaged).Methods(http.MethodGet)
	pub.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)

	adm := r.PathPrefix("/api/v1").Subrouter()
	adm.Use(iss.RequireRole("Admin"))
	adm.HandleFunc("/products/search/{name}", h.SearchProducts).Methods(http.MethodGet)
	adm.HandleFunc("/products/by-category/{id:[0-9]+}", h.GetProductsByCategory).Methods(http.MethodGet)

	adm.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	adm.HandleFunc("/categories/{id:[0-9]+}", h.UpdateCategory).Methods(http.MethodPatch)
	adm.HandleFunc("/categories/{id:[0-9]+}", h.DeleteCategory).Methods(http.MethodDelete)

	adm.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	adm.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods(http.MethodPut)
	adm.HandleFunc("/products/buy/{name}/{quantity:[0-9]+}", h.BuyProduct).Methods(http.MethodPatch)
	adm.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods(http.MethodDelete)
}
