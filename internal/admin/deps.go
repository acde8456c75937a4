package admin

import (
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"lavka/config"
)

type Dependencies struct {
	DB  *gorm.DB
	CFG *config.Config
}

// Attach вешает read-only админку: таблицы товаров, категорий и
// пользователей. Мутации — только через API с Admin-токеном.
func Attach(r *mux.Router, d Dependencies) {
	h := &Handler{d: d, t: parseTemplates()}
	sub := r.PathPrefix("/admin").Subrouter()

	// pages
	sub.HandleFunc("", h.redirect("/admin/products")).Methods("GET")
	sub.HandleFunc("/", h.redirect("/admin/products")).Methods("GET")
	sub.HandleFunc("/products", h.ProductsList).Methods("GET")
	sub.HandleFunc("/categories", h.CategoriesList).Methods("GET")
	sub.HandleFunc("/users", h.UsersList).Methods("GET")

	// static (very small)
	sub.HandleFunc("/static/style.css", serveCSS).Methods("GET")
}
