package admin

import (
	"net/http"
	"strings"

	"lavka/internal/models"
)

type Handler struct {
	d Dependencies
	t pageTemplates
}

func (h *Handler) redirect(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

func (h *Handler) render(w http.ResponseWriter, page string, data any) {
	t, ok := h.t[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

/* ---------- Pages ---------- */

func (h *Handler) ProductsList(w http.ResponseWriter, r *http.Request) {
	var rows []models.Product
	q := h.d.DB.Preload("Category").Order("updated_at desc").Limit(200)
	if s := strings.TrimSpace(r.URL.Query().Get("q")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	_ = q.Find(&rows).Error
	h.render(w, "products_list.tmpl", map[string]any{
		"Title": "Products",
		"Rows":  rows,
		"Query": r.URL.Query().Get("q"),
	})
}

func (h *Handler) CategoriesList(w http.ResponseWriter, _ *http.Request) {
	var rows []models.Category
	_ = h.d.DB.Order("name").Find(&rows).Error
	h.render(w, "categories_list.tmpl", map[string]any{
		"Title": "Categories",
		"Rows":  rows,
	})
}

func (h *Handler) UsersList(w http.ResponseWriter, _ *http.Request) {
	var rows []models.User
	_ = h.d.DB.Preload("Roles").Order("username").Find(&rows).Error
	h.render(w, "users_list.tmpl", map[string]any{
		"Title": "Users",
		"Rows":  rows,
	})
}
