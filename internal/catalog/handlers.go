package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"lavka/internal/logs"
	"lavka/internal/models"
	"lavka/internal/repo"
)

// Контракты хранилищ каталога (реализуются repo.*Store, в тестах — фейками).
type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	Count(ctx context.Context) (int64, error)
	Page(ctx context.Context, page, size int) ([]models.Product, error)
	ByCategory(ctx context.Context, categoryID uint) ([]models.Product, error)
	Search(ctx context.Context, term string) ([]models.Product, error)
	Exists(ctx context.Context, id uint) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, p *models.Product) error
	Buy(ctx context.Context, name string, qty int) (*models.Product, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id uint) (*models.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, c *models.Category) error
}

type Handler struct {
	products   ProductStore
	categories CategoryStore
	uploadsDir string
}

func NewHandler(products ProductStore, categories CategoryStore, uploadsDir string) *Handler {
	return &Handler{products: products, categories: categories, uploadsDir: uploadsDir}
}

/* ---------- Categories ---------- */

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list categories", nil)
		return
	}
	views := make([]CategoryView, 0, len(cats))
	for i := range cats {
		views = append(views, NewCategoryView(&cats[i]))
	}
	models.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("category %d does not exist", id), nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to get category", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, NewCategoryView(c))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "category name required", nil)
		return
	}
	exists, err := h.categories.ExistsByName(r.Context(), req.Name)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create category", nil)
		return
	}
	if exists {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "category already exists", nil)
		return
	}
	c := &models.Category{Name: strings.TrimSpace(req.Name)}
	if err := h.categories.Create(r.Context(), c); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "category already exists", nil)
			return
		}
		logs.Logger.Errorf("create category: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create category", nil)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/categories/%d", c.ID))
	models.WriteJSON(w, http.StatusCreated, NewCategoryView(c))
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("category %d does not exist", id), nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to update category", nil)
		return
	}
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "category name required", nil)
		return
	}
	exists, err := h.categories.ExistsByName(r.Context(), req.Name)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to update category", nil)
		return
	}
	if exists {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "category already exists", nil)
		return
	}
	c.Name = strings.TrimSpace(req.Name)
	if err := h.categories.Update(r.Context(), c); err != nil {
		logs.Logger.Errorf("update category %d: %v", id, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to update category", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("category %d does not exist", id), nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to delete category", nil)
		return
	}
	if err := h.categories.Delete(r.Context(), c); err != nil {
		logs.Logger.Errorf("delete category %d: %v", id, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to delete category", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* ---------- Products ---------- */

func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.products.List(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list products", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, NewProductViews(ps))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("product %d does not exist", id), nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to get product", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, NewProductView(p))
}

// GET /api/v1/products/paged?page_number=&page_size=
func (h *Handler) GetProductsPaged(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page_number", 1)
	size := queryInt(r, "page_size", 5)
	if page < 1 || size < 1 {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid pagination parameters", nil)
		return
	}
	total, err := h.products.Count(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to page products", nil)
		return
	}
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	if page > totalPages {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", "no more pages", nil)
		return
	}
	ps, err := h.products.Page(r.Context(), page, size)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to page products", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, PageResponse{
		PageNumber: page,
		PageSize:   size,
		TotalPages: totalPages,
		Items:      NewProductViews(ps),
	})
}

func (h *Handler) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	ps, err := h.products.ByCategory(r.Context(), id)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list products", nil)
		return
	}
	if len(ps) == 0 {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("no products in category %d", id), nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, NewProductViews(ps))
}

func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ps, err := h.products.Search(r.Context(), name)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to search products", nil)
		return
	}
	if len(ps) == 0 {
		models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("no products matching %q", name), nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, NewProductViews(ps))
}

// POST /api/v1/products — multipart: поля товара + опциональная картинка.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := parseProductForm(r)
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), nil)
		return
	}
	exists, err := h.products.ExistsByName(r.Context(), p.Name)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create product", nil)
		return
	}
	if exists {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "product already exists", nil)
		return
	}
	catOK, err := h.categories.Exists(r.Context(), p.CategoryID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create product", nil)
		return
	}
	if !catOK {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("category %d does not exist", p.CategoryID), nil)
		return
	}

	p.ImgURL = placeholderImgURL
	if err := h.products.Create(r.Context(), p); err != nil {
		logs.Logger.Errorf("create product %q: %v", p.Name, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create product", nil)
		return
	}

	// Картинка кладётся после создания: в имени файла участвует id товара.
	if saved, err := h.saveProductImage(r, p); err != nil {
		logs.Logger.Errorf("save image for product %d: %v", p.ID, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to store product image", nil)
		return
	} else if saved {
		if err := h.products.Update(r.Context(), p); err != nil {
			logs.Logger.Errorf("update product %d after image: %v", p.ID, err)
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create product", nil)
			return
		}
	}

	created, err := h.products.Get(r.Context(), p.ID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to create product", nil)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/products/%d", created.ID))
	models.WriteJSON(w, http.StatusCreated, NewProductView(created))
}

// PUT /api/v1/products/{id} — полная замена полей.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	existing, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "product does not exist", nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to update product", nil)
		return
	}
	p, err := parseProductForm(r)
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), nil)
		return
	}
	catOK, err := h.categories.Exists(r.Context(), p.CategoryID)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to update product", nil)
		return
	}
	if !catOK {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("category %d does not exist", p.CategoryID), nil)
		return
	}

	existing.Name = p.Name
	existing.Description = p.Description
	existing.Price = p.Price
	existing.SKU = p.SKU
	existing.Stock = p.Stock
	existing.Attributes = p.Attributes
	existing.CategoryID = p.CategoryID
	existing.Category = models.Category{}

	if saved, err := h.saveProductImage(r, existing); err != nil {
		logs.Logger.Errorf("save image for product %d: %v", id, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to store product image", nil)
		return
	} else if !saved && existing.ImgURL == "" {
		existing.ImgURL = placeholderImgURL
	}

	if err := h.products.Update(r.Context(), existing); err != nil {
		logs.Logger.Errorf("update product %d: %v", id, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to update product", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PATCH /api/v1/products/buy/{name}/{quantity}
func (h *Handler) BuyProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]
	qty, err := strconv.Atoi(vars["quantity"])
	if strings.TrimSpace(name) == "" || err != nil || qty <= 0 {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid product name or quantity", nil)
		return
	}
	p, err := h.products.Buy(r.Context(), name, qty)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("product %q does not exist", name), nil)
		case errors.Is(err, repo.ErrInsufficientStock):
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("not enough stock of %q", name), nil)
		default:
			logs.Logger.Errorf("buy product %q: %v", name, err)
			models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to buy product", nil)
		}
		return
	}
	unit := "unit"
	if qty > 1 {
		unit = "units"
	}
	models.WriteMessage(w, http.StatusOK, fmt.Sprintf("bought %d %s of %s, %d left", qty, unit, p.Name, p.Stock))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("product %d does not exist", id), nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to delete product", nil)
		return
	}
	if err := h.products.Delete(r.Context(), p); err != nil {
		logs.Logger.Errorf("delete product %d: %v", id, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to delete product", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* ---------- helpers ---------- */

func pathID(r *http.Request) uint {
	id, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// parseProductForm разбирает multipart-форму товара (сам файл картинки
// обрабатывается отдельно, после создания записи).
func parseProductForm(r *http.Request) (*models.Product, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return nil, errors.New("invalid multipart form")
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return nil, errors.New("product name required")
	}
	sku := strings.TrimSpace(r.FormValue("sku"))
	if sku == "" {
		return nil, errors.New("sku required")
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		return nil, errors.New("invalid price")
	}
	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil || stock < 0 {
		return nil, errors.New("invalid stock")
	}
	catID, err := strconv.ParseUint(r.FormValue("category_id"), 10, 64)
	if err != nil || catID == 0 {
		return nil, errors.New("invalid category_id")
	}

	p := &models.Product{
		Name:        name,
		Description: r.FormValue("description"),
		Price:       price,
		SKU:         sku,
		Stock:       stock,
		CategoryID:  uint(catID),
	}
	if attrs := r.FormValue("attributes"); attrs != "" {
		if !json.Valid([]byte(attrs)) {
			return nil, errors.New("attributes must be valid JSON")
		}
		p.Attributes = datatypes.JSON(attrs)
	}
	return p, nil
}
