package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavka/internal/logs"
	"lavka/internal/models"
	"lavka/internal/repo"
	"lavka/internal/token"
)

func TestMain(m *testing.M) {
	logs.Init(logs.Options{Level: "fatal"})
	os.Exit(m.Run())
}

/* ---- fakes ---- */

type fakeProducts struct {
	items  map[uint]*models.Product
	nextID uint
}

func newFakeProducts() *fakeProducts { return &fakeProducts{items: map[uint]*models.Product{}} }

func (f *fakeProducts) sorted() []models.Product {
	ids := make([]int, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.items[uint(id)])
	}
	return out
}

func (f *fakeProducts) List(context.Context) ([]models.Product, error) { return f.sorted(), nil }

func (f *fakeProducts) Get(_ context.Context, id uint) (*models.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) Count(context.Context) (int64, error) { return int64(len(f.items)), nil }

func (f *fakeProducts) Page(_ context.Context, page, size int) ([]models.Product, error) {
	all := f.sorted()
	from := (page - 1) * size
	if from >= len(all) {
		return nil, nil
	}
	to := from + size
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], nil
}

func (f *fakeProducts) ByCategory(_ context.Context, categoryID uint) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.sorted() {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Search(_ context.Context, term string) ([]models.Product, error) {
	term = repo.Normalize(term)
	var out []models.Product
	for _, p := range f.sorted() {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeProducts) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, p := range f.items {
		if repo.Normalize(p.Name) == repo.Normalize(name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.nextID++
	p.ID = f.nextID
	f.items[p.ID] = p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, p *models.Product) error {
	delete(f.items, p.ID)
	return nil
}

func (f *fakeProducts) Buy(_ context.Context, name string, qty int) (*models.Product, error) {
	for _, p := range f.items {
		if repo.Normalize(p.Name) == repo.Normalize(name) {
			if p.Stock < qty {
				return nil, repo.ErrInsufficientStock
			}
			p.Stock -= qty
			return p, nil
		}
	}
	return nil, repo.ErrNotFound
}

type fakeCategories struct {
	items  map[uint]*models.Category
	nextID uint
}

func newFakeCategories() *fakeCategories { return &fakeCategories{items: map[uint]*models.Category{}} }

func (f *fakeCategories) add(name string) *models.Category {
	f.nextID++
	c := &models.Category{ID: f.nextID, Name: name}
	f.items[c.ID] = c
	return c
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	ids := make([]int, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.items[uint(id)])
	}
	return out, nil
}

func (f *fakeCategories) Get(_ context.Context, id uint) (*models.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return c, nil
}

func (f *fakeCategories) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeCategories) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, c := range f.items {
		if repo.Normalize(c.Name) == repo.Normalize(name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = c
	return nil
}

func (f *fakeCategories) Update(_ context.Context, c *models.Category) error {
	f.items[c.ID] = c
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, c *models.Category) error {
	delete(f.items, c.ID)
	return nil
}

/* ---- helpers ---- */

type env struct {
	router     *mux.Router
	products   *fakeProducts
	categories *fakeCategories
	adminTok   string
	userTok    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	iss := token.NewIssuer("unit-test-secret")
	products, categories := newFakeProducts(), newFakeCategories()
	r := mux.NewRouter()
	RegisterRoutes(r, NewHandler(products, categories, t.TempDir()), iss)

	adminTok, err := iss.Issue(1, "alice", "Admin")
	require.NoError(t, err)
	userTok, err := iss.Issue(2, "bob", "User")
	require.NoError(t, err)
	return &env{router: r, products: products, categories: categories, adminTok: adminTok, userTok: userTok}
}

func (e *env) do(method, path string, body io.Reader, contentType, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) doJSON(method, path string, v any, bearer string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(v)
	return e.do(method, path, bytes.NewReader(b), "application/json", bearer)
}

func productForm(t *testing.T, fields map[string]string, withImage bool) (io.Reader, string) {
	t.Helper()
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withImage {
		fw, err := mw.CreateFormFile("image", "pic.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("not-really-a-png"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &b, mw.FormDataContentType()
}

func validFields(categoryID uint) map[string]string {
	return map[string]string{
		"name":        "Teapot",
		"description": "Ceramic teapot",
		"price":       "19.90",
		"sku":         "TP-001",
		"stock":       "12",
		"category_id": fmt.Sprint(categoryID),
	}
}

/* ---- categories ---- */

func TestCategoryCRUD(t *testing.T) {
	e := newEnv(t)

	rec := e.doJSON(http.MethodPost, "/api/v1/categories", CategoryRequest{Name: "Books"}, e.adminTok)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/categories/1", rec.Header().Get("Location"))

	// дубль без учёта регистра
	rec = e.doJSON(http.MethodPost, "/api/v1/categories", CategoryRequest{Name: " books "}, e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.doJSON(http.MethodPatch, "/api/v1/categories/1", CategoryRequest{Name: "Paper Books"}, e.adminTok)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.doJSON(http.MethodPatch, "/api/v1/categories/99", CategoryRequest{Name: "X"}, e.adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodDelete, "/api/v1/categories/1", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(http.MethodDelete, "/api/v1/categories/1", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryReadIsPublicAndCached(t *testing.T) {
	e := newEnv(t)
	e.categories.add("Books")

	rec := e.do(http.MethodGet, "/api/v1/categories", nil, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/api/v1/categories/1", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=10", rec.Header().Get("Cache-Control"))

	rec = e.do(http.MethodGet, "/api/v1/categories/42", nil, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryMutationsRequireAdmin(t *testing.T) {
	e := newEnv(t)

	rec := e.doJSON(http.MethodPost, "/api/v1/categories", CategoryRequest{Name: "Books"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.doJSON(http.MethodPost, "/api/v1/categories", CategoryRequest{Name: "Books"}, e.userTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

/* ---- products ---- */

func TestCreateProductWithoutImageGetsPlaceholder(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")

	body, ct := productForm(t, validFields(cat.ID), false)
	rec := e.do(http.MethodPost, "/api/v1/products", body, ct, e.adminTok)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/products/1", rec.Header().Get("Location"))

	var view ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Teapot", view.Name)
	assert.Equal(t, placeholderImgURL, view.ImgURL)
	assert.Equal(t, cat.ID, view.CategoryID)
}

func TestCreateProductStoresImageFile(t *testing.T) {
	iss := token.NewIssuer("unit-test-secret")
	products, categories := newFakeProducts(), newFakeCategories()
	dir := t.TempDir()
	r := mux.NewRouter()
	RegisterRoutes(r, NewHandler(products, categories, dir), iss)
	adminTok, err := iss.Issue(1, "alice", "Admin")
	require.NoError(t, err)
	cat := categories.add("Kitchen")

	e := &env{router: r, adminTok: adminTok}
	body, ct := productForm(t, validFields(cat.ID), true)
	rec := e.do(http.MethodPost, "/api/v1/products", body, ct, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code)

	p := products.items[1]
	require.NotNil(t, p)
	assert.Contains(t, p.ImgURL, StaticPrefix)
	assert.True(t, strings.HasPrefix(filepath.Base(p.ImgPath), "1-"))

	data, err := os.ReadFile(p.ImgPath)
	require.NoError(t, err)
	assert.Equal(t, "not-really-a-png", string(data))
}

func TestCreateProductValidation(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")

	// неизвестная категория
	fields := validFields(99)
	body, ct := productForm(t, fields, false)
	rec := e.do(http.MethodPost, "/api/v1/products", body, ct, e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "category 99 does not exist")

	// дубль имени
	body, ct = productForm(t, validFields(cat.ID), false)
	rec = e.do(http.MethodPost, "/api/v1/products", body, ct, e.adminTok)
	require.Equal(t, http.StatusCreated, rec.Code)
	body, ct = productForm(t, validFields(cat.ID), false)
	rec = e.do(http.MethodPost, "/api/v1/products", body, ct, e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "product already exists")

	// кривые числа
	fields = validFields(cat.ID)
	fields["name"] = "Another"
	fields["price"] = "free"
	body, ct = productForm(t, fields, false)
	rec = e.do(http.MethodPost, "/api/v1/products", body, ct, e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")
	e.products.items[5] = &models.Product{ID: 5, Name: "Pan", CategoryID: cat.ID, Category: *cat}
	e.products.nextID = 5

	rec := e.do(http.MethodGet, "/api/v1/products/5", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Kitchen", view.Category)

	rec = e.do(http.MethodGet, "/api/v1/products/77", nil, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPagination(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")
	for i := 0; i < 12; i++ {
		e.products.items[uint(i+1)] = &models.Product{
			ID: uint(i + 1), Name: fmt.Sprintf("p%02d", i), CategoryID: cat.ID,
		}
	}
	e.products.nextID = 12

	rec := e.do(http.MethodGet, "/api/v1/products/paged?page_number=3&page_size=5", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page PageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.PageNumber)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2) // 12 товаров: 5+5+2

	// за последней страницей ничего нет
	rec = e.do(http.MethodGet, "/api/v1/products/paged?page_number=4&page_size=5", nil, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// невалидные параметры
	rec = e.do(http.MethodGet, "/api/v1/products/paged?page_number=0", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(http.MethodGet, "/api/v1/products/paged?page_size=abc", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAndByCategoryRequireToken(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")
	e.products.items[1] = &models.Product{ID: 1, Name: "Teapot", Description: "ceramic", CategoryID: cat.ID}
	e.products.nextID = 1

	rec := e.do(http.MethodGet, "/api/v1/products/search/tea", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodGet, "/api/v1/products/search/tea", nil, "", e.adminTok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/api/v1/products/search/zzz", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodGet, fmt.Sprintf("/api/v1/products/by-category/%d", cat.ID), nil, "", e.adminTok)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(http.MethodGet, "/api/v1/products/by-category/42", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuyProduct(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")
	e.products.items[1] = &models.Product{ID: 1, Name: "Teapot", Stock: 3, CategoryID: cat.ID}
	e.products.nextID = 1

	rec := e.do(http.MethodPatch, "/api/v1/products/buy/Teapot/2", nil, "", e.adminTok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bought 2 units")
	assert.Equal(t, 1, e.products.items[1].Stock)

	// остатка не хватает
	rec = e.do(http.MethodPatch, "/api/v1/products/buy/Teapot/5", nil, "", e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, e.products.items[1].Stock)

	rec = e.do(http.MethodPatch, "/api/v1/products/buy/Nothing/1", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodPatch, "/api/v1/products/buy/Teapot/0", nil, "", e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	e := newEnv(t)
	cat := e.categories.add("Kitchen")
	e.products.items[1] = &models.Product{ID: 1, Name: "Teapot", SKU: "TP-001", Stock: 3, CategoryID: cat.ID}
	e.products.nextID = 1

	fields := validFields(cat.ID)
	fields["stock"] = "50"
	body, ct := productForm(t, fields, false)
	rec := e.do(http.MethodPut, "/api/v1/products/1", body, ct, e.adminTok)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 50, e.products.items[1].Stock)

	body, ct = productForm(t, fields, false)
	rec = e.do(http.MethodPut, "/api/v1/products/99", body, ct, e.adminTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodDelete, "/api/v1/products/1", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(http.MethodDelete, "/api/v1/products/1", nil, "", e.adminTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
