package catalog

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lavka/internal/models"
)

// Заглушка, когда товар без картинки.
const placeholderImgURL = "https://placehold.co/300x300"

// StaticPrefix — под этим префиксом раздаётся каталог загрузок.
const StaticPrefix = "/static/products-images/"

// saveProductImage сохраняет картинку из multipart-поля "image" в каталог
// загрузок под именем {id}-{uuid}{ext} и проставляет публичный URL
// (строится от хоста запроса). Отсутствие файла — не ошибка.
func (h *Handler) saveProductImage(r *http.Request, p *models.Product) (bool, error) {
	file, hdr, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		return false, err
	}
	name := fmt.Sprintf("%d-%s%s", p.ID, uuid.NewString(), strings.ToLower(filepath.Ext(hdr.Filename)))
	path := filepath.Join(h.uploadsDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return false, err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return false, err
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	p.ImgURL = fmt.Sprintf("%s://%s%s%s", scheme, r.Host, StaticPrefix, name)
	p.ImgPath = path
	return true, nil
}
