package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lavka/internal/models"
)

type ProductStore struct{ db *gorm.DB }

func NewProductStore(db *gorm.DB) *ProductStore { return &ProductStore{db: db} }

func (s *ProductStore) List(ctx context.Context) ([]models.Product, error) {
	var ps []models.Product
	err := s.db.WithContext(ctx).Preload("Category").Order("name").Find(&ps).Error
	return ps, err
}

func (s *ProductStore) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// Page — обычная offset/limit-страница, page с единицы.
func (s *ProductStore) Page(ctx context.Context, page, size int) ([]models.Product, error) {
	var ps []models.Product
	err := s.db.WithContext(ctx).Preload("Category").Order("name").
		Offset((page - 1) * size).Limit(size).Find(&ps).Error
	return ps, err
}

func (s *ProductStore) ByCategory(ctx context.Context, categoryID uint) ([]models.Product, error) {
	var ps []models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("category_id = ?", categoryID).Order("name").Find(&ps).Error
	return ps, err
}

// Search ищет подстроку в имени и описании (без регистра).
func (s *ProductStore) Search(ctx context.Context, term string) ([]models.Product, error) {
	like := "%" + Normalize(term) + "%"
	var ps []models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Order("name").Find(&ps).Error
	return ps, err
}

func (s *ProductStore) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *ProductStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) = ?", Normalize(name)).Count(&n).Error
	return n > 0, err
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *ProductStore) Delete(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Delete(p).Error
}

// Buy списывает qty со склада. Склад не может уйти в минус.
func (s *ProductStore) Buy(ctx context.Context, name string, qty int) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where("LOWER(name) = ?", Normalize(name)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Stock < qty {
		return nil, ErrInsufficientStock
	}
	p.Stock -= qty
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
