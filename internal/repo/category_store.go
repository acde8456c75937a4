package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lavka/internal/models"
)

type CategoryStore struct{ db *gorm.DB }

func NewCategoryStore(db *gorm.DB) *CategoryStore { return &CategoryStore{db: db} }

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.WithContext(ctx).Order("name").Find(&cats).Error
	return cats, err
}

func (s *CategoryStore) Get(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ExistsByName сравнивает без регистра и пробелов — "Books" и " books" один дубль.
func (s *CategoryStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("LOWER(name) = ?", Normalize(name)).Count(&n).Error
	return n > 0, err
}

func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, c *models.Category) error {
	return s.db.WithContext(ctx).Delete(c).Error
}
