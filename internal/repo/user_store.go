package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lavka/internal/models"
)

type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

// Create пишет пользователя; нарушение уникального индекса по username
// конвертируем в ErrConflict — вторая конкурентная регистрация получает
// тот же ответ, что и обычный дубль.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetByUsername ищет по нормализованному имени. Username хранится уже
// нормализованным, поэтому сравнение попадает в индекс.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Roles").
		Where("username = ?", Normalize(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Roles").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Preload("Roles").Order("username").Find(&users).Error
	return users, err
}

func (s *UserStore) Exists(ctx context.Context, username string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", Normalize(username)).Count(&n).Error
	return n > 0, err
}
