package repo

import (
	"context"

	"gorm.io/gorm"

	"lavka/internal/models"
)

type RoleStore struct{ db *gorm.DB }

func NewRoleStore(db *gorm.DB) *RoleStore { return &RoleStore{db: db} }

// Ensure заводит роль при первом обращении; повторный вызов — no-op.
func (s *RoleStore) Ensure(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).
		Where(&models.Role{Name: name}).FirstOrCreate(&role, models.Role{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Assign связывает пользователя с ролью (идемпотентно).
func (s *RoleStore) Assign(ctx context.Context, u *models.User, name string) error {
	role, err := s.Ensure(ctx, name)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(u).Association("Roles").Append(role)
}

func (s *RoleStore) RolesOf(ctx context.Context, userID uint) ([]string, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Model(&models.User{ID: userID}).Association("Roles").Find(&roles)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}
