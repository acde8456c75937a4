package models

import (
	"time"

	"gorm.io/gorm"
)

// Role создаётся лениво: первый запрос роли с новым именем заводит запись.
type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User хранит username в нормализованном виде (lower+trim); уникальность
// держит индекс хранилища — это закрывает гонку двух одновременных
// регистраций одним именем.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName  string `gorm:"size:255" json:"name,omitempty"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	Roles []Role `gorm:"many2many:user_roles" json:"-"`
}

// FirstRole — роль для claim'а токена (в токен кладётся одна).
func (u *User) FirstRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0].Name
}
