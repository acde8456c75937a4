package accounts

import "lavka/internal/models"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string   `json:"token"`
	User    UserView `json:"user"`
	Message string   `json:"message"`
}

// UserView — публичное представление аккаунта: без хэша и прочих
// учётных полей. Конверсия руками, никакого рефлексивного маппинга.
type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

func NewUserView(u *models.User, role string) UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName,
		Role:     role,
	}
}
