package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"lavka/internal/logs"
	"lavka/internal/models"
	"lavka/internal/passwords"
	"lavka/internal/repo"
	"lavka/internal/token"
)

// DefaultRole навешивается при регистрации без явной роли.
const DefaultRole = "User"

// Контракты хранилищ — ровно то, что нужно обработчикам
// (реализуются repo.UserStore/repo.RoleStore, в тестах — фейками).
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

type RoleStore interface {
	Ensure(ctx context.Context, name string) (*models.Role, error)
	Assign(ctx context.Context, u *models.User, name string) error
	RolesOf(ctx context.Context, userID uint) ([]string, error)
}

type Handler struct {
	users  UserStore
	roles  RoleStore
	issuer *token.Issuer
}

func NewHandler(users UserStore, roles RoleStore, issuer *token.Issuer) *Handler {
	return &Handler{users: users, roles: roles, issuer: issuer}
}

// POST /api/v1/users — регистрация.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "username required", nil)
		return
	}
	if req.Password == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "password required", nil)
		return
	}

	exists, err := h.users.Exists(r.Context(), req.Username)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to register user", nil)
		return
	}
	if exists {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "user already exists", nil)
		return
	}

	hash, err := passwords.Hash(req.Password)
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to register user", nil)
		return
	}

	user := &models.User{
		Username:     repo.Normalize(req.Username),
		DisplayName:  req.Name,
		PasswordHash: hash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		// Проверка уникальности и Create не атомарны: дубль мог проскочить
		// между ними — constraint хранилища вернёт ErrConflict, отвечаем
		// так же, как на обычный дубль.
		if errors.Is(err, repo.ErrConflict) {
			models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "user already exists", nil)
			return
		}
		logs.Logger.Errorf("register: create user: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to register user", nil)
		return
	}

	role := req.Role
	if role == "" {
		role = DefaultRole
	}
	if err := h.roles.Assign(r.Context(), user, role); err != nil {
		logs.Logger.Errorf("register: assign role %q: %v", role, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to register user", nil)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/users/%d", user.ID))
	models.WriteJSON(w, http.StatusCreated, NewUserView(user, role))
}

// POST /api/v1/users/login.
// "Username не найден" и "пароль не подошёл" наружу не различаем:
// оба случая — одинаковый 401 invalid credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "username required", nil)
		return
	}
	if req.Password == "" {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "password required", nil)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", nil)
			return
		}
		logs.Logger.Errorf("login: lookup: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "login failed", nil)
		return
	}

	if !passwords.Verify(user.PasswordHash, req.Password) {
		models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials", nil)
		return
	}

	roles, err := h.roles.RolesOf(r.Context(), user.ID)
	if err != nil {
		logs.Logger.Errorf("login: roles of %d: %v", user.ID, err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "login failed", nil)
		return
	}
	role := ""
	if len(roles) > 0 {
		role = roles[0] // в claim кладётся одна роль
	}

	tok, err := h.issuer.Issue(user.ID, user.Username, role)
	if err != nil {
		logs.Logger.Errorf("login: issue token: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "login failed", nil)
		return
	}

	models.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:   tok,
		User:    NewUserView(user, role),
		Message: "login successful",
	})
}

// GET /api/v1/users — только Admin.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list users", nil)
		return
	}
	views := make([]UserView, 0, len(users))
	for idx := range users {
		u := &users[idx]
		views = append(views, NewUserView(u, u.FirstRole()))
	}
	models.WriteJSON(w, http.StatusOK, views)
}

// GET /api/v1/users/{id} — только Admin.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", "invalid user id", nil)
		return
	}
	user, err := h.users.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			models.WriteProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("user %d does not exist", id), nil)
			return
		}
		models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to get user", nil)
		return
	}
	models.WriteJSON(w, http.StatusOK, NewUserView(user, user.FirstRole()))
}
