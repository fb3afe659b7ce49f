package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rookgm/fmmall/internal/models"
)

type UserService interface {
	// Register creates new user
	Register(ctx context.Context, login, password string) (*models.User, error)
}

type TokenIssuer interface {
	// CreateToken creates signed token for user
	CreateToken(user *models.User) (string, error)
}

type AuthService interface {
	// Login checks user credentials and returns auth token
	Login(ctx context.Context, login, password string) (string, error)
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// UserHandler represents HTTP handler for user registration
type UserHandler struct {
	svc   UserService
	token TokenIssuer
}

// NewUserHandler creates new UserHandler instance
func NewUserHandler(svc UserService, token TokenIssuer) *UserHandler {
	return &UserHandler{
		svc:   svc,
		token: token,
	}
}

// RegisterUser registers user and authenticates him
// 200 — пользователь успешно зарегистрирован и аутентифицирован;
// 400 — неверный формат запроса;
// 409 — логин уже занят;
// 500 — внутренняя ошибка сервера.
func (uh *UserHandler) RegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		user, err := uh.svc.Register(r.Context(), req.Login, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}

		token, err := uh.token.CreateToken(user)
		if err != nil {
			writeError(w, r, err)
			return
		}

		setAuthCookie(w, token)
		writeJSON(w, r, http.StatusOK, tokenResponse{Token: token})
	}
}

// AuthHandler represents HTTP handler for user authentication
type AuthHandler struct {
	svc AuthService
}

// NewAuthHandler creates new AuthHandler instance
func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginUser authenticates user
// 200 — пользователь успешно аутентифицирован;
// 400 — неверный формат запроса;
// 401 — неверная пара логин/пароль;
// 500 — внутренняя ошибка сервера.
func (ah *AuthHandler) LoginUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil || req.Login == "" || req.Password == "" {
			writeErrorMessage(w, r, http.StatusBadRequest, "bad request")
			return
		}
		defer r.Body.Close()

		token, err := ah.svc.Login(r.Context(), req.Login, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}

		setAuthCookie(w, token)
		writeJSON(w, r, http.StatusOK, tokenResponse{Token: token})
	}
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
}
