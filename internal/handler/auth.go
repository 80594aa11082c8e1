package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuslab/lab-seat-reservation/internal/apperr"
	"github.com/campuslab/lab-seat-reservation/internal/config"
	"github.com/campuslab/lab-seat-reservation/internal/model"
	"github.com/campuslab/lab-seat-reservation/internal/repository"
	"github.com/campuslab/lab-seat-reservation/internal/utils"
)

// AuthHandler bundles dependencies for account and session endpoints.
type AuthHandler struct {
	Cfg          config.Config
	Users        *repository.UserRepo
	Tokens       *repository.TokenRepo
	Reservations *repository.ReservationRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, r *repository.ReservationRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Reservations: r}
}

type registerReq struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Fname    string  `json:"fname"`
	Lname    string  `json:"lname"`
	Mname    *string `json:"mname"`
	Role     string  `json:"role"` // Student | Technician (Admin accounts are seeded)
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID     uint64 `json:"id"`
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Fname  string `json:"fname"`
	Lname  string `json:"lname"`
	Role   string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func userPartFrom(u model.User) userPart {
	return userPart{ID: u.ID, UserID: u.UserID, Email: u.Email, Fname: u.Fname, Lname: u.Lname, Role: u.Role}
}

// Register creates an account (assigning the next sequential user_id) and
// returns a token pair immediately. Only institutional e-mail addresses
// are accepted when a domain is configured.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.Fname == "" || req.Lname == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email, password and name are required"})
	}
	if !utils.InstitutionalEmail(req.Email, h.Cfg.EmailDomain) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Institutional e-mail required"})
	}
	role := strings.TrimSpace(req.Role)
	if role != model.RoleStudent && role != model.RoleTechnician {
		role = model.RoleStudent
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, repository.RegisterInput{
		Email: req.Email, Password: req.Password,
		Fname: req.Fname, Lname: req.Lname, Mname: req.Mname, Role: role,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "Email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Registration failed"})
	}

	return h.issueTokens(c, ctx, u, http.StatusCreated)
}

// Login verifies credentials and returns a fresh token pair. Inactive
// accounts cannot sign in.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Login failed"})
	}
	if u.Status != model.UserActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	}

	return h.issueTokens(c, ctx, u, http.StatusOK)
}

// Refresh validates a refresh token by hash, rotates it and returns a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid refresh token"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Refresh failed"})
	}
	return h.issueTokens(c, ctx, u, http.StatusOK)
}

// Logout revokes the supplied refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity stored by the JWT middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}

// Deactivate handles DELETE /api/users/:userId (admin): flips the account
// to Inactive and cancels its active reservations in one transaction.
func (h *AuthHandler) Deactivate(c echo.Context) error {
	userID, err := parseSubjectID(c.Param("userId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Deactivate(ctx, h.Reservations, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Deactivation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deactivated"})
}

func parseSubjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid user id")
	}
	return id, nil
}

func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, u model.User, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Token issue failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Token issue failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Token issue failed"})
	}
	return c.JSON(status, authResp{
		User:    userPartFrom(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
