package apiv1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usemaya/maya/server/auth"
	"github.com/usemaya/maya/store"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

const minPasswordLength = 6

// Signup registers a new account and returns a token pair.
func (s *APIV1Service) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	req := &signupRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed signup request")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters")
	}

	if _, err := s.Store.GetUser(ctx, &store.FindUser{Email: &email}); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "email is already registered")
	} else if err != store.ErrNotFound {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to check existing user")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to hash password")
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue tokens")
	}
	return c.JSON(http.StatusCreated, tokens)
}

// Login verifies credentials and returns a token pair.
func (s *APIV1Service) Login(c echo.Context) error {
	ctx := c.Request().Context()
	req := &loginRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed login request")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		if err == store.ErrNotFound {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue tokens")
	}
	return c.JSON(http.StatusOK, tokens)
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *APIV1Service) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	req := &refreshRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed refresh request")
	}

	claims, err := auth.Authenticate(req.RefreshToken, auth.RefreshTokenAudience, []byte(s.Secret))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	userID, err := parseUserID(claims.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		if err == store.ErrNotFound {
			return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue tokens")
	}
	return c.JSON(http.StatusOK, tokens)
}

func (s *APIV1Service) issueTokens(user *store.User) (*tokenResponse, error) {
	subject := strconv.Itoa(int(user.ID))
	now := time.Now()
	secret := []byte(s.Secret)

	accessToken, err := auth.GenerateAccessToken(subject, user.Email, secret, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := auth.GenerateRefreshToken(subject, user.Email, secret, now)
	if err != nil {
		return nil, err
	}
	return &tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
