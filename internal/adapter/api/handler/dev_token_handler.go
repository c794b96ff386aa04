package handler

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"homexa/internal/domain/repository"
	"homexa/pkg/errors"
	"homexa/pkg/response"
)

// DevTokenHandler mints tokens for local development so the API can be
// exercised without a real login flow. Never routed in production.
type DevTokenHandler struct {
	secret   []byte
	expiry   time.Duration
	userRepo repository.UserRepository
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(secret string, expiry time.Duration, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		secret:   []byte(secret),
		expiry:   expiry,
		userRepo: userRepo,
	}
}

func SetupDevTokenHandler(secret string, expiry time.Duration, userRepo repository.UserRepository) {
	devTokenHandler = NewDevTokenHandler(secret, expiry, userRepo)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

type devTokenRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// GenerateUserToken signs a token for an existing user.
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), req.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": user.ID,
		"exp":    time.Now().Add(h.expiry).Unix(),
	})
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to sign token", err))
	}

	return response.Success(c, map[string]interface{}{
		"token": signed,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.FullName(),
		},
	})
}
