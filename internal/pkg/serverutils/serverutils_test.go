package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"contact-assistant-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendRequest struct {
	Question string `json:"question" validate:"required,max=10"`
}

func TestValidateRequest_UsesJsonFieldNames(t *testing.T) {
	err := ValidateRequest(sendRequest{})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "is required", vErr.Fields["question"])

	assert.NoError(t, ValidateRequest(sendRequest{Question: "hi"}))
}

func TestErrorToResponse(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", apperr.New(apperr.KindNotFound, "thread.show", errors.New("thread not found")), 404, "not_found"},
		{"config", apperr.New(apperr.KindConfig, "llm", errors.New("missing key")), 503, "config_error"},
		{"provider", apperr.New(apperr.KindProvider, "llm", errors.New("boom")), 502, "provider_error"},
		{"internal hides message", apperr.New(apperr.KindInternal, "db", errors.New("secret dsn")), 500, "internal"},
		{"fiber", fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot, ""},
		{"plain", errors.New("x"), 500, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := ErrorToResponse(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, body.Kind)
			assert.False(t, body.Success)
			if status == 500 {
				assert.Equal(t, "Internal server error", body.Message)
			}
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	secret := "test-secret"
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", NewJwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", ctx.Locals("user_id").(string)))
	})

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "8f1c2b9e-4a39-4c54-9d2c-0a1f9b2e7c11",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("header token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		raw, _ := io.ReadAll(resp.Body)
		var body Response[string]
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "8f1c2b9e-4a39-4c54-9d2c-0a1f9b2e7c11", body.Data)
	})

	t.Run("query token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/me?token="+signed, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "x"}).SignedString([]byte("nope"))
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})
}
