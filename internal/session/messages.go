package session

import (
	"errors"

	"socialclient/internal/gateway"
	"socialclient/internal/models"
)

// User-facing texts.
const (
	FallbackLogin    = "Ошибка входа"
	FallbackRegister = "Ошибка регистрации"
	NetworkError     = "Ошибка сети"
	LoginRequired    = "Требуется вход"
)

// ErrorMessage returns the text to show for err. Application failures carry the server's
// own message; transport failures become NetworkError; anything else falls back.
func ErrorMessage(err error, fallback string) string {
	var apiErr *gateway.APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, gateway.ErrAccessDenied):
		return gateway.AccessDeniedMessage
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, gateway.ErrTransport):
		return NetworkError
	case errors.Is(err, ErrNoSession):
		return LoginRequired
	}
	return fallback
}

// Outcome converts err into the {success, error} shape UI layers consume.
func Outcome(err error, fallback string) models.Result {
	if err == nil {
		return models.OK()
	}
	return models.Failure(ErrorMessage(err, fallback))
}
