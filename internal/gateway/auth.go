package gateway

import (
	"context"
	"net/http"

	"github.com/matheus3301/chatwire/internal/domain"
)

// Login exchanges a username and password for a session.
func (c *Client) Login(ctx context.Context, identifier, secret string) (domain.Session, error) {
	const op = "login"
	body := map[string]string{"username": identifier, "password": secret}

	r, err := c.roundTrip(ctx, op, http.MethodPost, "/auth/login", body)
	if err != nil {
		return domain.Session{}, err
	}
	if r.httpStatus == http.StatusUnauthorized || r.httpStatus == http.StatusForbidden ||
		r.status == http.StatusUnauthorized || r.status == http.StatusForbidden {
		return domain.Session{}, &AuthError{Reason: reason(r.message, "invalid credentials")}
	}
	if fail := r.failure(); fail != nil {
		if r.httpStatus >= 200 && r.httpStatus <= 299 && r.status < 400 {
			// 2xx without data is how the backend reports a refused login.
			return domain.Session{}, &AuthError{Reason: reason(r.message, "login failed")}
		}
		return domain.Session{}, fail
	}

	token := r.data.Get("token").String()
	user := r.data.Get("user")
	if token == "" || !user.IsObject() {
		return domain.Session{}, &AuthError{Reason: "login response missing token or user"}
	}
	id, err := domain.ParseIdentity([]byte(user.Raw))
	if err != nil {
		return domain.Session{}, &AuthError{Reason: err.Error()}
	}
	return domain.Session{
		Identity:   id,
		Credential: domain.Credential{AccessToken: token, RefreshToken: r.data.Get("refreshToken").String()},
	}, nil
}

func reason(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
