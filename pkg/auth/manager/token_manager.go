package manager

import (
	"errors"
	"log"
	"net/http"
	"time"
)

// AccessTokenCookie - имя куки с access-токеном
const AccessTokenCookie = "access_token"

// TokenManager управляет выдачей и отзывом access-токена через HttpOnly куки.
// Токен также принимается в заголовке Authorization: Bearer для API-клиентов.
type TokenManager struct {
	accessTokenExpiry time.Duration
	cookiePath        string
	cookieDomain      string
	cookieSecure      bool
	cookieHTTPOnly    bool
	cookieSameSite    http.SameSite
}

// NewTokenManager создает новый TokenManager с безопасными умолчаниями
func NewTokenManager(accessTokenExpiry time.Duration) *TokenManager {
	return &TokenManager{
		accessTokenExpiry: accessTokenExpiry,
		cookiePath:        "/",
		cookieDomain:      "",
		cookieSecure:      false,
		cookieHTTPOnly:    true,
		cookieSameSite:    http.SameSiteLaxMode,
	}
}

// SetProductionMode переключает атрибут Secure для продакшена
func (m *TokenManager) SetProductionMode(isProduction bool) {
	m.cookieSecure = isProduction
	log.Printf("[TokenManager] Production mode set to: %v, Cookie Secure set to: %v", isProduction, m.cookieSecure)
}

// SetCookieAttributes позволяет настроить атрибуты cookie
func (m *TokenManager) SetCookieAttributes(path, domain string, secure, httpOnly bool, sameSite http.SameSite) {
	m.cookiePath = path
	m.cookieDomain = domain
	m.cookieSecure = secure
	m.cookieHTTPOnly = httpOnly
	m.cookieSameSite = sameSite
}

// SetAccessTokenCookie устанавливает access-токен в HttpOnly куки
func (m *TokenManager) SetAccessTokenCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     m.cookiePath,
		Domain:   m.cookieDomain,
		MaxAge:   int(m.accessTokenExpiry.Seconds()),
		Secure:   m.cookieSecure,
		HttpOnly: m.cookieHTTPOnly,
		SameSite: m.cookieSameSite,
	})
}

// GetAccessTokenFromCookie получает access-токен из куки
func (m *TokenManager) GetAccessTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", errors.New("access token cookie not found")
		}
		return "", err
	}
	return cookie.Value, nil
}

// ClearAccessTokenCookie удаляет cookie с access-токеном
func (m *TokenManager) ClearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     m.cookiePath,
		Domain:   m.cookieDomain,
		MaxAge:   -1,
		Secure:   m.cookieSecure,
		HttpOnly: m.cookieHTTPOnly,
		SameSite: m.cookieSameSite,
	})
}
