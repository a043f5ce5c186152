package handler

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/lms/internal/constants"
	"github.com/gin-gonic/gin"
)

// CookieConfig controls the attributes of the auth cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cfg CookieConfig) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, constants.CookiePath, "", cfg.Secure, true)
}

// SetAuthCookies writes both tokens as http-only cookies.
func (cfg CookieConfig) SetAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	cfg.set(c, constants.CookieAccessToken, accessToken, int(cfg.AccessTTL/time.Second))
	cfg.set(c, constants.CookieRefreshToken, refreshToken, int(cfg.RefreshTTL/time.Second))
}

// ClearAuthCookies expires both cookies with the attributes they were set with.
func (cfg CookieConfig) ClearAuthCookies(c *gin.Context) {
	cfg.set(c, constants.CookieAccessToken, "", -1)
	cfg.set(c, constants.CookieRefreshToken, "", -1)
}

func refreshTokenFromCookie(c *gin.Context) string {
	token, err := c.Cookie(constants.CookieRefreshToken)
	if err != nil {
		return ""
	}
	return token
}
