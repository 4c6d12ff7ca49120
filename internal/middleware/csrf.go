package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfCookie   = "_csrf_token"
	csrfField    = "_csrf_token"
	csrfHeader   = "X-CSRF-Token"
	csrfTokenKey = "csrf_token"
)

// csrfExpiredMessage is shown to htmx users whose token was rejected.
const csrfExpiredMessage = "Your session expired. Reload the page and try again"

// CSRF guards the page routes with a signed double-submit cookie.
//
// A token is "<hex nonce>.<base64url HMAC-SHA256 of the nonce>". Safe
// methods make sure the browser holds a valid token cookie and expose the
// token to templates through CSRFTokenFrom. Unsafe methods must echo the
// cookie's token in the _csrf_token form field or the X-CSRF-Token header;
// anything else ends in 403. The JSON API is mounted without this middleware.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "csrf secret is required"))
		}
	}
	g := csrfGuard{key: []byte(secret), secure: gin.Mode() == gin.ReleaseMode}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			g.issue(c)
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			g.verify(c)
		default:
			c.Next()
		}
	}
}

// CSRFTokenFrom returns the token CSRF stored for the request, or "".
func CSRFTokenFrom(c *gin.Context) string {
	return c.GetString(csrfTokenKey)
}

type csrfGuard struct {
	key    []byte
	secure bool
}

// issue keeps a valid cookie token or replaces it with a fresh one.
func (g csrfGuard) issue(c *gin.Context) {
	token, _ := c.Cookie(csrfCookie)
	if !g.signed(token) {
		var err error
		if token, err = g.newToken(); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "failed to generate CSRF token"))
			return
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     csrfCookie,
			Value:    token,
			Path:     "/",
			Secure:   g.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
	c.Set(csrfTokenKey, token)
	c.Next()
}

func (g csrfGuard) verify(c *gin.Context) {
	cookie, _ := c.Cookie(csrfCookie)
	sent := c.PostForm(csrfField)
	if sent == "" {
		sent = c.GetHeader(csrfHeader)
	}

	switch {
	case cookie == "" || sent == "":
		rejectCSRF(c, "CSRF token missing")
	case !g.signed(cookie) || !hmac.Equal([]byte(cookie), []byte(sent)):
		rejectCSRF(c, "CSRF token invalid")
	default:
		c.Set(csrfTokenKey, cookie)
		c.Next()
	}
}

func (g csrfGuard) newToken() (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	n := hex.EncodeToString(nonce)
	return n + "." + g.sign(n), nil
}

func (g csrfGuard) sign(nonce string) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// signed reports whether token is a nonce carrying this guard's signature.
func (g csrfGuard) signed(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(g.sign(nonce)))
}

func rejectCSRF(c *gin.Context, reason string) {
	if IsHTMX(c) {
		ShowToast(c, csrfExpiredMessage, ToastError)
		KeepPage(c)
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, errorBody(http.StatusForbidden, reason))
}
