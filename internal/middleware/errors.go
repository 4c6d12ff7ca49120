package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// errorPages name the templates for statuses with their own page. Any other
// status renders the 500 page.
var errorPages = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// RespondError ends the request with code. htmx requests get an error toast
// and no swap so the list screen stays as it was. API paths and clients asking
// for JSON get the response envelope. Everyone else gets an error page.
func RespondError(c *gin.Context, code int, message string) {
	switch {
	case IsHTMX(c):
		if code >= http.StatusInternalServerError {
			message = "Something went wrong. Please try again"
		}
		ShowToast(c, message, ToastError)
		KeepPage(c)
		c.Status(code)
	case wantsJSON(c):
		c.JSON(code, errorBody(code, message))
	default:
		renderErrorPage(c, code)
	}
}

// errorBody is the JSON response envelope with no data.
func errorBody(code int, message string) gin.H {
	return gin.H{"code": code, "message": message, "data": nil}
}

// wantsJSON reports whether the client should get JSON rather than a page.
// Browsers send text/html or */*, and a missing Accept header counts as a
// browser.
func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	accept := strings.ToLower(c.GetHeader("Accept"))
	if strings.Contains(accept, "text/html") {
		return false
	}
	if strings.Contains(accept, "application/json") {
		return true
	}
	return !strings.Contains(accept, "*/*") && strings.TrimSpace(accept) != ""
}

// renderErrorPage falls back to plain text when no HTML renderer is set or
// the template fails.
func renderErrorPage(c *gin.Context, code int) {
	defer func() {
		if recover() != nil {
			c.Data(code, "text/plain; charset=utf-8", []byte(fmt.Sprintf("%d %s", code, http.StatusText(code))))
		}
	}()
	page, ok := errorPages[code]
	if !ok {
		page = errorPages[http.StatusInternalServerError]
	}
	c.HTML(code, page, gin.H{"Code": code, "RequestID": RequestIDFrom(c)})
}
