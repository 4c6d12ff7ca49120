package middleware

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// htmx request and response headers.
const (
	HXRequest  = "HX-Request"
	HXTarget   = "HX-Target"
	HXTrigger  = "HX-Trigger"
	HXReswap   = "HX-Reswap"
	HXRedirect = "HX-Redirect"
)

// Toast kinds understood by the page script.
const (
	ToastSuccess = "success"
	ToastWarning = "warning"
	ToastError   = "error"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader(HXRequest) == "true"
}

// ShowToast sets the HX-Trigger response header so the page shows a toast.
func ShowToast(c *gin.Context, message, kind string) {
	trigger, _ := json.Marshal(map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    kind,
		},
	})
	c.Header(HXTrigger, string(trigger))
}

// KeepPage tells htmx not to swap the response into the page.
func KeepPage(c *gin.Context) {
	c.Header(HXReswap, "none")
}
