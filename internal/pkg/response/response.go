package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK sends a 200 {success:true, data} envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Attachment sends body as a downloadable file named filename.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "Not Found")
}

// NotFoundMsg sends a 404 error with a custom message.
func NotFoundMsg(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, message)
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	fail(c, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, message)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context) {
	fail(c, http.StatusTooManyRequests, "Too many requests, slow down")
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	fail(c, http.StatusInternalServerError, err.Error())
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "code": code, "error": message})
}
