package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/upload
//
// Accepts one multipart file, validates size and extension, and returns
// the stored URL for use as a message attachment. No message row is
// created here; the client sends the message referencing the URL.
func (a *API) uploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "no file provided"))
		return
	}

	url, filename, size, err := a.uploads.Save(file)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"filename": filename,
		"size":     size,
	})
}
