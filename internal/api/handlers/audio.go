package handlers

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/call-router/pkg/errors"
)

// ServeAudio serves prompt and reply files. The filename is validated by
// middleware.ValidateAudioFilename before this runs.
func (h *Handler) ServeAudio(c *gin.Context) {
	name := c.Param("filename")
	path := filepath.Join(h.cfg.AudioDir, name)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		errors.NotFound(c, "audio file not found")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "audio/mpeg")
	c.File(path)
}
