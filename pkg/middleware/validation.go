package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/call-router/pkg/errors"
)

var audioFilenamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}\.mp3$`)

// ValidateAudioFilename rejects anything but a flat .mp3 file name, so
// static serving can never leave the audio directory.
func ValidateAudioFilename(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param(paramName)
		if !audioFilenamePattern.MatchString(name) {
			errors.NotFound(c, "audio file not found")
			return
		}
		c.Next()
	}
}
