package handlers

import (
	stderrors "errors"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/pkg/audit"
	"github.com/troikatech/call-router/pkg/errors"
)

type ReplyFile struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

func replyFiles(files []artifact.File) []ReplyFile {
	out := make([]ReplyFile, 0, len(files))
	for _, f := range files {
		out = append(out, ReplyFile{Name: f.Name, Size: f.Size, ModifiedAt: f.ModTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	return out
}

// ListReplies lists generated reply files, newest first.
func (h *Handler) ListReplies(c *gin.Context) {
	files, err := h.artifacts.List()
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": replyFiles(files), "count": len(files)})
}

func (h *Handler) DeleteReply(c *gin.Context) {
	name := c.Param("filename")
	err := h.artifacts.Remove(name)
	switch {
	case stderrors.Is(err, artifact.ErrInvalidKey):
		errors.BadRequest(c, "not a reply file")
		return
	case stderrors.Is(err, os.ErrNotExist):
		errors.NotFound(c, "reply file not found")
		return
	case err != nil:
		errors.InternalError(c, err, h.logger)
		return
	}

	actor := c.GetString("user_id")
	h.logger.Info("Reply file deleted", zap.String("file", name), zap.String("actor", actor))
	_ = h.audit.Log(c.Request.Context(), actor, audit.ActionDelete, "reply", name, nil)
	c.Status(http.StatusNoContent)
}

// SweepReplies runs the retention sweep now. ?dry_run=true only reports.
func (h *Handler) SweepReplies(c *gin.Context) {
	if h.sweeper == nil {
		errors.ServiceUnavailable(c, "cleanup is not configured")
		return
	}
	dryRun := c.Query("dry_run") == "true"

	report, err := h.sweeper.Sweep(dryRun)
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}
	if !dryRun {
		_ = h.audit.Log(c.Request.Context(), c.GetString("user_id"), audit.ActionDelete, "reply", "sweep", map[string]interface{}{
			"deleted":     len(report.Deleted),
			"bytes_freed": report.BytesFreed,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"dry_run":     dryRun,
		"scanned":     report.Scanned,
		"deleted":     replyFiles(report.Deleted),
		"failed":      report.Failed,
		"bytes_freed": report.BytesFreed,
	})
}
