package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tooswasher/storefront/internal/domain/file"
)

type fileView struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	Public           bool      `json:"public"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

func toFileView(u *file.Upload) fileView {
	return fileView{
		ID:               u.ID,
		OriginalFilename: u.OriginalFilename,
		ContentType:      u.ContentType,
		Size:             u.Size,
		Public:           u.Public,
		UploadedAt:       u.UploadedAt,
	}
}

func (h *Handler) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	src, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	id := currentIdentity(c)
	u, err := h.files.Save(c.Request.Context(), file.SaveRequest{
		UserID:           id.UserID,
		OriginalFilename: fh.Filename,
		ContentType:      fh.Header.Get("Content-Type"),
		Public:           c.PostForm("public") == "true",
		Content:          src,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFileView(u))
}

func (h *Handler) listFiles(c *gin.Context) {
	id := currentIdentity(c)
	uploads, err := h.files.ListByUser(c.Request.Context(), id.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]fileView, len(uploads))
	for i := range uploads {
		views[i] = toFileView(&uploads[i])
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) downloadFile(c *gin.Context) {
	fileID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id := currentIdentity(c)
	u, rc, err := h.files.Open(c.Request.Context(), fileID, id.UserID, id.privileged())
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+u.OriginalFilename+`"`)
	c.Header("Content-Length", strconv.FormatInt(u.Size, 10))
	c.Header("Content-Type", u.ContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) updateFile(c *gin.Context) {
	fileID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Public *bool `json:"public" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	id := currentIdentity(c)
	u, err := h.files.SetPublic(c.Request.Context(), fileID, id.UserID, id.privileged(), *req.Public)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileView(u))
}

func (h *Handler) deleteFile(c *gin.Context) {
	fileID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id := currentIdentity(c)
	if err := h.files.Delete(c.Request.Context(), fileID, id.UserID, id.privileged()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
