package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/collabdocs/internal/api/http/converter"
	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/repository"
	"github.com/immxrtalbeast/collabdocs/internal/service"
)

type DocumentController struct {
	docs service.DocumentInteractor
}

func NewDocumentController(docs service.DocumentInteractor) *DocumentController {
	return &DocumentController{docs: docs}
}

func (c *DocumentController) CreateDocument(ctx *gin.Context) {
	type request struct {
		Title string `json:"title"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, err := c.docs.CreateDocument(ctx.Request.Context(), req.Title, currentUserID(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"docId": doc.ID})
}

func (c *DocumentController) GetDocument(ctx *gin.Context) {
	doc, err := c.docs.GetDocument(ctx.Request.Context(), ctx.Param("docID"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrDocumentNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"document": converter.DocumentToApi(doc)})
}

func (c *DocumentController) ListDocuments(ctx *gin.Context) {
	docs, err := c.docs.ListDocuments(ctx.Request.Context(), currentUserID(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"documents": converter.DocumentsToApi(docs)})
}

func (c *DocumentController) ListSharedWithMe(ctx *gin.Context) {
	docs, err := c.docs.ListSharedWithMe(ctx.Request.Context(), currentUserID(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"documents": converter.DocumentsToApi(docs)})
}

func (c *DocumentController) UpdateContent(ctx *gin.Context) {
	type request struct {
		Content json.RawMessage `json:"content" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := c.docs.UpdateContent(ctx.Request.Context(), ctx.Param("docID"), req.Content); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrDocumentNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Document updated successfully"})
}

func (c *DocumentController) UpdateTitle(ctx *gin.Context) {
	type request struct {
		Title string `json:"title" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	doc, err := c.docs.UpdateTitle(ctx.Request.Context(), ctx.Param("docID"), req.Title)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrDocumentNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"document": converter.DocumentToApi(doc)})
}

func (c *DocumentController) DeleteDocument(ctx *gin.Context) {
	if err := c.docs.DeleteDocument(ctx.Request.Context(), ctx.Param("docID")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrDocumentNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

func (c *DocumentController) ShareDocument(ctx *gin.Context) {
	type request struct {
		Permission domain.Permission `json:"permission" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil || !req.Permission.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid permission type"})
		return
	}

	link, err := c.docs.ShareDocument(ctx.Request.Context(), ctx.Param("docID"), currentUserID(ctx), req.Permission)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, repository.ErrDocumentNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrOwnerOnly):
			status = http.StatusForbidden
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "Shareable link generated",
		"linkId":     link.LinkID,
		"permission": link.Permission,
	})
}

// ResolveSharedLink is the permission gate for shared-link access: it
// resolves the link, records the first-access grant for the requesting user
// and returns the document plus the granted permission.
func (c *DocumentController) ResolveSharedLink(ctx *gin.Context) {
	doc, permission, err := c.docs.ResolveAccess(ctx.Request.Context(), ctx.Param("linkID"), currentUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired link"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"document":   converter.DocumentToApi(doc),
		"permission": permission,
	})
}

func (c *DocumentController) UpdateSharedContent(ctx *gin.Context) {
	type request struct {
		Content json.RawMessage `json:"content" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := c.docs.UpdateSharedContent(ctx.Request.Context(), ctx.Param("linkID"), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired link"})
		case errors.Is(err, service.ErrPermissionDenied):
			ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to edit this document"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Document updated successfully"})
}

func (c *DocumentController) SharedUsers(ctx *gin.Context) {
	entries, err := c.docs.SharedUsers(ctx.Request.Context(), ctx.Param("docID"), currentUserID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDocumentNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		case errors.Is(err, service.ErrOwnerOnly):
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Only owner can view shared users"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	result := make([]converter.SharedWithEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, converter.SharedWithEntry{
			UserID:     entry.UserID,
			Permission: entry.Permission,
		})
	}
	ctx.JSON(http.StatusOK, result)
}
