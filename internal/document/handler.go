package document

import (
	"bytes"
	"fmt"
	"net/http"

	"gridflow/internal/domain"
	"gridflow/internal/errors"
	"gridflow/internal/export"
	"gridflow/internal/grid"
	"gridflow/internal/middleware"
	"gridflow/internal/schema"
	"gridflow/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

type LateRowsRequest struct {
	Rows []grid.Row `json:"rows" binding:"required,min=1"`
}

func actorOrAbort(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.Error(errors.Unauthorized("user not found", nil))
	}
	return actor, ok
}

func idOrAbort(c *gin.Context) (uint64, bool) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.Error(errors.BadRequest("Invalid document id", err))
		return 0, false
	}
	return id, true
}

func (h *Handler) Submit(c *gin.Context) {
	var input SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	doc, err := h.service.Submit(c.Request.Context(), actor, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) List(c *gin.Context) {
	page, perPage := utils.GetPaginationParams(c)
	sort, order := utils.GetSortParams(c, SortColumns, "created_at")

	result, err := h.service.List(c.Request.Context(), ListQuery{
		Type:    schema.DocType(c.Query("type")),
		Status:  domain.Status(c.Query("status")),
		Bucket:  c.Query("bucket"),
		Search:  c.Query("q"),
		Sort:    sort,
		Order:   order,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Show(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) Stamp(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	doc, err := h.service.Stamp(c.Request.Context(), id, domain.Slot(c.Param("slot")), actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}
	var input RejectRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	doc, err := h.service.Reject(c.Request.Context(), id, input.Reason, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Resubmit(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}
	var input ResubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	doc, err := h.service.Resubmit(c.Request.Context(), id, input, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Archive(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	doc, err := h.service.Archive(c.Request.Context(), id, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) AmendLateRows(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}
	var input LateRowsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	doc, err := h.service.AmendLateRows(c.Request.Context(), id, input.Rows, actor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) Purge(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.service.Purge(c.Request.Context(), id, actor); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Export(c *gin.Context) {
	id, ok := idOrAbort(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	doc, err := h.service.Export(c.Request.Context(), id, &buf)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%d.xlsx"`, doc.Type, doc.ID))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
