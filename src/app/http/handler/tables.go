package handler

import (
	"github.com/gin-gonic/gin"

	"dbkit/src/app/http/dto"
	"dbkit/src/app/http/response"
	"dbkit/src/app/middleware"
	"dbkit/src/core/usecase"
)

// TableHandler serves table introspection endpoints.
type TableHandler struct {
	inspectService *usecase.InspectService
}

func NewTableHandler(inspectService *usecase.InspectService) *TableHandler {
	return &TableHandler{inspectService: inspectService}
}

// Columns describes a table.
// GET /v1/tables/:table/columns
func (h *TableHandler) Columns(c *gin.Context) {
	table := c.Param("table")
	cols, err := h.inspectService.Columns(c.Request.Context(), table)
	if err != nil {
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}
	response.OK(c, dto.NewTableColumnsResponse(table, cols))
}

// Count counts the rows of a table, optionally restricted by repeated
// ?filter=column:value parameters.
// GET /v1/tables/:table/count
func (h *TableHandler) Count(c *gin.Context) {
	var req dto.CountRowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error(), middleware.GetRequestID(c))
		return
	}
	filters, err := usecase.ParseFilters(req.Filters)
	if err != nil {
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}

	table := c.Param("table")
	n, err := h.inspectService.Count(c.Request.Context(), table, filters)
	if err != nil {
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}
	response.OK(c, dto.NewCountResponse(table, filters, n))
}
