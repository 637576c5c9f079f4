package handler

import (
	"github.com/gin-gonic/gin"

	"dbkit/src/app/http/dto"
	"dbkit/src/app/http/response"
	"dbkit/src/app/middleware"
	"dbkit/src/core/usecase"
)

// QueryHandler serves the executed-query history.
type QueryHandler struct {
	inspectService *usecase.InspectService
}

func NewQueryHandler(inspectService *usecase.InspectService) *QueryHandler {
	return &QueryHandler{inspectService: inspectService}
}

// Last returns the latest executed query.
// GET /v1/queries/last
func (h *QueryHandler) Last(c *gin.Context) {
	q, err := h.inspectService.LastQuery()
	if err != nil {
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}
	response.OK(c, dto.LastQueryResponse{Query: q})
}

// List returns every executed query, oldest first.
// GET /v1/queries
func (h *QueryHandler) List(c *gin.Context) {
	response.OK(c, dto.NewQueryStackResponse(h.inspectService.Queries()))
}
