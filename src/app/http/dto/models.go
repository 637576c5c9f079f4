package dto

import (
	"dbkit/src/core/domain"
	"dbkit/src/core/usecase"
)

// CountRowsRequest is bound from the query string of the count endpoint.
// Each filter is "column:value"; filters are joined with AND.
type CountRowsRequest struct {
	Filters []string `form:"filter"`
}

// ColumnResponse is one column of a table description.
type ColumnResponse struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Key      string  `json:"key,omitempty"`
	Default  *string `json:"default"`
	Extra    string  `json:"extra,omitempty"`
	Comment  string  `json:"comment,omitempty"`
}

// TableColumnsResponse lists the columns of a table.
type TableColumnsResponse struct {
	Table   string           `json:"table"`
	Columns []ColumnResponse `json:"columns"`
}

// CountResponse is the row count of a table.
type CountResponse struct {
	Table   string            `json:"table"`
	Filters map[string]string `json:"filters,omitempty"`
	Count   int64             `json:"count"`
}

// LastQueryResponse is the latest executed query.
type LastQueryResponse struct {
	Query string `json:"query"`
}

// QueryStackResponse lists every executed query, oldest first.
type QueryStackResponse struct {
	Queries []string `json:"queries"`
	Total   int      `json:"total"`
}

func NewTableColumnsResponse(table string, cols []domain.Column) TableColumnsResponse {
	out := TableColumnsResponse{Table: table, Columns: make([]ColumnResponse, len(cols))}
	for i, c := range cols {
		out.Columns[i] = ColumnResponse{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable,
			Key:      c.Key,
			Default:  c.Default,
			Extra:    c.Extra,
			Comment:  c.Comment,
		}
	}
	return out
}

func NewQueryStackResponse(queries []string) QueryStackResponse {
	if queries == nil {
		queries = []string{}
	}
	return QueryStackResponse{Queries: queries, Total: len(queries)}
}

func NewCountResponse(table string, filters []usecase.Filter, count int64) CountResponse {
	resp := CountResponse{Table: table, Count: count}
	if len(filters) > 0 {
		resp.Filters = make(map[string]string, len(filters))
		for _, f := range filters {
			resp.Filters[f.Column] = f.Value
		}
	}
	return resp
}
