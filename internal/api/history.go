package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// HistoryAPI groups the lookup history endpoints.
type HistoryAPI struct {
	c *Client
}

func (c *Client) History() *HistoryAPI {
	return &HistoryAPI{c: c}
}

func (p HistoryListParams) query() string {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.OrderBy != "" {
		v.Set("orderBy", p.OrderBy)
	}
	if p.OrderDirection != "" {
		v.Set("orderDirection", p.OrderDirection)
	}
	if p.Provider != "" {
		v.Set("provider", p.Provider)
	}
	if p.StartDate != "" {
		v.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		v.Set("endDate", p.EndDate)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (h *HistoryAPI) List(ctx context.Context, p HistoryListParams) (*PaginatedResponse[HistoryEntry], error) {
	var out PaginatedResponse[HistoryEntry]
	if err := h.c.Do(ctx, http.MethodGet, "/history/list"+p.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Log records a lookup on the server.
func (h *HistoryAPI) Log(ctx context.Context, req LogHistoryRequest) (*Response[HistoryEntry], error) {
	var out Response[HistoryEntry]
	if err := h.c.Do(ctx, http.MethodPost, "/history/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HistoryAPI) Clear(ctx context.Context) (*Response[ClearHistoryResponse], error) {
	var out Response[ClearHistoryResponse]
	if err := h.c.Do(ctx, http.MethodDelete, "/history", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HistoryAPI) Delete(ctx context.Context, id string) (*Response[DeleteHistoryResponse], error) {
	var out Response[DeleteHistoryResponse]
	if err := h.c.Do(ctx, http.MethodDelete, "/history/delete/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
