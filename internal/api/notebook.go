package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const notebookPath = "/shared/notebook"

// NotebookAPI groups the notebook endpoints.
type NotebookAPI struct {
	c *Client
}

func (c *Client) Notebook() *NotebookAPI {
	return &NotebookAPI{c: c}
}

func (p ListNotebookParams) query() string {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.OrderBy != "" {
		v.Set("orderBy", p.OrderBy)
	}
	if p.OrderDirection != "" {
		v.Set("orderDirection", p.OrderDirection)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Since != "" {
		v.Set("since", p.Since)
	}
	if p.IncludeDeleted {
		v.Set("includeDeleted", "true")
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// List returns one page of entries.
func (n *NotebookAPI) List(ctx context.Context, p ListNotebookParams) (*PaginatedResponse[NotebookEntry], error) {
	var out PaginatedResponse[NotebookEntry]
	if err := n.c.Do(ctx, http.MethodGet, notebookPath+p.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *NotebookAPI) Get(ctx context.Context, id string) (*Response[NotebookEntry], error) {
	var out Response[NotebookEntry]
	if err := n.c.Do(ctx, http.MethodGet, notebookPath+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *NotebookAPI) Create(ctx context.Context, req CreateNotebookEntryRequest) (*Response[NotebookEntry], error) {
	var out Response[NotebookEntry]
	if err := n.c.Do(ctx, http.MethodPost, notebookPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *NotebookAPI) BulkCreate(ctx context.Context, req BulkCreateNotebookRequest) (*Response[BulkCreateNotebookResponse], error) {
	var out Response[BulkCreateNotebookResponse]
	if err := n.c.Do(ctx, http.MethodPost, notebookPath+"/bulk", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *NotebookAPI) Update(ctx context.Context, id string, req UpdateNotebookEntryRequest) (*Response[NotebookEntry], error) {
	var out Response[NotebookEntry]
	if err := n.c.Do(ctx, http.MethodPatch, notebookPath+"/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *NotebookAPI) Delete(ctx context.Context, id string) (*Response[DeleteNotebookEntryResponse], error) {
	var out Response[DeleteNotebookEntryResponse]
	if err := n.c.Do(ctx, http.MethodDelete, notebookPath+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Restore undoes a soft delete on the server.
func (n *NotebookAPI) Restore(ctx context.Context, id string) (*Response[RestoreNotebookEntryResponse], error) {
	var out Response[RestoreNotebookEntryResponse]
	if err := n.c.Do(ctx, http.MethodPost, notebookPath+"/"+url.PathEscape(id)+"/restore", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
