package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tourdesk/internal/domain"
)

// pathUUID binds a required UUID path parameter the way generated
// oapi-codegen servers do.
func pathUUID(r *http.Request, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return id, nil
}

// orgAndID binds the {orgId} and {id} path parameters shared by every
// per-experience route.
func orgAndID(r *http.Request) (org, id openapi_types.UUID, err error) {
	if org, err = pathUUID(r, "orgId"); err != nil {
		return
	}
	id, err = pathUUID(r, "id")
	return
}

// ListParams holds the optional query parameters of GET /orgs/{orgId}/experiences.
type ListParams struct {
	Page            *int     `form:"page"`
	Limit           *int     `form:"limit"`
	Q               *string  `form:"q"`
	Category        *string  `form:"category"`
	IsActive        *bool    `form:"is_active"`
	IncludeArchived *bool    `form:"include_archived"`
	MinPrice        *float64 `form:"min_price"`
	MaxPrice        *float64 `form:"max_price"`
}

func bindListParams(r *http.Request) (ListParams, error) {
	var p ListParams
	q := r.URL.Query()
	for name, dst := range map[string]any{
		"page":             &p.Page,
		"limit":            &p.Limit,
		"q":                &p.Q,
		"category":         &p.Category,
		"is_active":        &p.IsActive,
		"include_archived": &p.IncludeArchived,
		"min_price":        &p.MinPrice,
		"max_price":        &p.MaxPrice,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dst); err != nil {
			return p, fmt.Errorf("invalid format for parameter %s: %w", name, err)
		}
	}
	return p, nil
}

func (p ListParams) filter() domain.ExperienceFilter {
	f := domain.ExperienceFilter{
		IsActive: p.IsActive,
		MinPrice: p.MinPrice,
		MaxPrice: p.MaxPrice,
	}
	if p.Q != nil {
		f.Query = *p.Q
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.IncludeArchived != nil {
		f.IncludeArchived = *p.IncludeArchived
	}
	return f
}

func (p ListParams) page() domain.PaginationParams {
	return domain.NewPaginationParams(p.Page, p.Limit)
}

// PageParams holds the page/limit query parameters of paged sub-resources.
type PageParams struct {
	Page  *int
	Limit *int
}

func bindPageParams(r *http.Request) (domain.PaginationParams, error) {
	var p PageParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &p.Page); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("invalid format for parameter page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	return domain.NewPaginationParams(p.Page, p.Limit), nil
}
