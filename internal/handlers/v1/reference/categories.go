package reference

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// Category is the API form of a master category.
type Category struct {
	ID     string `json:"id" doc:"Category UUID"`
	Name   string `json:"name" doc:"Category name, unique ignoring case"`
	Parent string `json:"parent" doc:"Reporting parent category"`
}

// CreateCategoryInput is the Huma input for creating a master category.
type CreateCategoryInput struct {
	Body struct {
		Name   string `json:"name" minLength:"1" doc:"Category name"`
		Parent string `json:"parent" minLength:"1" doc:"Reporting parent category"`
	}
}

// CategoryOutput is the Huma output for creating a category.
type CategoryOutput struct {
	Status int
	Body   Category
}

// ListCategoriesOutput is the Huma output for listing categories.
type ListCategoriesOutput struct {
	Body struct {
		Categories []Category `json:"categories"`
	}
}

type categoryService interface {
	CreateCategory(ctx context.Context, actor authz.Principal, category models.MasterCategory) (*models.MasterCategory, error)
	ListCategories(ctx context.Context) ([]models.MasterCategory, error)
}

// CategoriesHandler handles the master category endpoints.
type CategoriesHandler struct {
	ReferenceService categoryService
}

// NewCategoriesHandler creates a new CategoriesHandler.
func NewCategoriesHandler(svc categoryService) *CategoriesHandler {
	return &CategoriesHandler{ReferenceService: svc}
}

// Register registers the category endpoints with the Huma API.
func (h *CategoriesHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-category",
		Method:        http.MethodPost,
		Path:          "/v1/category",
		Summary:       "Create master category",
		Description:   "Maps a category name to the parent used when transactions omit one.",
		Tags:          []string{"Reference"},
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(api, huma.Operation{
		OperationID: "list-categories",
		Method:      http.MethodGet,
		Path:        "/v1/categories",
		Summary:     "List master categories",
		Tags:        []string{"Reference"},
	}, h.list)
}

func categoryFromModel(c models.MasterCategory) Category {
	return Category{ID: c.ID.String(), Name: c.Name, Parent: c.Parent}
}

func (h *CategoriesHandler) create(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	category, err := h.ReferenceService.CreateCategory(ctx, actor, models.MasterCategory{
		Name:   strings.TrimSpace(input.Body.Name),
		Parent: strings.TrimSpace(input.Body.Parent),
	})
	if err != nil {
		return nil, shared.Error(err, "failed to create category")
	}
	return &CategoryOutput{Status: http.StatusCreated, Body: categoryFromModel(*category)}, nil
}

func (h *CategoriesHandler) list(ctx context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
	if _, err := shared.Principal(ctx); err != nil {
		return nil, err
	}
	categories, err := h.ReferenceService.ListCategories(ctx)
	if err != nil {
		return nil, shared.Error(err, "failed to list categories")
	}
	out := &ListCategoriesOutput{}
	out.Body.Categories = make([]Category, len(categories))
	for i, c := range categories {
		out.Body.Categories[i] = categoryFromModel(c)
	}
	return out, nil
}
