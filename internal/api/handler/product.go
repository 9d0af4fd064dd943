package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agrofarm/market/internal/repository"
	"github.com/agrofarm/market/internal/service"
)

// ProductHandler exposes the catalog endpoints. Reads are public;
// writes require an admin and are routed behind the admin guard.
type ProductHandler struct {
	products service.ProductService
	uploads  service.UploadService
}

// NewProductHandler constructs the catalog endpoints.
func NewProductHandler(products service.ProductService, uploads service.UploadService) *ProductHandler {
	return &ProductHandler{products: products, uploads: uploads}
}

type productRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	StockQuantity int64  `json:"stock_quantity"`
	Category      string `json:"category"`
	Unit          string `json:"unit"`
}

type productUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Category    *string `json:"category"`
	Unit        *string `json:"unit"`
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := service.ProductQuery{Page: pageParams(r)}
	q := r.URL.Query()

	query.Filter.Search = strings.TrimSpace(q.Get("search"))
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category := repository.ProductCategory(raw)
		if !repository.ValidCategory(category) {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		query.Filter.Category = &category
	}
	if raw := q.Get("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_price")
			return
		}
		query.Filter.MinPrice = &price
	}
	if raw := q.Get("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		query.Filter.MaxPrice = &price
	}
	if raw := q.Get("in_stock"); raw != "" {
		inStock := raw == "true" || raw == "1"
		query.Filter.InStock = &inStock
	}

	page, err := h.products.List(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Get handles GET /api/v1/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Categories handles GET /api/v1/products/categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"categories": h.products.Categories()})
}

// Create handles POST /api/v1/admin/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	product, err := h.products.Create(r.Context(), actorFrom(r), service.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         price,
		StockQuantity: req.StockQuantity,
		Category:      repository.ProductCategory(req.Category),
		Unit:          req.Unit,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Update handles PATCH /api/v1/admin/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req productUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := service.ProductUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid price")
			return
		}
		input.Price = &price
	}
	if req.Category != nil {
		category := repository.ProductCategory(*req.Category)
		input.Category = &category
	}

	product, err := h.products.Update(r.Context(), actorFrom(r), id, input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/v1/admin/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), actorFrom(r), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// UploadImage handles POST /api/v1/admin/products/{id}/image.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	product, err := h.uploads.SaveProductImage(r.Context(), actorFrom(r), id, header.Filename, header.Size, file)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
