package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/agrofarm/market/internal/cache"
	"github.com/agrofarm/market/internal/repository"
)

// ProductService manages the catalog. Writes are admin only; stock is
// owned by the inventory ledger and cannot be set through Update.
type ProductService interface {
	Create(ctx context.Context, actor Actor, input ProductInput) (*ProductView, error)
	Get(ctx context.Context, id int64) (*ProductView, error)
	List(ctx context.Context, query ProductQuery) (*ProductPage, error)
	Update(ctx context.Context, actor Actor, id int64, input ProductUpdateInput) (*ProductView, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	AttachImage(ctx context.Context, actor Actor, id int64, imagePath string) (*ProductView, error)
	Categories() []repository.ProductCategory
}

// ProductInput is the payload for catalog creation.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int64
	Category      repository.ProductCategory
	Unit          string
}

// ProductUpdateInput carries optional field changes. Nil fields are
// left untouched.
type ProductUpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *repository.ProductCategory
	Unit        *string
}

// ProductQuery combines catalog filters with pagination.
type ProductQuery struct {
	Filter repository.ProductFilter
	Page   repository.PageParams
}

// ProductView is the external shape of a catalog entry.
type ProductView struct {
	ID            int64                      `json:"id"`
	Name          string                     `json:"name"`
	Description   string                     `json:"description"`
	Price         string                     `json:"price"`
	StockQuantity int64                      `json:"stock_quantity"`
	Category      repository.ProductCategory `json:"category"`
	Unit          string                     `json:"unit"`
	ImageURL      string                     `json:"image_url,omitempty"`
	CreatedAt     int64                      `json:"created_at"`
	UpdatedAt     int64                      `json:"updated_at"`
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Products []ProductView `json:"products"`
	Total    int64         `json:"total"`
	Skip     int64         `json:"skip"`
	Limit    int64         `json:"limit"`
}

const (
	productCacheTTL = 2 * time.Minute
	listCacheTTL    = 5 * time.Minute
	listKeyPrefix   = "list"
)

type productService struct {
	products  repository.ProductRepository
	cache     cache.Store
	sanitizer *bluemonday.Policy
}

// NewProductService wires the catalog repository and its read cache.
func NewProductService(products repository.ProductRepository, cacheStore cache.Store) ProductService {
	var c cache.Store
	if cacheStore != nil {
		c = cacheStore.Namespace("product")
	}
	return &productService{
		products:  products,
		cache:     c,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *productService) Create(ctx context.Context, actor Actor, input ProductInput) (*ProductView, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAuthorized
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if input.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	if !repository.ValidCategory(input.Category) {
		return nil, ErrInvalidCategory
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "kg"
	}

	product, err := s.products.Create(ctx, &repository.Product{
		Name:          name,
		Description:   s.sanitizer.Sanitize(input.Description),
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		Category:      input.Category,
		Unit:          unit,
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	s.invalidateLists(ctx)
	view := productView(product)
	return &view, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*ProductView, error) {
	if s.cache != nil {
		var cached ProductView
		if ok, err := s.cache.GetJSON(ctx, cacheKey(id), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	view := productView(product)
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey(id), view, productCacheTTL)
	}
	return &view, nil
}

func (s *productService) List(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	page := query.Page.Normalize()
	key := listCacheKey(query.Filter, page)
	if s.cache != nil {
		var cached ProductPage
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	products, err := s.products.Search(ctx, query.Filter, page)
	if err != nil {
		return nil, wrapStorage(err)
	}
	total, err := s.products.CountFiltered(ctx, query.Filter)
	if err != nil {
		return nil, wrapStorage(err)
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p))
	}
	result := &ProductPage{Products: views, Total: total, Skip: page.Skip, Limit: page.Limit}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, result, listCacheTTL)
	}
	return result, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id int64, input ProductUpdateInput) (*ProductView, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAuthorized
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		if !repository.ValidCategory(*input.Category) {
			return nil, ErrInvalidCategory
		}
		product.Category = *input.Category
	}
	if input.Unit != nil {
		product.Unit = strings.TrimSpace(*input.Unit)
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, wrapStorage(err)
	}
	s.invalidate(ctx, id)
	view := productView(product)
	return &view, nil
}

func (s *productService) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrNotAuthorized
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return wrapStorage(err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *productService) AttachImage(ctx context.Context, actor Actor, id int64, imagePath string) (*ProductView, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAuthorized
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStorage(err)
	}
	product.ImagePath = imagePath
	if err := s.products.Update(ctx, product); err != nil {
		return nil, wrapStorage(err)
	}
	s.invalidate(ctx, id)
	view := productView(product)
	return &view, nil
}

func (s *productService) Categories() []repository.ProductCategory {
	return repository.Categories()
}

func (s *productService) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		s.cache.Delete(ctx, cacheKey(id))
	}
	s.invalidateLists(ctx)
}

func (s *productService) invalidateLists(ctx context.Context) {
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, listKeyPrefix)
	}
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// listCacheKey derives a stable key from the filter and page so each
// distinct query caches independently.
func listCacheKey(filter repository.ProductFilter, page repository.PageParams) string {
	var b strings.Builder
	b.WriteString(listKeyPrefix)
	b.WriteString(":q=")
	b.WriteString(filter.Search)
	if filter.Category != nil {
		b.WriteString(":c=")
		b.WriteString(string(*filter.Category))
	}
	if filter.MinPrice != nil {
		b.WriteString(":min=")
		b.WriteString(filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		b.WriteString(":max=")
		b.WriteString(filter.MaxPrice.String())
	}
	if filter.InStock != nil {
		b.WriteString(":stock=")
		b.WriteString(strconv.FormatBool(*filter.InStock))
	}
	b.WriteString(":skip=")
	b.WriteString(strconv.FormatInt(page.Skip, 10))
	b.WriteString(":limit=")
	b.WriteString(strconv.FormatInt(page.Limit, 10))
	return b.String()
}

func productView(p *repository.Product) ProductView {
	view := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.String(),
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		Unit:          p.Unit,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.ImagePath != "" {
		view.ImageURL = "/uploads/products/" + p.ImagePath
	}
	return view
}
