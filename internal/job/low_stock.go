package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agrofarm/market/internal/repository"
)

// LowStockJob reports catalog entries running low so staff can restock.
type LowStockJob struct {
	Products  repository.ProductRepository
	Threshold int64
	Logger    *slog.Logger
}

// NewLowStockJob constructs the low stock sweep.
func NewLowStockJob(products repository.ProductRepository, threshold int64, logger *slog.Logger) *LowStockJob {
	if threshold <= 0 {
		threshold = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockJob{Products: products, Threshold: threshold, Logger: logger}
}

func (j *LowStockJob) Name() string { return "catalog.low_stock" }

func (j *LowStockJob) Run(ctx context.Context) error {
	if j.Products == nil {
		return fmt.Errorf("low stock job dependencies not configured")
	}
	products, err := j.Products.ListBelowStock(ctx, j.Threshold)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		j.Logger.Debug("no products below stock threshold", "threshold", j.Threshold)
		return nil
	}
	for _, p := range products {
		j.Logger.Warn("product low on stock",
			"product_id", p.ID,
			"name", p.Name,
			"stock", p.StockQuantity,
			"threshold", j.Threshold)
	}
	return nil
}
