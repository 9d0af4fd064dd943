package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agrofarm/market/internal/repository"
)

// seedFile is the YAML shape consumed by the seed command.
type seedFile struct {
	Admin *struct {
		Email    string `yaml:"email"`
		FullName string `yaml:"full_name"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Products []struct {
		Name          string `yaml:"name"`
		Description   string `yaml:"description"`
		Price         string `yaml:"price"`
		StockQuantity int64  `yaml:"stock_quantity"`
		Category      string `yaml:"category"`
		Unit          string `yaml:"unit"`
	} `yaml:"products"`
}

func init() {
	var seedPath string
	var seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load fixture data from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, closeDB, err := getStore()
			if err != nil {
				return err
			}
			defer closeDB()

			raw, err := os.ReadFile(seedPath)
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var fixtures seedFile
			if err := yaml.Unmarshal(raw, &fixtures); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}

			ctx := context.Background()

			if fixtures.Admin != nil {
				err := runUserCreate(store, cfg, fixtures.Admin.Email, fixtures.Admin.FullName, fixtures.Admin.Password, true)
				if err != nil && !errors.Is(err, repository.ErrEmailExists) {
					return err
				}
				if err != nil {
					fmt.Printf("Admin %s already exists, skipping.\n", fixtures.Admin.Email)
				}
			}

			for _, p := range fixtures.Products {
				price, err := decimal.NewFromString(p.Price)
				if err != nil {
					return fmt.Errorf("product %q: invalid price %q", p.Name, p.Price)
				}
				category := repository.ProductCategory(p.Category)
				if !repository.ValidCategory(category) {
					return fmt.Errorf("product %q: unknown category %q", p.Name, p.Category)
				}
				unit := p.Unit
				if unit == "" {
					unit = "kg"
				}
				now := time.Now().Unix()
				if _, err := store.Products().Create(ctx, &repository.Product{
					Name:          p.Name,
					Description:   p.Description,
					Price:         price,
					StockQuantity: p.StockQuantity,
					Category:      category,
					Unit:          unit,
					CreatedAt:     now,
					UpdatedAt:     now,
				}); err != nil {
					return fmt.Errorf("create product %q: %w", p.Name, err)
				}
			}

			fmt.Printf("Seeded %d products.\n", len(fixtures.Products))
			return nil
		},
	}
	seedCmd.Flags().StringVar(&seedPath, "file", "seed.yaml", "Seed fixture file")
	rootCmd.AddCommand(seedCmd)
}
