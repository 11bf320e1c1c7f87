// Command seed-db prepares a database for local development: it runs
// migrations, creates an admin account, and loads a starter catalog from a
// JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tooswasher/storefront/internal/domain/category"
	"github.com/tooswasher/storefront/internal/domain/option"
	"github.com/tooswasher/storefront/internal/domain/product"
	"github.com/tooswasher/storefront/internal/domain/user"
	"github.com/tooswasher/storefront/internal/postgres"
)

type catalogJSON struct {
	Categories []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"categories"`
	Products []struct {
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		Price        decimal.Decimal `json:"price"`
		Stock        int             `json:"stock"`
		Image        string          `json:"image"`
		MinimumOrder int             `json:"minimum_order"`
		Rate         float64         `json:"rate"`
		Category     string          `json:"category"`
	} `json:"products"`
}

func main() {
	var (
		databaseURL   string
		catalogFile   string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or STOREFRONT_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STOREFRONT_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or STOREFRONT_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedAdmin(ctx, postgres.NewUserRepository(pool), adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedOptions(ctx, postgres.NewOptionRepository(pool)); err != nil {
		return errors.Wrap(err, "seed options")
	}

	return nil
}

func seedAdmin(ctx context.Context, users user.Repository, password string) error {
	if _, err := users.GetByUsername(ctx, "admin"); err == nil {
		slog.Info("admin account already exists, skipping")
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	admin := &user.User{
		Username:       "admin",
		Email:          "admin@localhost",
		HashedPassword: hash,
		Name:           "Admin",
		IsActive:       true,
		Role:           user.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	slog.Info("created admin account", slog.Int64("id", admin.ID))
	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	categories := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)

	categoryIDs := make(map[string]int64, len(catalog.Categories))
	for _, c := range catalog.Categories {
		created := &category.Category{Name: c.Name, Description: c.Description}
		err := categories.Create(ctx, created)
		switch {
		case errors.Is(err, category.ErrNameTaken):
			existing, err := categories.GetByName(ctx, c.Name)
			if err != nil {
				return errors.Wrapf(err, "get category %s", c.Name)
			}
			categoryIDs[c.Name] = existing.ID
			continue
		case err != nil:
			return errors.Wrapf(err, "create category %s", c.Name)
		}
		categoryIDs[c.Name] = created.ID
		slog.Info("created category", slog.String("name", c.Name))
	}

	slog.Info("creating products", slog.Int("count", len(catalog.Products)))

	for _, p := range catalog.Products {
		minOrder := p.MinimumOrder
		if minOrder <= 0 {
			minOrder = 1
		}
		created := &product.Product{
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			Stock:        p.Stock,
			Image:        p.Image,
			MinimumOrder: minOrder,
			Rate:         p.Rate,
		}
		if id, ok := categoryIDs[p.Category]; ok {
			created.CategoryID = &id
		}
		if err := products.Create(ctx, created); err != nil {
			return errors.Wrapf(err, "create product %s", p.Name)
		}
		slog.Info("created product", slog.String("name", p.Name))
	}

	return nil
}

func seedOptions(ctx context.Context, options option.Repository) error {
	defaults := []option.Option{
		{Name: "site_title", Value: "Storefront"},
		{Name: "currency", Value: "USD"},
	}
	for _, o := range defaults {
		o := o
		if err := options.Set(ctx, &o); err != nil {
			return errors.Wrapf(err, "set option %s", o.Name)
		}
		slog.Info("set option", slog.String("name", o.Name))
	}
	return nil
}
