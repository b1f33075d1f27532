package app

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockgrid/stockgrid/internal/inventory"
	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/products"
	"github.com/stockgrid/stockgrid/internal/shared"
)

// requestKeyTTL bounds how long a submitted transfer form stays claimed.
const requestKeyTTL = 24 * time.Hour

// Services bundles the domain services shared by the server, the worker and
// the command line tools.
type Services struct {
	Audit     *shared.AuditLogger
	Guard     *shared.RequestGuard
	Locations *locations.Service
	Products  *products.Service
	Inventory *inventory.Service
}

// NewServices wires repositories and services over a pool and a redis
// client. observer may be nil.
func NewServices(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, observer inventory.Observer, logger *slog.Logger) *Services {
	audit := shared.NewAuditLogger(pool)
	guard := shared.NewRequestGuard(redisClient, requestKeyTTL)

	productCfg := products.ServiceConfig{}
	if cfg != nil {
		productCfg.MaxBarcodeAttempts = cfg.BarcodeMaxAttempts
		productCfg.DefaultPageSize = cfg.PageSize
	}

	ledger := inventory.NewService(inventory.NewRepository(pool), guard, observer, logger)
	return &Services{
		Audit:     audit,
		Guard:     guard,
		Locations: locations.NewService(locations.NewRepository(pool), ledger, audit, guard, logger),
		Products:  products.NewService(products.NewRepository(pool), ledger, productCfg, logger),
		Inventory: ledger,
	}
}
