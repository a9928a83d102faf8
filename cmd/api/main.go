package main

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MicroShop/internal/app"
	"MicroShop/internal/auth"
	"MicroShop/internal/catalog"
	"MicroShop/internal/config"
	"MicroShop/internal/kv"
	"MicroShop/internal/orders"
	"MicroShop/pkg/kit"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := kit.NewLogger(cfg.ServiceName)
	defer func() { _ = log.Sync() }()

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	store := kv.NewRedis(kv.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer store.Close()

	a := app.New(app.Deps{
		Log:      log,
		Service:  cfg.ServiceName,
		Registry: prometheus.NewRegistry(),

		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,

		Users:    auth.NewPostgresStore(db),
		Products: catalog.NewPostgresStore(db),
		Orders:   orders.NewPostgresStore(db),
		KV:       store,
	})

	if err := kit.RunHTTPServer(cfg.HTTPAddr, a.Handler, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
