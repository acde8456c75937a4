package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"lavka/config"
	"lavka/internal/accounts"
	"lavka/internal/admin"
	"lavka/internal/catalog"
	"lavka/internal/db"
	"lavka/internal/health"
	"lavka/internal/logs"
	"lavka/internal/middleware"
	"lavka/internal/models"
	"lavka/internal/repo"
	"lavka/internal/token"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d

	if err := a.db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Category{},
		&models.Product{},
	); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	users := repo.NewUserStore(a.db)
	roles := repo.NewRoleStore(a.db)
	products := repo.NewProductStore(a.db)
	categories := repo.NewCategoryStore(a.db)

	// Секрет проверен в config.validate: пустым сюда не попадает.
	issuer := token.NewIssuer(a.cfg.API.SecretKey)

	/* 3) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
		middleware.CORS,
	)

	/* 4) Health */
	health.RegisterRoutes(a.Router, a.db)

	/* 5) API */
	accounts.RegisterRoutes(a.Router, accounts.NewHandler(users, roles, issuer), issuer)
	catalog.RegisterRoutes(a.Router, catalog.NewHandler(products, categories, a.cfg.Uploads.Dir), issuer)

	/* 6) Картинки товаров + админка */
	a.Router.PathPrefix(catalog.StaticPrefix).Handler(
		http.StripPrefix(catalog.StaticPrefix, http.FileServer(http.Dir(a.cfg.Uploads.Dir))))
	admin.Attach(a.Router, admin.Dependencies{DB: a.db, CFG: a.cfg})

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}
