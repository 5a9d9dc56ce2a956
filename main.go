package main

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/branchsurvey/server/app"
	"github.com/branchsurvey/server/config"
	"github.com/branchsurvey/server/database"
	"github.com/branchsurvey/server/engine"
	"github.com/branchsurvey/server/httpx"
	"github.com/branchsurvey/server/log"
	"github.com/branchsurvey/server/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	catalog := engine.NewCatalog()
	resolver := engine.NewResolver(catalog)

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Catalog:      catalog,
		Resolver:     resolver,
		Navigator:    engine.NewNavigator(resolver),
		Reconciler:   engine.NewReconciler(resolver),
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
