package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/formdesk/intake/analytics"
	"github.com/formdesk/intake/app"
	"github.com/formdesk/intake/config"
	"github.com/formdesk/intake/database"
	"github.com/formdesk/intake/log"
	"github.com/formdesk/intake/routes"
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

	app := app.App{
		DB:        db,
		Config:    cfg,
		Analytics: analytics.NewTracker(analytics.NewDBSink(db)),
		Sink:      app.LogSubmissionSink{},
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
