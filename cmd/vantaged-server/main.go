// Command vantaged-server runs the same console driver as vantaged but
// serves the command/response surface over HTTP instead of leaving
// dispatcher.Dispatcher to an in-process caller, using the teacher's
// gorilla/mux front-door pattern (internal/controllers/restserver).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrissnell/vantaged/internal/app"
	"github.com/chrissnell/vantaged/internal/log"
	"github.com/chrissnell/vantaged/internal/server"
	"github.com/chrissnell/vantaged/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "vantaged.yaml", "Path to YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug, 0); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig(*cfgFile)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, log.GetSugaredLogger())
	if err != nil {
		log.Errorf("failed to initialize application: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appErrCh := make(chan error, 1)
	go func() { appErrCh <- application.Run(ctx) }()

	httpServer := server.New(cfg.HTTPServer.Addr(), application.Dispatcher, log.GetSugaredLogger().Named("server"))
	go func() {
		log.Infof("HTTP command server listening on %s", cfg.HTTPServer.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	appDone := false
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-appErrCh:
		appDone = true
		if err != nil {
			log.Errorf("application error: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}

	cancel()
	if !appDone {
		<-appErrCh
	}
}
