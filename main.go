package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"roomchat/chat"
)

const shutdownTimeout = 10 * time.Second

func main() {
	issueAdminToken := flag.Bool("issue-admin-token", false, "print a token for the admin API and exit")
	flag.Parse()

	cfg := MustLoadConfig()
	SetupLogger(cfg)

	if *issueAdminToken {
		if cfg.AdminJWTSecret == "" {
			log.Fatal().Msg("ADMIN_JWT_SECRET is not provided!")
		}
		token, err := NewAdminJWT(cfg.AdminJWTSecret).GenerateToken(time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("Could not sign admin token")
		}
		fmt.Println(token)
		return
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hub := chat.NewHub(chat.NewRegistry(), chat.NewStore(), chat.NewMetrics(metricsRegistry), log.With().Str("component", "hub").Logger())

	var clients sync.WaitGroup
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewHTTPServer(hub, cfg, &clients, promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		LogStartedServer(cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	LogShuttingDown()
	shutdown(server, hub, &clients)
}

// shutdown stops accepting requests, then closes every websocket so each
// one leaves its room, and waits for the handlers to finish.
func shutdown(server *http.Server, hub *chat.Hub, clients *sync.WaitGroup) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown")
	}

	hub.CloseAll()
	done := make(chan struct{})
	go func() {
		clients.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("Timed out waiting for websocket clients")
	}
}
