package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/phanstudios/what-the-burn/adapters/ledgerstore"
	"github.com/phanstudios/what-the-burn/adapters/store"
	"github.com/phanstudios/what-the-burn/adapters/tokenizer"
	"github.com/phanstudios/what-the-burn/internal/config"
	"github.com/phanstudios/what-the-burn/internal/metrics"
	"github.com/phanstudios/what-the-burn/ports"
	"github.com/phanstudios/what-the-burn/service"
	transport "github.com/phanstudios/what-the-burn/transport/http"
)

func runServe(log zerolog.Logger) {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Credential signatures only need to outlive the process: sessions are
	// re-established with a fresh challenge after a restart.
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to generate signing key")
	}

	var nonces ports.CredentialStore
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStoreFromURL(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		nonces = redisStore
	} else {
		nonces = store.NewMemoryStore()
	}

	db, err := ledgerstore.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open ledger database")
	}
	defer db.Close()

	auth := service.NewLedgerAuth(tokenizer.NewJWTTokenizer(signKey), nonces, log)
	handlers := transport.NewLedgerHandlers(auth, db, log)

	metrics.Register()
	router := transport.SetupRouter(handlers, transport.AuthMiddleware(auth), cfg.AdminAddresses)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("addr", cfg.ListenAddr).Msg("ledger service listening")
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
