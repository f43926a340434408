package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JSayWhat/go-auth-api/internal/api/http/cookie"
	"github.com/JSayWhat/go-auth-api/internal/api/http/router"
	httpServer "github.com/JSayWhat/go-auth-api/internal/api/http/server"
	"github.com/JSayWhat/go-auth-api/internal/config"
	"github.com/JSayWhat/go-auth-api/internal/fieldcrypto"
	"github.com/JSayWhat/go-auth-api/internal/keystore"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
	"github.com/JSayWhat/go-auth-api/internal/repository/postgres"
	"github.com/JSayWhat/go-auth-api/internal/service"
	"github.com/JSayWhat/go-auth-api/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)

	keyRing, err := makeKeyRing(ctx, cfg, db)
	if err != nil {
		logger.Fatal("failed to initialize key ring", "error", err)
	}

	keys := keystore.New(keyRing, cfg.Keys.MaxCount, logger)
	if err := keys.Initialize(ctx); err != nil {
		logger.Fatal("failed to initialize key store", "error", err)
	}

	lookupKey, err := hex.DecodeString(cfg.Lookup.EncryptionKey)
	if err != nil {
		logger.Fatal("failed to decode lookup encryption key", "error", err)
	}
	lookupCipher, err := fieldcrypto.NewDeterministicCipher(lookupKey)
	if err != nil {
		logger.Fatal("failed to create lookup cipher", "error", err)
	}
	fieldCipher := fieldcrypto.NewFieldCipher(keys)

	tokenManager := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokenService := service.NewTokenService(tokenManager, logger)
	authService := service.NewAuth(userRepo, sessionRepo, tokenService, lookupCipher, logger)
	userService := service.NewUsers(userRepo, fieldCipher, lookupCipher, logger)

	if err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal("failed to bootstrap admin", "error", err)
	}

	sweeper := service.NewSweeper(sessionRepo, cfg.Session.SweepInterval, cfg.Session.IdleTimeout, logger)
	sweeper.Start(ctx)

	cookieOpts := cookie.Options{
		Secure:   cfg.Cookie.Secure,
		SameSite: cookie.ParseSameSite(cfg.Cookie.SameSite),
		MaxAge:   cfg.Cookie.MaxAge,
	}

	r := router.New(authService, userService, keys, cookieOpts, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = httpServer.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = httpServer.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}
	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.Error("error during sweeper shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// makeKeyRing picks the persistence backend for the encryption key ring.
func makeKeyRing(ctx context.Context, cfg *config.Config, db *postgres.Connection) (model.KeyRing, error) {
	switch cfg.Keys.Backend {
	case "postgres":
		return postgres.NewKeyRepository(db), nil
	case "file":
		return keystore.NewFileRing(cfg.Keys.FilePath), nil
	case "minio":
		client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return keystore.NewMinioRing(ctx, client, cfg.Minio.Bucket, cfg.Minio.Object)
	default:
		return nil, fmt.Errorf("unknown key ring backend %q", cfg.Keys.Backend)
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
