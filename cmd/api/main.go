package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account"
	accountrepo "github.com/ovaphlow/pitchfork/service-community-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/house"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/utilities"
)

func main() {
	// best-effort: real environment variables win when no .env exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()
	sugar.Infow("starting service-community", "env", cfg.Environment, "addr", cfg.HTTPAddr)

	if err := utilities.InitSnowflake(cfg.SnowflakeNode); err != nil {
		sugar.Warnw("invalid snowflake node, using 1", "node", cfg.SnowflakeNode, "err", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db.DB); err != nil {
		sugar.Fatalf("migrate: %v", err)
	}

	hasher := account.BcryptHasher{Cost: cfg.BcryptCost}
	if cfg.SuperAdminEmail != "" {
		sa := account.SuperAdmin{Email: cfg.SuperAdminEmail, Password: cfg.SuperAdminPassword, FullName: cfg.SuperAdminName}
		if err := account.EnsureSuperAdmin(ctx, db, hasher, sa, sugar); err != nil {
			sugar.Fatalf("bootstrap super_admin: %v", err)
		}
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	accounts := accountrepo.NewAccountRepo(db)

	accountSvc := account.NewService(accounts, accountrepo.NewSessionRepo(db), tokens, hasher)
	accountSvc.MaxFailed = cfg.LoginMaxFailed
	accountSvc.LockDuration = time.Duration(cfg.LoginLockMinutes) * time.Minute
	accountSvc.RefreshTTL = cfg.RefreshTokenTTL

	engine := workflow.NewEngine(store.NewPostgres(db), sugar,
		workflow.NewRegistration(hasher),
		workflow.InfoEdit{},
		workflow.Deactivation{},
		workflow.Reactivation{},
		workflow.RoleChange{},
	)

	handler := router.RegisterRoutes(router.Deps{
		Logger:   sugar,
		DB:       db,
		Tokens:   tokens,
		Loader:   accounts,
		Accounts: account.NewHandler(accountSvc, sugar),
		Houses:   house.NewHandler(house.NewService(db), sugar),
		Requests: workflow.NewHandler(engine, sugar),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}
