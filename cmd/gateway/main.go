package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/edvin/credgate/internal/api"
	"github.com/edvin/credgate/internal/audit"
	"github.com/edvin/credgate/internal/config"
	"github.com/edvin/credgate/internal/core"
	"github.com/edvin/credgate/internal/db"
	"github.com/edvin/credgate/internal/gateway"
	"github.com/edvin/credgate/internal/logging"
	"github.com/edvin/credgate/internal/metrics"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "mint-credential" {
		mintCredential(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	policy, err := gateway.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load gateway policy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to credential store")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	services := core.NewServices(pool)

	var archivers []audit.Archiver
	if cfg.AuditArchiveBucket != "" {
		archiver := audit.NewS3Archiver(audit.S3ArchiverConfig{
			Bucket:    cfg.AuditArchiveBucket,
			Endpoint:  cfg.AuditArchiveEndpoint,
			AccessKey: cfg.AuditArchiveKey,
			SecretKey: cfg.AuditArchiveSecret,
		}, logger)
		defer archiver.Close()
		archivers = append(archivers, archiver)
		logger.Info().Str("bucket", cfg.AuditArchiveBucket).Msg("audit archiving enabled")
	}

	sink := audit.NewSink(services.Audit, logger, archivers...)
	defer sink.Close()

	cache := gateway.NewCache(policy.CacheTTL())
	defer cache.Close()
	limiter := gateway.NewRateLimiter()
	defer limiter.Close()

	dispatcher := gateway.NewDispatcher(
		gateway.NewValidator(policy, services.Credential),
		gateway.NewResolver(services.Tenant, services.User, policy, gateway.StaticScorer{}),
		gateway.NewLifecycleManager(services.Credential, policy, cache, sink, logger),
		cache, limiter, policy, sink, logger, cfg.StoreTimeout,
	)

	srv := api.NewServer(logger, pool, services, dispatcher, sink)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Str("validation_mode", policy.ValidationMode).Msg("starting gateway")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gateway")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

// mintCredential bootstraps a credential directly against the store,
// bypassing the HTTP surface. Used to create the first ADMIN-tier
// credential for a fresh deployment.
func mintCredential(args []string) {
	fs := flag.NewFlagSet("mint-credential", flag.ExitOnError)
	tenantID := fs.String("tenant", "", "Tenant ID the credential belongs to (required)")
	family := fs.String("family", "live", "Token family: live or test")
	scopes := fs.String("scopes", "platform:admin", "Comma-separated scope list")
	ttlDays := fs.Int("ttl-days", 30, "Validity window in days")
	fs.Parse(args)

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "error: --tenant is required")
		fmt.Fprintln(os.Stderr, "usage: gateway mint-credential --tenant <id> [--family live|test] [--scopes a:b,c:d] [--ttl-days n]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to credential store: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewCredentialService(pool)
	rec, raw, err := svc.Issue(ctx, core.IssueParams{
		TenantID: *tenantID,
		Family:   *family,
		Scopes:   strings.Split(*scopes, ","),
		TTL:      time.Duration(*ttlDays) * 24 * time.Hour,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to mint credential: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Credential minted successfully.\n\n")
	fmt.Printf("  ID:       %s\n", rec.ID)
	fmt.Printf("  Tenant:   %s\n", rec.TenantID)
	fmt.Printf("  Scopes:   %s\n", strings.Join(rec.Scopes, ", "))
	fmt.Printf("  Expires:  %s\n", rec.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("  Token:    %s\n\n", raw)
	fmt.Printf("Save this token - it will not be shown again.\n")
}
