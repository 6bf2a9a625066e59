package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/txtalert/platform/internal/clinics"
	"github.com/txtalert/platform/internal/config"
	"github.com/txtalert/platform/internal/enrollment"
	"github.com/txtalert/platform/internal/gateway"
	"github.com/txtalert/platform/internal/importer"
	"github.com/txtalert/platform/internal/patients"
	"github.com/txtalert/platform/internal/reminders"
	"github.com/txtalert/platform/internal/visits"
	"github.com/txtalert/platform/internal/worker/importworker"
	"github.com/txtalert/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" || cfg.CaseAPIBaseURL == "" {
		logger.Error("import worker requires DATABASE_URL and CASE_API_BASE_URL")
		os.Exit(1)
	}
	if len(cfg.ImportSources) == 0 {
		logger.Error("import worker requires IMPORT_SOURCES")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	caseClient, err := importer.NewClient(importer.ClientConfig{
		BaseURL:    cfg.CaseAPIBaseURL,
		Token:      cfg.CaseAPIToken,
		Timeout:    cfg.CaseAPITimeout,
		MaxRetries: cfg.CaseAPIMaxRetries,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create case api client", "error", err)
		os.Exit(1)
	}

	patientStore := patients.NewPostgresStore(pool)
	visitStore := visits.NewPostgresStore(pool)
	clinicStore := clinics.NewPostgresStore(pool)
	resolver := patients.NewResolver(patientStore, logger)
	reconciler := visits.NewReconciler(visitStore, logger)

	orchestrator := importer.NewOrchestrator(importer.Config{
		VisitSource:   caseClient,
		PatientSource: caseClient,
		Resolver:      resolver,
		Reconciler:    reconciler,
		Clinics:       clinicStore,
		Logger:        logger,
	})

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}

	runner := importworker.NewRunner(orchestrator, cfg.ImportSources, logger).
		WithInterval(cfg.ImportInterval).
		WithWorksheets(worksheetImports(cfg, caseClient, redisClient, importer.SpreadsheetConfig{
			Source:     caseClient,
			Resolver:   resolver,
			Reconciler: reconciler,
			Visits:     visitStore,
			Clinics:    clinicStore,
			Logger:     logger,
		}))
	go runner.Run(ctx)

	var smsGateway gateway.Gateway
	if cfg.GatewayURL != "" {
		smsGateway = gateway.NewOperaGateway(gateway.OperaConfig{
			URL:       cfg.GatewayURL,
			ServiceID: cfg.GatewayServiceID,
			Password:  cfg.GatewayPassword,
			Channel:   cfg.GatewayChannel,
		}, logger)
	} else {
		logger.Warn("no GATEWAY_URL configured, reminders use the dummy gateway")
		smsGateway = gateway.NewDummy()
	}

	reminderService := reminders.NewService(reminders.Config{
		Lister:  reminders.NewPostgresLister(pool),
		Gateway: smsGateway,
		Sink:    gateway.NewStore(pool),
		Logger:  logger,
	})
	go runReminderLoop(ctx, reminderService, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("import worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}

// worksheetImports builds one spreadsheet importer per configured document.
// Each document gets its own enrollment cache because the authoritative
// check is document-scoped; the cache is Redis-backed when Redis is
// configured so concurrent workers share answers.
func worksheetImports(cfg *config.Config, src importer.WorksheetSource, redisClient *redis.Client, base importer.SpreadsheetConfig) []importworker.WorksheetImport {
	imports := make([]importworker.WorksheetImport, 0, len(cfg.WorksheetDocs))
	for _, doc := range cfg.WorksheetDocs {
		checker := enrollment.CheckerFunc(func(ctx context.Context, fileNo string) (bool, error) {
			now := time.Now().UTC()
			return src.CheckEnrollment(ctx, doc, fileNo, now.AddDate(0, -1, 0), now.AddDate(0, 1, 0))
		})

		sheetCfg := base
		if redisClient != nil {
			sheetCfg.Enrollment = enrollment.NewRedisCache(redisClient, checker, cfg.EnrollmentTTL)
		} else {
			sheetCfg.Enrollment = enrollment.NewMemoryCache(checker, cfg.EnrollmentTTL)
		}
		imports = append(imports, importworker.WorksheetImport{
			Doc:      doc,
			Importer: importer.NewSpreadsheetImporter(sheetCfg),
		})
	}
	return imports
}

// runReminderLoop sends tomorrow's reminders once per day.
func runReminderLoop(ctx context.Context, svc *reminders.Service, logger *logging.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		tomorrow := time.Now().UTC().AddDate(0, 0, 1)
		day := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
		if _, err := svc.SendDue(ctx, day); err != nil {
			logger.Error("reminder run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
