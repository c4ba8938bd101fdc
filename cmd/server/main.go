// Command server runs the proofgate service: the verification gateway, the
// issuance controller, and the credential registry behind one HTTP listener,
// with an outbox publisher draining credential events to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"proofgate/internal/gateway"
	gatewayhandler "proofgate/internal/gateway/handler"
	gatewaymetrics "proofgate/internal/gateway/metrics"
	gwmodels "proofgate/internal/gateway/models"
	issuancehandler "proofgate/internal/issuance/handler"
	issuancemetrics "proofgate/internal/issuance/metrics"
	issuancesvc "proofgate/internal/issuance/service"
	"proofgate/internal/issuance/store/config"
	"proofgate/internal/issuance/store/receipt"
	jwttoken "proofgate/internal/jwt_token"
	platformconfig "proofgate/internal/platform/config"
	"proofgate/internal/platform/database"
	"proofgate/internal/platform/httpserver"
	"proofgate/internal/platform/kafka/producer"
	"proofgate/internal/platform/logger"
	platformredis "proofgate/internal/platform/redis"
	registryhandler "proofgate/internal/registry/handler"
	"proofgate/internal/registry/ledger"
	registrymetrics "proofgate/internal/registry/metrics"
	registrysvc "proofgate/internal/registry/service"
	"proofgate/internal/registry/store/credential"
	httptransport "proofgate/internal/transport/http"
	"proofgate/pkg/domain"
	"proofgate/pkg/platform/middleware/ratelimit"
	"proofgate/pkg/platform/outbox"
	outboxmetrics "proofgate/pkg/platform/outbox/metrics"
	outboxmemory "proofgate/pkg/platform/outbox/store/memory"
	outboxpostgres "proofgate/pkg/platform/outbox/store/postgres"
	"proofgate/pkg/platform/outbox/worker"
	"proofgate/pkg/platform/tracer"
	"proofgate/pkg/platform/tx"
)

// receiptStore is both the issuance-side cache and the gateway's read source.
type receiptStore interface {
	issuancesvc.ReceiptCache
	gatewayhandler.ReceiptSource
}

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := platformconfig.FromEnv()
	dbCfg := platformconfig.DatabaseFromEnv()
	redisCfg := platformconfig.RedisFromEnv()
	kafkaCfg := platformconfig.KafkaFromEnv()

	owner, err := parseOptionalAddress(cfg.OwnerAddress)
	if err != nil {
		return err
	}
	if owner.IsZero() {
		log.Warn("PROOFGATE_OWNER_ADDRESS is not set, configuration endpoints will refuse all callers")
	}
	controller, err := domain.ParseAddress(cfg.ControllerAddress)
	if err != nil {
		return err
	}

	// Storage. Without DATABASE_URL everything runs in memory, which is
	// enough for local development.
	pool, err := database.New(dbCfg)
	if err != nil {
		return err
	}

	var (
		credStore   ledger.Store
		configStore issuancesvc.ConfigStore
		outboxStore outbox.Store
		runner      tx.Runner
	)
	if pool != nil {
		defer pool.Close()
		credStore = credential.NewPostgres(pool.DB())
		configStore = config.NewPostgres(pool.DB())
		outboxStore = outboxpostgres.New(pool.DB())
		runner = tx.NewSQLRunner(pool.DB())
		log.Info("using postgres storage")
	} else {
		credStore = credential.NewInMemory()
		configStore = config.NewInMemory()
		outboxStore = outboxmemory.New()
		runner = tx.NewMemoryRunner()
		log.Warn("DATABASE_URL is not set, using in-memory storage")
	}

	redisClient, err := platformredis.New(redisCfg)
	if err != nil {
		return err
	}
	var (
		receipts receiptStore
		limiter  ratelimit.Store
	)
	if redisClient != nil {
		defer redisClient.Close()
		receipts = receipt.NewRedis(redisClient.Client, platformconfig.ReceiptCacheTTL)
		limiter = ratelimit.NewRedis(redisClient.Client)
	} else {
		receipts = receipt.NewInMemory()
		limiter = ratelimit.NewInMemory()
		log.Warn("REDIS_URL is not set, receipts and rate limits are kept in memory")
	}

	targets, err := trustTargets(cfg)
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	verifier := gateway.NewService(engine, targets, gatewaymetrics.New(), tracer.NewOTel(), log)

	regService := registrysvc.New(ledger.New(credStore), controller, registrymetrics.New(), log)

	issService := issuancesvc.New(issuancesvc.Config{
		Verifier:     verifier,
		Registry:     regService,
		ConfigStore:  configStore,
		Outbox:       outboxStore,
		ReceiptCache: receipts,
		Owner:        owner,
		Identity:     controller,
		Runner:       runner,
		Metrics:      issuancemetrics.New(),
		Tracer:       tracer.NewOTel(),
		Logger:       log,
	})

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "proofgate", "proofgate")

	health := map[string]httptransport.HealthChecker{}
	if pool != nil {
		health["database"] = pool.Health
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	var outboxWorker *worker.Worker
	if kafkaCfg.Brokers != "" {
		kafkaProducer, err := producer.New(producer.Config{
			Brokers:         kafkaCfg.Brokers,
			Acks:            kafkaCfg.Acks,
			Retries:         kafkaCfg.Retries,
			DeliveryTimeout: kafkaCfg.DeliveryTimeout,
		}, log)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close()

		outboxWorker = worker.New(outboxStore, kafkaProducer,
			worker.WithTopic(kafkaCfg.Topic),
			worker.WithMetrics(outboxmetrics.New()),
			worker.WithLogger(log),
		)
		health["kafka"] = func(ctx context.Context) error {
			if !kafkaProducer.Healthy(ctx) {
				return errors.New("kafka producer unhealthy")
			}
			return nil
		}
	} else {
		log.Warn("KAFKA_BROKERS is not set, credential events stay in the outbox")
	}

	router := httptransport.NewRouter(httptransport.Config{
		Registry:  registryhandler.New(regService, log),
		Gateway:   gatewayhandler.New(receipts, log),
		Issuance:  issuancehandler.New(issService, log),
		Extractor: jwtService,
		Limiter:   limiter,
		Health:    health,
		Logger:    log,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if outboxWorker != nil {
		outboxWorker.Start()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting proofgate", "addr", cfg.Addr, "engine", cfg.EngineMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if outboxWorker != nil {
			if err := outboxWorker.Stop(shutdownCtx); err != nil {
				log.Error("outbox worker shutdown failed", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func parseOptionalAddress(s string) (domain.Address, error) {
	if s == "" {
		return domain.ZeroAddress, nil
	}
	return domain.ParseAddress(s)
}

func trustTargets(cfg platformconfig.Server) (gwmodels.TrustTargets, error) {
	composition, err := parseOptionalAddress(cfg.CompositionTarget)
	if err != nil {
		return gwmodels.TrustTargets{}, err
	}
	sampling, err := parseOptionalAddress(cfg.SamplingTarget)
	if err != nil {
		return gwmodels.TrustTargets{}, err
	}
	return gwmodels.TrustTargets{Composition: composition, Sampling: sampling}, nil
}

func buildEngine(cfg platformconfig.Server) (gateway.Engine, error) {
	switch cfg.EngineMode {
	case "static":
		return gateway.NewStaticEngine([]byte(cfg.StaticProof), uint32(gwmodels.DefaultSettings().HasherBitLength)), nil
	case "http":
		if cfg.EngineURL == "" {
			return nil, errors.New("PROOFGATE_ENGINE_URL is required when PROOFGATE_ENGINE=http")
		}
		return gateway.NewHTTPEngine(cfg.EngineURL), nil
	default:
		return nil, errors.New("unknown PROOFGATE_ENGINE mode: " + cfg.EngineMode)
	}
}
