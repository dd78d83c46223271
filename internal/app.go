package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	geocoder_adapter "import-claim-service/internal/adapters/geocoder"
	logger_adapter "import-claim-service/internal/adapters/logger"
	"import-claim-service/internal/adapters/mtsource"
	postgres_adapter "import-claim-service/internal/adapters/postgres"
	rabbitmq_adapter "import-claim-service/internal/adapters/rabbitmq"
	"import-claim-service/internal/adapters/rest"
	"import-claim-service/internal/adapters/spreadsheet"
	"import-claim-service/internal/configs"
	"import-claim-service/internal/constants"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/normalizer"
	"import-claim-service/internal/core/port"
	"import-claim-service/internal/core/usecase"
	fluentlogger "import-claim-service/pkg/fluent_logger"
	"import-claim-service/pkg/postgres"
	"import-claim-service/pkg/rabbitmq/rabbitmq_common"
	"import-claim-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	dbPool        *pgxpool.Pool
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	logger        port.LoggerPort

	apiServer *rest.Server
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	var (
		connManager   *rabbitmq_common.ConnectionManager
		eventProducer *rabbitmq_producer.Publisher
	)

	if appConfig.RabbitMQ.Enabled {
		connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
		connManager, err = rabbitmq_common.NewConnectionManager(appConfig.RabbitMQ.URL, rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger))
		if err != nil {
			appLogger.Error("Failed to create connection manager", err, nil)
			return nil, fmt.Errorf("failed to create connection manager: %w", err)
		}
		appLogger.Info("RabbitMQ Connection Manager initialized.", nil)
	} else {
		appLogger.Warn("RABBITMQ_ENABLED is false, domain events will not be published", nil)
	}

	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		if connManager != nil {
			connManager.Close()
		}
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	// Закрытие всего, что успели открыть, при ошибке дальнейшей инициализации
	closeAll := func() {
		if eventProducer != nil {
			eventProducer.Close()
		}
		dbPool.Close()
		if connManager != nil {
			connManager.Close()
		}
	}

	if connManager != nil {
		producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
		producerCfg := rabbitmq_producer.PublisherConfig{
			ExchangeName:             constants.MarketplaceExchange,
			ExchangeType:             "topic",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
		}
		eventProducer, err = rabbitmq_producer.NewPublisher(producerCfg, connManager)
		if err != nil {
			appLogger.Error("Failed to create event producer", err, nil)
			closeAll()
			return nil, fmt.Errorf("failed to create event producer: %w", err)
		}
		appLogger.Info("RabbitMQ Event Producer initialized.", nil)
	}

	// --- 3. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	storageAdapter, err := postgres_adapter.NewPostgresStorageAdapter(dbPool)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to create postgres storage adapter: %w", err)
	}

	// Без брокера репортер остается nil'ом - юзкейсы это допускают.
	var eventReporter port.EventReporterPort
	if eventProducer != nil {
		reporterAdapter, reporterErr := rabbitmq_adapter.NewEventReporterAdapter(eventProducer)
		if reporterErr != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create event reporter adapter: %w", reporterErr)
		}
		eventReporter = reporterAdapter
	}

	marketplaceAdapter, err := mtsource.NewMTSourceAdapter(mtsource.Config{
		BaseURL:      appConfig.Marketplace.BaseURL,
		FetchDelay:   appConfig.Marketplace.FetchDelay,
		FetchTimeout: appConfig.Marketplace.FetchTimeout,
	})
	if err != nil {
		appLogger.Error("Failed to create marketplace adapter", err, nil)
		closeAll()
		return nil, fmt.Errorf("failed to initialize marketplace fetcher: %w", err)
	}

	// Геокодер опционален: без него записи без координат просто остаются
	// без geohash'а
	var geocoder port.GeocoderPort
	if appConfig.Geocoder.BaseURL != "" {
		geocoderAdapter, err := geocoder_adapter.NewGeocoderAdapter(geocoder_adapter.Config{
			BaseURL:      appConfig.Geocoder.BaseURL,
			FetchTimeout: appConfig.Geocoder.FetchTimeout,
		})
		if err != nil {
			appLogger.Error("Failed to create geocoder adapter", err, nil)
			closeAll()
			return nil, fmt.Errorf("failed to initialize geocoder: %w", err)
		}
		geocoder = geocoderAdapter
	} else {
		appLogger.Warn("GEOCODER_BASE_URL is not set, records without coordinates will be saved without geohash", nil)
	}
	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 4. USE CASES ---
	resolvePhotosUC := usecase.NewResolvePhotosUseCase(marketplaceAdapter)
	runImportUC := usecase.NewRunImportUseCase(
		storageAdapter, storageAdapter, resolvePhotosUC, geocoder, eventReporter,
		normalizer.Options{DefaultState: appConfig.Import.DefaultState},
	)
	searchExternalUC := usecase.NewSearchExternalUseCase(marketplaceAdapter, storageAdapter)
	lookupClaimUC := usecase.NewLookupClaimUseCase(storageAdapter)
	claimPropertyUC := usecase.NewClaimPropertyUseCase(storageAdapter, eventReporter)
	getBatchUC := usecase.NewGetBatchUseCase(storageAdapter)
	listBatchPropertiesUC := usecase.NewListBatchPropertiesUseCase(storageAdapter, storageAdapter)
	extendExpirationUC := usecase.NewExtendExpirationUseCase(storageAdapter)
	deleteBatchUC := usecase.NewDeleteBatchUseCase(storageAdapter)
	appLogger.Info("All use cases initialized.", nil)

	// --- 5. REST API ---
	importHandler := rest.NewImportHandler(
		runImportUC,
		searchExternalUC,
		func(reader io.Reader, filename string) port.RecordSourcePort {
			return spreadsheet.NewSpreadsheetAdapter(reader, filename)
		},
		func(criteria domain.SearchCriteria, selectedIDs []string) port.RecordSourcePort {
			return mtsource.NewImportSource(marketplaceAdapter, criteria, selectedIDs)
		},
		spreadsheet.Template(),
		appConfig.Import.ClaimExpiryDays,
	)
	batchHandler := rest.NewBatchHandler(getBatchUC, listBatchPropertiesUC, extendExpirationUC, deleteBatchUC)
	claimHandler := rest.NewClaimHandler(lookupClaimUC, claimPropertyUC)

	apiServer := rest.NewServer(
		appConfig.Rest.PORT,
		appConfig.Rest.AllowedOrigins,
		importHandler,
		batchHandler,
		claimHandler,
		baseLogger,
	)

	application := &App{
		config:        appConfig,
		dbPool:        dbPool,
		connManager:   connManager,
		eventProducer: eventProducer,
		fluentClient:  fluentClient,
		logger:        appLogger,
		apiServer:     apiServer,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		if a.eventProducer != nil {
			if err := a.eventProducer.Close(); err != nil {
				a.logger.Error("Error closing event producer", err, nil)
			}
		}

		if a.connManager != nil {
			if err := a.connManager.Close(); err != nil {
				a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			a.logger.Info("Closing Fluent Bit connection...", nil)
			if err := a.fluentClient.Close(); err != nil {
				log.Printf("App: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.apiServer.Start(); err != nil {
			serverErrors <- fmt.Errorf("rest server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received signal, shutting down", port.Fields{"signal": receivedSignal.String()})
	case err := <-serverErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down", nil)
	}

	// Останавливаем HTTP-сервер, чтобы горутина выше завершилась
	if err := a.apiServer.Stop(context.Background()); err != nil {
		a.logger.Error("Error stopping REST server", err, nil)
	}

	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
