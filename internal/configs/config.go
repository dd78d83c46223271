package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	URL     string
	Enabled bool
}

// DBconfig хранит конфигурацию для БД
type DBconfig struct {
	URL string
}

type RESTconfig struct {
	PORT           string
	AllowedOrigins []string
}

// MarketplaceConfig - настройки внешнего маркетплейса-источника.
type MarketplaceConfig struct {
	BaseURL      string
	FetchDelay   time.Duration
	FetchTimeout time.Duration
}

// GeocoderConfig - настройки геокодера для записей без координат.
type GeocoderConfig struct {
	BaseURL      string
	FetchTimeout time.Duration
}

// ImportConfig - параметры конвейера импорта.
type ImportConfig struct {
	// Штат по умолчанию для строк таблиц без колонки state
	DefaultState string
	// Срок жизни claim-токенов батча, если оператор не указал свой
	ClaimExpiryDays int
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	Rest         RESTconfig
	Marketplace  MarketplaceConfig
	Geocoder     GeocoderConfig
	Import       ImportConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}

	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
		return nil, fmt.Errorf("сould not load .env file (path: %v): %v", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "import-claim-service")

	// Читаем DATABASE URL
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	// Читаем конфигурацию для RabbitMQ. Брокер можно выключить целиком -
	// сервис тогда работает без публикации доменных событий.
	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", true)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	// Читаем конфигурацию для REST
	cfg.Rest.PORT = getEnvAsString("PORT", "8080")
	origins := getEnvAsString("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	cfg.Rest.AllowedOrigins = strings.Split(origins, ",")

	// Внешний маркетплейс
	cfg.Marketplace.BaseURL = os.Getenv("MARKETPLACE_BASE_URL")
	if cfg.Marketplace.BaseURL == "" {
		return nil, fmt.Errorf("MARKETPLACE_BASE_URL environment variable is required")
	}
	cfg.Marketplace.FetchDelay = time.Duration(getEnvAsInt("MARKETPLACE_FETCH_DELAY_MS", 2000)) * time.Millisecond
	cfg.Marketplace.FetchTimeout = time.Duration(getEnvAsInt("MARKETPLACE_FETCH_TIMEOUT_MS", 30000)) * time.Millisecond

	// Геокодер (опционален: без него записи просто остаются без координат)
	cfg.Geocoder.BaseURL = getEnvAsString("GEOCODER_BASE_URL", "")
	cfg.Geocoder.FetchTimeout = time.Duration(getEnvAsInt("GEOCODER_TIMEOUT_MS", 10000)) * time.Millisecond

	cfg.Import.DefaultState = getEnvAsString("IMPORT_DEFAULT_STATE", "")
	cfg.Import.ClaimExpiryDays = getEnvAsInt("IMPORT_CLAIM_EXPIRY_DAYS", 30)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
