package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ajmal017/dailyScript/pkg/crypto"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Broker   BrokerConfig
	Engine   EngineConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	APITokenHash  string // bcrypt-хеш токена доступа к HTTP API
	EncryptionKey string // ключ AES-256 для расшифровки брокерских кредов
}

// BrokerConfig - настройки подключения к мосту брокера
type BrokerConfig struct {
	MarketDataURL string // ws адрес потока маркет-даты
	TradeURL      string // ws адрес торгового шлюза
	UserID        string
	Password      string // может быть зашифрован (base64 AES-GCM)
	PasswordEnc   bool   // true если Password зашифрован

	// WebSocket настройки (event-driven, без polling)
	WSReconnectDelay time.Duration // задержка перед переподключением WS
	WSPingInterval   time.Duration // интервал ping для поддержания соединения
	WSReadTimeout    time.Duration // таймаут чтения WS сообщений

	// Flow control торгового шлюза
	OrderRatePerSec int // лимит запросов в секунду
	OrderBurst      int // размер burst токен-бакета
	QueueSize       int // ёмкость очереди отложенных запросов

	// Retry логика подключения сессии
	MaxRetries   int
	RetryBackoff time.Duration
}

// EngineConfig - настройки движка парных сделок
type EngineConfig struct {
	SweepInterval    time.Duration // период тика планировщика (минимум 1s)
	DefaultTolerance time.Duration // окно ожидания заполнения по умолчанию
	MailboxSize      int           // ёмкость почтового ящика координатора
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "pairtrader"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			APITokenHash:  getEnv("API_TOKEN_HASH", ""),
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
		Broker: BrokerConfig{
			MarketDataURL: getEnv("BROKER_MD_URL", "ws://localhost:9001/md"),
			TradeURL:      getEnv("BROKER_TD_URL", "ws://localhost:9002/td"),
			UserID:        getEnv("BROKER_USER_ID", ""),
			Password:      getEnv("BROKER_PASSWORD", ""),
			PasswordEnc:   getEnvAsBool("BROKER_PASSWORD_ENC", false),

			// WebSocket - event-driven, без polling!
			WSReconnectDelay: getEnvAsDuration("WS_RECONNECT_DELAY", 1*time.Second),
			WSPingInterval:   getEnvAsDuration("WS_PING_INTERVAL", 15*time.Second),
			WSReadTimeout:    getEnvAsDuration("WS_READ_TIMEOUT", 30*time.Second),

			// Flow control шлюза
			OrderRatePerSec: getEnvAsInt("ORDER_RATE_PER_SEC", 5),
			OrderBurst:      getEnvAsInt("ORDER_BURST", 10),
			QueueSize:       getEnvAsInt("ORDER_QUEUE_SIZE", 256),

			// Retry подключения сессии
			MaxRetries:   getEnvAsInt("MAX_RETRIES", 4),
			RetryBackoff: getEnvAsDuration("RETRY_BACKOFF", 500*time.Millisecond),
		},
		Engine: EngineConfig{
			SweepInterval:    getEnvAsDuration("SWEEP_INTERVAL", 1*time.Second),
			DefaultTolerance: getEnvAsDuration("DEFAULT_TOLERANCE", 30*time.Second),
			MailboxSize:      getEnvAsInt("MAILBOX_SIZE", 1024),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", ""),
		},
	}

	// Валидация критичных параметров безопасности
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен только если пароль брокера зашифрован
	if c.Broker.PasswordEnc {
		if c.Security.EncryptionKey == "" {
			return fmt.Errorf("ENCRYPTION_KEY is required when BROKER_PASSWORD_ENC is set")
		}
		if err := crypto.ValidateKey([]byte(c.Security.EncryptionKey)); err != nil {
			return fmt.Errorf("ENCRYPTION_KEY: %w", err)
		}
	}

	// API_TOKEN_HASH обязателен: без него HTTP API остался бы открытым
	if c.Security.APITokenHash == "" {
		return fmt.Errorf("API_TOKEN_HASH is required for API authentication")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Валидация retry параметров
	if c.Broker.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES cannot be negative, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.MaxRetries > 10 {
		return fmt.Errorf("MAX_RETRIES should not exceed 10, got %d", c.Broker.MaxRetries)
	}

	// Валидация таймаутов (должны быть положительными)
	if c.Broker.WSReadTimeout <= 0 {
		return fmt.Errorf("WS_READ_TIMEOUT must be positive, got %v", c.Broker.WSReadTimeout)
	}

	if c.Broker.OrderRatePerSec <= 0 {
		return fmt.Errorf("ORDER_RATE_PER_SEC must be positive, got %d", c.Broker.OrderRatePerSec)
	}

	if c.Broker.QueueSize <= 0 {
		return fmt.Errorf("ORDER_QUEUE_SIZE must be positive, got %d", c.Broker.QueueSize)
	}

	// Период тика не может быть меньше секунды
	if c.Engine.SweepInterval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1s, got %v", c.Engine.SweepInterval)
	}

	if c.Engine.DefaultTolerance <= 0 {
		return fmt.Errorf("DEFAULT_TOLERANCE must be positive, got %v", c.Engine.DefaultTolerance)
	}

	if c.Engine.MailboxSize <= 0 {
		return fmt.Errorf("MAILBOX_SIZE must be positive, got %d", c.Engine.MailboxSize)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
