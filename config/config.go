package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string
	AllowedOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Секрет провайдера идентификации (HS256). Подписи токенов проверяет
	// провайдер, мы доверяем общему ключу.
	TokenSecret   string
	TokenAudience string
	TokenIssuer   string

	// OwnerID - "домашний" аккаунт, на который падают комиссии за вывод.
	// Пустая строка = комиссии не записываются.
	OwnerID string

	// Ключ, которым платёжный процессор подписывает webhook-запросы.
	WebhookKey string

	// Маппинг price id процессора -> тип подписки (не хардкодим словарь
	// процессора в ядре).
	PriceIDFree     string
	PriceIDPremium  string
	PriceIDBusiness string

	SweepInterval time.Duration

	// SMTP для почтовых напоминаний
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TrustedProxies: []string{},
		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		TokenSecret:   getEnv("TOKEN_SECRET", "default-token-secret"),
		TokenAudience: getEnv("TOKEN_AUDIENCE", ""),
		TokenIssuer:   getEnv("TOKEN_ISSUER", ""),

		OwnerID:    getEnv("OWNER_ID", ""),
		WebhookKey: getEnv("PAYMENT_WEBHOOK_KEY", ""),

		PriceIDFree:     getEnv("PRICE_ID_FREE", ""),
		PriceIDPremium:  getEnv("PRICE_ID_PREMIUM", ""),
		PriceIDBusiness: getEnv("PRICE_ID_BUSINESS", ""),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", ""),
	}

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		cfg.TrustedProxies = strings.Split(proxies, ",")
	}

	log.Printf("📋 Конфигурация загружена: порт=%s, режим=%s, БД=%s, OwnerIDSet=%v",
		cfg.Port, cfg.Env, cfg.DBName, cfg.OwnerID != "")
	return cfg
}

// PlanForPriceID возвращает тип подписки для price id процессора.
// Неизвестный id - ошибка маппинга только для этого события.
func (c *Config) PlanForPriceID(priceID string) (string, bool) {
	switch priceID {
	case "":
		return "", false
	case c.PriceIDFree:
		return "FREE", true
	case c.PriceIDPremium:
		return "PREMIUM", true
	case c.PriceIDBusiness:
		return "BUSINESS", true
	}
	return "", false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strVal := getEnv(key, "")
	if val, err := strconv.Atoi(strVal); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strVal := getEnv(key, "")
	if val, err := time.ParseDuration(strVal); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	val := getEnv(key, "")
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
