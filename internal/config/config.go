// Package config は環境変数と .env から設定を読み込みます。
package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config はアプリケーション設定です。
type Config struct {
	Port           string
	DBDriver       string
	DBUser         string
	DBPass         string
	DBHost         string
	DBPort         string
	DBName         string
	SQLitePath     string
	JWTSecret      string
	AllowedOrigins []string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable not set")

// Load は .env を読み込んだ後、環境変数から Config を組み立てます。
// .env が無い場合は環境変数だけを使います。
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv は現在の環境変数から Config を組み立てます。
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DBDriver:       getenv("DB_DRIVER", DriverMySQL),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         getenv("DB_HOST", "127.0.0.1"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         os.Getenv("DB_NAME"),
		SQLitePath:     getenv("SQLITE_PATH", "todos.db"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.DBDriver != DriverMySQL && cfg.DBDriver != DriverSQLite {
		return nil, errors.New("DB_DRIVER must be mysql or sqlite3")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
