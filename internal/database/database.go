// Package database はデータベース接続とスキーマ適用を扱います。
package database

import (
	"context"
	"embed"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"go-todo-timer/backend/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// GetDSN は設定から接続文字列 (DSN) を構築します。
func GetDSN(cfg *config.Config) string {
	if cfg.DBDriver == config.DriverSQLite {
		return SQLiteDSN(cfg.SQLitePath)
	}
	// loc=UTC で DATETIME を UTC として読み書きする。clientFoundRows で値が同じでも一致行数を返す
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&clientFoundRows=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// SQLiteDSN は外部キーを有効にした SQLite の DSN を返します。
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// Open は接続を開き、疎通を確認します。
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == config.DriverSQLite {
		// SQLite は書き込みが一つだけなので接続も一つに絞る
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// InitDB は設定に従って接続を初期化し、スキーマを適用します。
func InitDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := Open(cfg.DBDriver, GetDSN(cfg))
	if err != nil {
		return nil, err
	}
	if err := Migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Successfully connected to %s database!", cfg.DBDriver)
	return db, nil
}

// Migrate はドライバーに対応する埋め込みスキーマを適用します。何度実行しても安全です。
func Migrate(ctx context.Context, db *sqlx.DB) error {
	data, err := schemaFS.ReadFile("schema/" + db.DriverName() + ".sql")
	if err != nil {
		return fmt.Errorf("no schema for driver %q: %w", db.DriverName(), err)
	}
	for _, stmt := range splitStatements(string(data)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// splitStatements はスキーマを文ごとに分割します。-- で始まる行は捨てます。
func splitStatements(schema string) []string {
	var lines []string
	for _, line := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
