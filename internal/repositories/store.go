// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// UnitOfWork は一つのトランザクションに束ねたリポジトリ群です。
type UnitOfWork struct {
	Todos  *TodoRepository
	Events *EventRepository
	Tags   *TagRepository
}

// Store はトランザクション境界を提供します。
type Store struct {
	db *sqlx.DB
}

// NewStore は新しいStoreを作成します。
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WithTransaction は fn をトランザクション内で実行します。
// fn がエラーを返すかパニックした場合はロールバックし、どの書き込みも残りません。
func (s *Store) WithTransaction(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	uow := &UnitOfWork{
		Todos:  NewTodoRepository(tx),
		Events: NewEventRepository(tx),
		Tags:   NewTagRepository(tx),
	}
	if err := fn(uow); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// isUniqueViolation は一意制約違反かどうかを判定します。
// MySQLはエラーコード1062、SQLiteは UNIQUE / PRIMARY KEY 制約違反です。
func isUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
