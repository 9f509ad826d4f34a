// Package testutil はテスト用のデータベースとルーターを用意します。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"go-todo-timer/backend/internal/clock"
	"go-todo-timer/backend/internal/config"
	"go-todo-timer/backend/internal/database"
	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/internal/repositories"
	"go-todo-timer/backend/internal/routes"
)

// TestJWTSecret はテストで使う署名鍵です。
const TestJWTSecret = "test-secret"

// Epoch はテスト用の時計の開始時刻です。
var Epoch = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

// TodoJSON はTodoレスポンスのデコード先です。
type TodoJSON struct {
	ID               int           `json:"id"`
	UserID           int           `json:"user_id"`
	Text             string        `json:"text"`
	Description      *string       `json:"description"`
	Completed        bool          `json:"completed"`
	State            string        `json:"state"`
	TotalTimeSeconds int64         `json:"total_time_seconds"`
	TimerStartedAt   *time.Time    `json:"timer_started_at"`
	ElapsedSeconds   int64         `json:"elapsed_seconds"`
	Tags             []*models.Tag `json:"tags"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// OpenTestDB は一時ディレクトリに SQLite データベースを作成し、スキーマを適用します。
// テスト終了時に閉じられます。
func OpenTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(config.DriverSQLite, database.SQLiteDSN(path))
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db), "Failed to apply schema")
	return db
}

// SeedUsers はテストユーザーを登録します。normal_user の ID は 1、admin_user は 2 です。
func SeedUsers(t *testing.T, db *sqlx.DB) (normal, admin *models.User) {
	t.Helper()
	userRepo := repositories.NewUserRepository(db)
	normal = CreateTestUser(t, userRepo, "normal_user", "normal_user@example.com", "password123", "user")
	admin = CreateTestUser(t, userRepo, "admin_user", "admin@example.com", "adminpass", "admin")
	return normal, admin
}

// SetupTestDB はテスト用のデータベース、ルーター、時計を用意します。
func SetupTestDB(t *testing.T) (*sqlx.DB, *gin.Engine, *clock.Fake) {
	t.Helper()
	db := OpenTestDB(t)
	SeedUsers(t, db)
	clk := clock.NewFake(Epoch)
	return db, SetupTestRouter(t, db, clk), clk
}

// SetupTestRouter は本番と同じルーティングでテスト用のGinルーターを作成します。
func SetupTestRouter(t *testing.T, db *sqlx.DB, clk clock.Clock) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		DBDriver:       config.DriverSQLite,
		JWTSecret:      TestJWTSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	return routes.SetupRouter(db, cfg, clk)
}

// CreateTestUser はユーザーを直接データベースに作成します。
func CreateTestUser(t *testing.T, userRepo *repositories.UserRepository, username, email, password, role string) *models.User {
	t.Helper()
	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	createdUser, err := userRepo.Create(context.Background(), &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	})
	require.NoError(t, err)
	require.NotNil(t, createdUser)
	require.NotEqual(t, 0, createdUser.ID)
	return createdUser
}

// DoJSON はJSONリクエストを送り、レスポンスを返します。token が空なら Authorization を付けません。
func DoJSON(t *testing.T, router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// DecodeJSON はレスポンスボディをデコードします。
func DecodeJSON[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "invalid JSON: %s", resp.Body.String())
	return v
}

// CreateTestTodo はAPI経由でTODOを作成します。
func CreateTestTodo(t *testing.T, router *gin.Engine, token, text string) *TodoJSON {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/todos", token, map[string]any{"text": text})
	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	created := DecodeJSON[TodoJSON](t, resp)
	return &created
}

// LoginAndGetToken はログインしてJWTトークンを返します。
func LoginAndGetToken(t *testing.T, router *gin.Engine, email, password string) (string, error) {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}

	var loginRes map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &loginRes); err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}
	token, ok := loginRes["token"].(string)
	if !ok {
		return "", errors.New("token not found or not a string in login response")
	}
	return token, nil
}
