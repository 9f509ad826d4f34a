package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-timer/backend/internal/models"
	"go-todo-timer/backend/testutil"
)

func todoPath(id int, suffix string) string {
	return fmt.Sprintf("/api/todos/%d%s", id, suffix)
}

func eventTypes(events []models.TimerEvent) []models.EventType {
	out := make([]models.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

func TestCreateTodo_Success(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	w := testutil.DoJSON(t, r, http.MethodPost, "/api/todos", token, map[string]any{
		"text":        "  Write report  ",
		"description": "<p>draft</p>",
	})

	assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP Status Code 201 Created")
	created := testutil.DecodeJSON[testutil.TodoJSON](t, w)
	assert.NotZero(t, created.ID, "Expected a non-zero Todo ID")
	assert.Equal(t, "Write report", created.Text, "Expected text to be trimmed")
	require.NotNil(t, created.Description)
	assert.Equal(t, "<p>draft</p>", *created.Description)
	assert.False(t, created.Completed)
	assert.Equal(t, "idle", created.State)
	assert.Zero(t, created.TotalTimeSeconds)
	assert.Nil(t, created.TimerStartedAt)
	assert.Equal(t, 1, created.UserID, "Expected UserID to be 1")
	assert.True(t, created.CreatedAt.Equal(testutil.Epoch))
}

func TestCreateTodo_Validation(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	// --- Test Case 1: text なし ---
	t.Run("Missing text", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, "/api/todos", token, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	// --- Test Case 2: 空白だけの text ---
	t.Run("Blank text", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, "/api/todos", token, map[string]any{"text": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "text is required")
	})
}

func TestTodos_RequireAuthentication(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)

	w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetTodosHandler_Authorization(t *testing.T) {
	_, router, _ := testutil.SetupTestDB(t)

	tokenNormal, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenAdmin, err := testutil.LoginAndGetToken(t, router, "admin@example.com", "adminpass")
	require.NoError(t, err)

	todo1 := testutil.CreateTestTodo(t, router, tokenNormal, "Normal User Todo 1")
	todo2 := testutil.CreateTestTodo(t, router, tokenNormal, "Normal User Todo 2")
	adminTodo := testutil.CreateTestTodo(t, router, tokenAdmin, "Admin User Todo 1")

	// --- Test Case 1: 自分のTODOだけが新しい順に返ること ---
	t.Run("User gets only their own todos", func(t *testing.T) {
		w := testutil.DoJSON(t, router, http.MethodGet, "/api/todos", tokenNormal, nil)
		require.Equal(t, http.StatusOK, w.Code)

		todos := testutil.DecodeJSON[[]testutil.TodoJSON](t, w)
		require.Len(t, todos, 2)
		assert.Equal(t, todo2.ID, todos[0].ID)
		assert.Equal(t, todo1.ID, todos[1].ID)
	})

	// --- Test Case 2: 管理者でも他人のTODOは見えないこと ---
	t.Run("Admin cannot see other users' todos", func(t *testing.T) {
		w := testutil.DoJSON(t, router, http.MethodGet, "/api/todos", tokenAdmin, nil)
		require.Equal(t, http.StatusOK, w.Code)

		todos := testutil.DecodeJSON[[]testutil.TodoJSON](t, w)
		require.Len(t, todos, 1)
		assert.Equal(t, adminTodo.ID, todos[0].ID)
	})

	// --- Test Case 3: 他人のTODOへのアクセスは 404 ---
	t.Run("Other user's todo is not found", func(t *testing.T) {
		w := testutil.DoJSON(t, router, http.MethodGet, todoPath(adminTodo.ID, ""), tokenNormal, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = testutil.DoJSON(t, router, http.MethodPost, todoPath(adminTodo.ID, "/timer/start"), tokenNormal, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = testutil.DoJSON(t, router, http.MethodDelete, todoPath(adminTodo.ID, ""), tokenNormal, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	// --- Test Case 4: 不正なID ---
	t.Run("Invalid ID format", func(t *testing.T) {
		w := testutil.DoJSON(t, router, http.MethodGet, "/api/todos/abc", tokenNormal, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTodosHandler_Filter(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	open := testutil.CreateTestTodo(t, r, token, "open")
	closed := testutil.CreateTestTodo(t, r, token, "closed")
	active := testutil.CreateTestTodo(t, r, token, "active")

	w := testutil.DoJSON(t, r, http.MethodPut, todoPath(closed.ID, "/completion"), token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = testutil.DoJSON(t, r, http.MethodPost, todoPath(active.ID, "/timer/start"), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ids := func(filter string) []int {
		w := testutil.DoJSON(t, r, http.MethodGet, "/api/todos?filter="+filter, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []int
		for _, td := range testutil.DecodeJSON[[]testutil.TodoJSON](t, w) {
			out = append(out, td.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []int{open.ID, closed.ID, active.ID}, ids("all"))
	assert.ElementsMatch(t, []int{open.ID, active.ID}, ids("open"))
	assert.Equal(t, []int{closed.ID}, ids("closed"))
	assert.Equal(t, []int{active.ID}, ids("active"))

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/todos?filter=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimer_StartPauseAccruesElapsed(t *testing.T) {
	_, r, clk := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Track me")

	w := testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/start"), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := testutil.DecodeJSON[testutil.TodoJSON](t, w)
	assert.Equal(t, "running", started.State)
	require.NotNil(t, started.TimerStartedAt)
	assert.True(t, started.TimerStartedAt.Equal(testutil.Epoch))

	clk.Advance(30 * time.Second)

	// 表示用の経過時間は取得のたびに計算される
	w = testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, ""), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := testutil.DecodeJSON[testutil.TodoJSON](t, w)
	assert.Zero(t, current.TotalTimeSeconds)
	assert.Equal(t, int64(30), current.ElapsedSeconds)
	assert.Empty(t, current.Tags)

	w = testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/pause"), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paused := testutil.DecodeJSON[testutil.TodoJSON](t, w)
	assert.Equal(t, "idle", paused.State)
	assert.Equal(t, int64(30), paused.TotalTimeSeconds)
	assert.Equal(t, int64(30), paused.ElapsedSeconds)
	assert.Nil(t, paused.TimerStartedAt)

	w = testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, "/events"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := testutil.DecodeJSON[[]models.TimerEvent](t, w)
	assert.Equal(t, []models.EventType{models.EventPause, models.EventStart, models.EventCreate}, eventTypes(events))
	assert.Nil(t, events[0].SecondsChange, "pause records no seconds_change")
}

func TestTimer_StartIsIdempotent(t *testing.T) {
	_, r, clk := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Twice")

	w := testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/start"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := testutil.DecodeJSON[testutil.TodoJSON](t, w)

	clk.Advance(10 * time.Second)
	w = testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/start"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := testutil.DecodeJSON[testutil.TodoJSON](t, w)

	require.NotNil(t, second.TimerStartedAt)
	assert.True(t, first.TimerStartedAt.Equal(*second.TimerStartedAt), "start time must not move")
	assert.Equal(t, int64(10), second.ElapsedSeconds)

	w = testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, "/events"), token, nil)
	events := testutil.DecodeJSON[[]models.TimerEvent](t, w)
	assert.Equal(t, []models.EventType{models.EventStart, models.EventCreate}, eventTypes(events))
}

func TestTimer_ConflictingTimer(t *testing.T) {
	_, r, clk := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	x := testutil.CreateTestTodo(t, r, token, "X")
	y := testutil.CreateTestTodo(t, r, token, "Y")

	w := testutil.DoJSON(t, r, http.MethodPost, todoPath(x.ID, "/timer/start"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// --- Test Case 1: 別のTodoが計測中なら 409 ---
	t.Run("Start fails while another timer runs", func(t *testing.T) {
		w := testutil.DoJSON(t, r, http.MethodPost, todoPath(y.ID, "/timer/start"), token, nil)
		require.Equal(t, http.StatusConflict, w.Code)
		body := testutil.DecodeJSON[map[string]any](t, w)
		assert.Equal(t, float64(x.ID), body["running_todo_id"])

		w = testutil.DoJSON(t, r, http.MethodGet, todoPath(x.ID, ""), token, nil)
		assert.Equal(t, "running", testutil.DecodeJSON[testutil.TodoJSON](t, w).State)
		w = testutil.DoJSON(t, r, http.MethodGet, todoPath(y.ID, ""), token, nil)
		assert.Equal(t, "idle", testutil.DecodeJSON[testutil.TodoJSON](t, w).State)
	})

	// --- Test Case 2: switch=true なら計測中のTodoを止めてから開始 ---
	t.Run("Switch pauses the running todo first", func(t *testing.T) {
		clk.Advance(20 * time.Second)
		w := testutil.DoJSON(t, r, http.MethodPost, todoPath(y.ID, "/timer/start?switch=true"), token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "running", testutil.DecodeJSON[testutil.TodoJSON](t, w).State)

		w = testutil.DoJSON(t, r, http.MethodGet, todoPath(x.ID, ""), token, nil)
		paused := testutil.DecodeJSON[testutil.TodoJSON](t, w)
		assert.Equal(t, "idle", paused.State)
		assert.Equal(t, int64(20), paused.TotalTimeSeconds)

		w = testutil.DoJSON(t, r, http.MethodGet, "/api/todos?filter=active", token, nil)
		active := testutil.DecodeJSON[[]testutil.TodoJSON](t, w)
		require.Len(t, active, 1)
		assert.Equal(t, y.ID, active[0].ID)
	})
}

func TestTimer_PauseNotRunning(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Idle")

	w := testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/pause"), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "timer is not running")
}

func TestToggleCompletion_AccruesRunningTimer(t *testing.T) {
	_, r, clk := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Finish me")

	w := testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/time"), token, map[string]any{"operation": "set", "seconds": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/start"), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	clk.Advance(5 * time.Second)

	w = testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, "/completion"), token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := testutil.DecodeJSON[testutil.TodoJSON](t, w)
	assert.True(t, done.Completed)
	assert.Equal(t, "done", done.State)
	assert.Equal(t, int64(15), done.TotalTimeSeconds)
	assert.Nil(t, done.TimerStartedAt)

	// --- 完了済みのTodoは開始できない ---
	w = testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/start"), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// --- 再オープンすると開始できる ---
	w = testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, "/completion"), token, map[string]any{"completed": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", testutil.DecodeJSON[testutil.TodoJSON](t, w).State)
	w = testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/timer/start"), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, "/events"), token, nil)
	events := testutil.DecodeJSON[[]models.TimerEvent](t, w)
	assert.Equal(t, []models.EventType{
		models.EventStart, models.EventReopen, models.EventComplete,
		models.EventStart, models.EventManualSet, models.EventCreate,
	}, eventTypes(events))

	// completed が無いリクエストは 400
	w = testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, "/completion"), token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustTimeHandler(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Adjust")

	adjust := func(payload map[string]any) (int, map[string]any) {
		w := testutil.DoJSON(t, r, http.MethodPost, todoPath(todo.ID, "/time"), token, payload)
		return w.Code, testutil.DecodeJSON[map[string]any](t, w)
	}

	code, body := adjust(map[string]any{"operation": "add", "seconds": 100})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(100), body["total_time_seconds"])

	// --- subtract は 0 で止まり、記録される差分は実際に減った分 ---
	code, body = adjust(map[string]any{"operation": "subtract", "seconds": 150})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["total_time_seconds"])

	w := testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, "/events"), token, nil)
	events := testutil.DecodeJSON[[]models.TimerEvent](t, w)
	require.Equal(t, models.EventManualSubtract, events[0].EventType)
	require.NotNil(t, events[0].SecondsChange)
	assert.Equal(t, int64(-100), *events[0].SecondsChange)

	// --- 不正な入力 ---
	for name, payload := range map[string]map[string]any{
		"negative seconds":  {"operation": "add", "seconds": -1},
		"unknown operation": {"operation": "multiply", "seconds": 1},
		"non-numeric":       {"operation": "add", "seconds": "ten"},
		"fractional":        {"operation": "add", "seconds": 1.5},
		"missing seconds":   {"operation": "add"},
	} {
		t.Run(name, func(t *testing.T) {
			code, _ := adjust(payload)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
}

func TestUpdateTodoHandler(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Before")

	w := testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, ""), token, map[string]any{
		"text":        "After",
		"description": "notes",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := testutil.DecodeJSON[testutil.TodoJSON](t, w)
	assert.Equal(t, "After", updated.Text)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "notes", *updated.Description)

	// 空の説明は削除
	w = testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, ""), token, map[string]any{"description": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, testutil.DecodeJSON[testutil.TodoJSON](t, w).Description)

	// completed を含めると完了状態も変わる
	w = testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, ""), token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, testutil.DecodeJSON[testutil.TodoJSON](t, w).Completed)

	w = testutil.DoJSON(t, r, http.MethodPut, todoPath(todo.ID, ""), token, map[string]any{"text": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTodoHandler(t *testing.T) {
	_, r, _ := testutil.SetupTestDB(t)
	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	todo := testutil.CreateTestTodo(t, r, token, "Delete me")

	w := testutil.DoJSON(t, r, http.MethodDelete, todoPath(todo.ID, ""), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, ""), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = testutil.DoJSON(t, r, http.MethodGet, todoPath(todo.ID, "/events"), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = testutil.DoJSON(t, r, http.MethodDelete, todoPath(todo.ID, ""), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
