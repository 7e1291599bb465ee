package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/auth"
	"github.com/jimdaga/pomodo/internal/store"
	"github.com/jimdaga/pomodo/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	store  *store.Store
	alice  uint
	bob    uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	validator, err := NewSettingsValidator()
	if err != nil {
		t.Fatalf("NewSettingsValidator: %v", err)
	}

	db := testutil.NewDB(t)
	f := &fixture{
		store: store.New(db),
		alice: testutil.CreateUser(t, db, "alice").ID,
		bob:   testutil.CreateUser(t, db, "bob").ID,
	}

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		var id uint
		fmt.Sscan(c.GetHeader("X-User"), &id)
		auth.SetUserID(c, id)
	})
	NewHandlers(f.store, validator).Register(api)
	f.router = r
	return f
}

func (f *fixture) do(user uint, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", fmt.Sprint(user))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	w := f.do(f.alice, http.MethodGet, "/api/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var me map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &me)
	if me["username"] != "alice" {
		t.Errorf("expected alice, got %v", me["username"])
	}
	if _, ok := me["password"]; ok {
		t.Error("password hash must not be serialized")
	}
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)

	w := f.do(f.alice, http.MethodPut, "/api/me/settings", `{"auto_start_pomos":true,"auto_start_breaks":false,"long_break_interval":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"long_break_interval":4`) {
		t.Errorf("settings not echoed: %s", w.Body.String())
	}

	invalid := []string{
		`{"auto_start_pomos":"yes"}`,
		`{"long_break_interval":0}`,
		`{"theme":"dark"}`,
	}
	for _, body := range invalid {
		if w := f.do(f.alice, http.MethodPut, "/api/me/settings", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestCurrentTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if w := f.do(f.alice, http.MethodGet, "/api/currentTask", ""); w.Body.String() != `{"id":null}` {
		t.Errorf("unset current task: got %s", w.Body.String())
	}

	task, _ := f.store.CreateTask(ctx, f.alice, store.TaskInput{Title: "focus"})
	w := f.do(f.alice, http.MethodPut, "/api/currentTask", fmt.Sprintf(`{"id":%d}`, task.ID))
	if w.Code != http.StatusOK || w.Body.String() != fmt.Sprintf(`{"id":%d}`, task.ID) {
		t.Errorf("set current task: got %d %s", w.Code, w.Body.String())
	}
	if w := f.do(f.alice, http.MethodGet, "/api/currentTask", ""); w.Body.String() != fmt.Sprintf(`{"id":%d}`, task.ID) {
		t.Errorf("get current task: got %s", w.Body.String())
	}

	if w := f.do(f.bob, http.MethodPut, "/api/currentTask", fmt.Sprintf(`{"id":%d}`, task.ID)); w.Code != http.StatusNotFound {
		t.Errorf("foreign task: expected 404, got %d", w.Code)
	}

	if w := f.do(f.alice, http.MethodPut, "/api/currentTask", `{"id":null}`); w.Body.String() != `{"id":null}` {
		t.Errorf("clear current task: got %s", w.Body.String())
	}
}

func TestCurrentMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if w := f.do(f.alice, http.MethodGet, "/api/currentMode", ""); w.Code != http.StatusNotFound {
		t.Errorf("unset current mode: expected 404, got %d", w.Code)
	}

	mode, err := f.store.CreateMode(ctx, f.alice, store.ModeInput{Name: "classic", Pomo: 25, ShortBreak: 5, LongBreak: 15})
	if err != nil {
		t.Fatal(err)
	}
	w := f.do(f.alice, http.MethodPost, "/api/currentMode", fmt.Sprintf(`{"mode_id":%d}`, mode.ID))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"classic"`) {
		t.Errorf("set current mode: got %d %s", w.Code, w.Body.String())
	}
	if w := f.do(f.alice, http.MethodGet, "/api/currentMode", ""); w.Code != http.StatusOK {
		t.Errorf("get current mode: expected 200, got %d", w.Code)
	}

	if w := f.do(f.bob, http.MethodPost, "/api/currentMode", fmt.Sprintf(`{"mode_id":%d}`, mode.ID)); w.Code != http.StatusNotFound {
		t.Errorf("foreign mode: expected 404, got %d", w.Code)
	}
	if w := f.do(f.alice, http.MethodPost, "/api/currentMode", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing mode_id: expected 400, got %d", w.Code)
	}
}
