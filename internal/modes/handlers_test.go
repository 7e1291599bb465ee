package modes

import (
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

func TestModeCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice").ID
	bob := testutil.CreateUser(t, db, "bob").ID

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		var id uint
		fmt.Sscan(c.GetHeader("X-User"), &id)
		auth.SetUserID(c, id)
	})
	NewHandlers(store.New(db)).Register(api)

	do := func(user uint, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User", fmt.Sprint(user))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(alice, http.MethodPost, "/api/modes", `{"name":"classic","pomo":25,"short_break":5,"long_break":15}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var mode struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
		Pomo int    `json:"pomo"`
	}
	json.Unmarshal(w.Body.Bytes(), &mode)
	path := fmt.Sprintf("/api/modes/%d", mode.ID)

	if w := do(alice, http.MethodPost, "/api/modes", `{"name":"broken","pomo":-5,"short_break":5,"long_break":15}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode: expected 400, got %d", w.Code)
	}

	w = do(alice, http.MethodPut, path, `{"name":"long","pomo":50,"short_break":10,"long_break":30}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"pomo":50`) {
		t.Errorf("update: got %d %s", w.Code, w.Body.String())
	}

	if w := do(alice, http.MethodGet, "/api/modes", ""); !strings.Contains(w.Body.String(), `"name":"long"`) {
		t.Errorf("list: got %s", w.Body.String())
	}
	if w := do(bob, http.MethodGet, "/api/modes", ""); w.Body.String() != "[]" {
		t.Errorf("bob should see no modes, got %s", w.Body.String())
	}
	if w := do(bob, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign mode: expected 404, got %d", w.Code)
	}

	if w := do(alice, http.MethodDelete, path, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := do(alice, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}
}
