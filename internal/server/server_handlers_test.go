package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"top-ten/internal/config"

	"github.com/gorilla/websocket"
)

type fakeUploader struct {
	mu   sync.Mutex
	key  string
	body []byte
}

func (u *fakeUploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.key = key
	u.body = body
	return "s3://exports/" + key, nil
}

func (u *fakeUploader) uploaded() (string, []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.key, u.body
}

func decodeArray(t *testing.T, resp *http.Response) []any {
	t.Helper()
	var body []any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestAuthFlow(t *testing.T) {
	_, ts, client := newTestApp(t, config.Default(), &fakeMirror{})

	resp := doRequest(t, client, ts, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "host@example.com",
		"password": "short",
	})
	expectError(t, resp, http.StatusBadRequest, "Password must be at least 8 characters long")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": "correct-horse",
	})
	expectError(t, resp, http.StatusBadRequest, "Please enter a valid email address")

	signUp(t, client, ts, "host@example.com")
	resp = doRequest(t, newClient(t), ts, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "HOST@example.com",
		"password": "correct-horse",
	})
	expectError(t, resp, http.StatusConflict, "An account with that email already exists")

	resp = doRequest(t, client, ts, http.MethodGet, "/api/auth/session", nil)
	expectStatus(t, resp, http.StatusOK)
	if user := decodeBody(t, resp); user["email"] != "host@example.com" {
		t.Fatalf("expected signed in email, got %v", user["email"])
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/auth/logout", nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = doRequest(t, client, ts, http.MethodGet, "/api/session", nil)
	expectError(t, resp, http.StatusUnauthorized, "authentication required")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "host@example.com",
		"password": "wrong-horse",
	})
	expectError(t, resp, http.StatusUnauthorized, "Invalid email or password")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "host@example.com",
		"password": "correct-horse",
	})
	expectStatus(t, resp, http.StatusOK)
	resp = doRequest(t, client, ts, http.MethodGet, "/api/session", nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestPrivateRoutesRequireLogin(t *testing.T) {
	_, ts, client := newTestApp(t, config.Default(), &fakeMirror{})

	resp := doRequest(t, client, ts, http.MethodGet, "/api/categories", nil)
	expectError(t, resp, http.StatusUnauthorized, "authentication required")

	for _, path := range []string{"/", "/private/setup", "/private/admin", "/private/scrape"} {
		resp = doRequest(t, client, ts, http.MethodGet, path, nil)
		expectStatus(t, resp, http.StatusFound)
		if location := resp.Header.Get("Location"); location != "/login" {
			t.Fatalf("expected redirect to /login for %s, got %q", path, location)
		}
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/login", nil)
	expectStatus(t, resp, http.StatusOK)
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/html") {
		t.Fatalf("expected html login page, got %q", contentType)
	}
}

func TestViewsRender(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	list := seedList(t, srv, 3)
	snapshot := createGroup(t, client, ts, defaultPlayers())
	roundID := snapshot["round_id"].(string)

	paths := []string{
		"/",
		"/private/categories",
		"/private/categories/" + strconv.FormatUint(uint64(list.CategoryID), 10),
		"/private/setup",
		"/private/play/" + roundID,
		"/private/simple",
		"/private/admin",
		"/private/admin/lists/" + strconv.FormatUint(uint64(list.ID), 10),
		"/private/scrape",
		"/board/" + roundID,
	}
	for _, path := range paths {
		resp := doRequest(t, client, ts, http.MethodGet, path, nil)
		expectStatus(t, resp, http.StatusOK)
	}

	resp := doRequest(t, client, ts, http.MethodGet, "/private/play/round-999", nil)
	expectStatus(t, resp, http.StatusFound)
	if location := resp.Header.Get("Location"); location != "/" {
		t.Fatalf("expected redirect home, got %q", location)
	}
}

func TestCategoryCursorStopsAtBounds(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	for _, name := range []string{"Movies", "Animals"} {
		resp := doRequest(t, client, ts, http.MethodPost, "/api/admin/categories", map[string]string{"name": name, "icon": "star"})
		expectStatus(t, resp, http.StatusCreated)
	}
	if categories, _ := srv.catalog.Categories(context.Background()); len(categories) != 2 {
		t.Fatalf("expected two categories, got %d", len(categories))
	}

	steps := []struct {
		method string
		path   string
		index  int
		name   string
	}{
		{http.MethodGet, "/api/categories/current", 0, "Animals"},
		{http.MethodPost, "/api/categories/prev", 0, "Animals"},
		{http.MethodPost, "/api/categories/next", 1, "Movies"},
		{http.MethodPost, "/api/categories/next", 1, "Movies"},
		{http.MethodGet, "/api/categories/current", 1, "Movies"},
		{http.MethodPost, "/api/categories/prev", 0, "Animals"},
	}
	for i, step := range steps {
		resp := doRequest(t, client, ts, step.method, step.path, nil)
		expectStatus(t, resp, http.StatusOK)
		body := decodeBody(t, resp)
		if int(body["index"].(float64)) != step.index {
			t.Fatalf("step %d: expected index %d, got %v", i, step.index, body["index"])
		}
		category := body["category"].(map[string]any)
		if category["name"] != step.name {
			t.Fatalf("step %d: expected %s, got %v", i, step.name, category["name"])
		}
		if body["has_prev"] != (step.index > 0) || body["has_next"] != (step.index < 1) {
			t.Fatalf("step %d: unexpected bounds %v %v", i, body["has_prev"], body["has_next"])
		}
	}
}

func TestAdminListEditing(t *testing.T) {
	_, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")

	resp := doRequest(t, client, ts, http.MethodPost, "/api/admin/categories", map[string]string{"name": "Sports"})
	expectError(t, resp, http.StatusBadRequest, "Category name and icon are required")
	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/categories", map[string]string{"name": "Sports", "icon": "ball"})
	expectStatus(t, resp, http.StatusCreated)
	category := decodeBody(t, resp)
	categoryID := category["id"]
	if category["slug"] != "sports" {
		t.Fatalf("expected slug sports, got %v", category["slug"])
	}
	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/categories", map[string]string{"name": "Sports", "icon": "ball"})
	expectError(t, resp, http.StatusConflict, "A category with that name already exists")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/lists", map[string]any{"category_id": categoryID})
	expectError(t, resp, http.StatusBadRequest, "List title and category are required")
	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/lists", map[string]any{
		"category_id": categoryID,
		"title":       "Most Olympic medals",
		"source_url":  "not a url",
	})
	expectError(t, resp, http.StatusBadRequest, "Source URL must be a valid URL")
	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/lists", map[string]any{
		"category_id": categoryID,
		"title":       "Most Olympic medals",
		"source_url":  "https://example.com/medals",
	})
	expectStatus(t, resp, http.StatusCreated)
	list := decodeBody(t, resp)
	listPath := "/api/admin/lists/" + strconv.Itoa(int(list["id"].(float64)))
	items := list["items"].([]any)
	if len(items) != 10 {
		t.Fatalf("expected ten empty items, got %d", len(items))
	}

	payload := make([]map[string]any, 0, len(items))
	for i, raw := range items {
		item := raw.(map[string]any)
		payload = append(payload, map[string]any{
			"id":   item["id"],
			"rank": item["rank"],
			"name": "Athlete " + strconv.Itoa(i+1),
		})
	}
	payload[4]["name"] = "   "
	resp = doRequest(t, client, ts, http.MethodPut, listPath+"/items", map[string]any{"items": payload})
	expectError(t, resp, http.StatusBadRequest, "All items must have a name")

	payload[4]["name"] = "Athlete 5"
	resp = doRequest(t, client, ts, http.MethodPut, listPath+"/items", map[string]any{"items": payload})
	expectStatus(t, resp, http.StatusOK)
	saved := decodeBody(t, resp)["items"].([]any)
	if first := saved[0].(map[string]any); first["name"] != "Athlete 1" {
		t.Fatalf("expected first item saved, got %v", first["name"])
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/api/lists/random", nil)
	expectStatus(t, resp, http.StatusOK)
	if random := decodeBody(t, resp); random["title"] != "Most Olympic medals" {
		t.Fatalf("expected the only filled list, got %v", random["title"])
	}

	resp = doRequest(t, client, ts, http.MethodDelete, listPath, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp = doRequest(t, client, ts, http.MethodGet, "/api/lists/random", nil)
	expectError(t, resp, http.StatusNotFound, "No lists available yet")
}

func TestScrapeExportAndImport(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	filled := seedList(t, srv, 3)
	empty := seedListIn(t, srv, filled.CategoryID, "Tallest buildings", 0)

	resp := doRequest(t, client, ts, http.MethodGet, "/api/admin/scrape/export", nil)
	expectStatus(t, resp, http.StatusOK)
	if disposition := resp.Header.Get("Content-Disposition"); !strings.Contains(disposition, "scrape-config-") {
		t.Fatalf("expected export file name, got %q", disposition)
	}
	entries := decodeArray(t, resp)
	if len(entries) != 1 {
		t.Fatalf("expected only the empty list, got %v", entries)
	}
	entry := entries[0].(map[string]any)
	if uint(entry["id"].(float64)) != empty.ID || entry["has_items"] != false || entry["category"] != "Movies" {
		t.Fatalf("unexpected export entry %v", entry)
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/api/admin/scrape/export?include_filled=true", nil)
	expectStatus(t, resp, http.StatusOK)
	if all := decodeArray(t, resp); len(all) != 2 {
		t.Fatalf("expected both lists, got %d", len(all))
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/scrape/import", map[string]any{"list_id": empty.ID})
	expectError(t, resp, http.StatusBadRequest, "Invalid file format. Expected an array of list items.")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/scrape/import", []map[string]any{
		{"list_id": empty.ID, "rank": 1, "name": "Burj Khalifa", "statistic": "828 m"},
		{"list_id": empty.ID, "rank": 2, "name": "Merdeka 118"},
		{"list_id": 0, "rank": 1, "name": "Nowhere"},
	})
	expectStatus(t, resp, http.StatusOK)
	result := decodeBody(t, resp)
	if int(result["success_count"].(float64)) != 1 || int(result["error_count"].(float64)) != 1 {
		t.Fatalf("unexpected import result %v", result)
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/api/lists/"+strconv.FormatUint(uint64(empty.ID), 10), nil)
	expectStatus(t, resp, http.StatusOK)
	imported := decodeBody(t, resp)["items"].([]any)
	if len(imported) != 2 || imported[0].(map[string]any)["name"] != "Burj Khalifa" {
		t.Fatalf("unexpected imported items %v", imported)
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/api/admin/scrape/export", nil)
	expectStatus(t, resp, http.StatusOK)
	if remaining := decodeArray(t, resp); len(remaining) != 0 {
		t.Fatalf("expected nothing left to scrape, got %v", remaining)
	}
}

func TestScrapePublish(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	seedListIn(t, srv, seedList(t, srv, 1).CategoryID, "Longest rivers", 0)

	resp := doRequest(t, client, ts, http.MethodPost, "/api/admin/scrape/publish", nil)
	expectError(t, resp, http.StatusServiceUnavailable, "export bucket is not configured")

	uploader := &fakeUploader{}
	srv.SetExporter(uploader)
	resp = doRequest(t, client, ts, http.MethodPost, "/api/admin/scrape/publish", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	key, uploadedBody := uploader.uploaded()
	if body["key"] != key || !strings.HasPrefix(key, "scrape-config-") {
		t.Fatalf("unexpected upload key %v", body["key"])
	}
	var entries []map[string]any
	if err := json.Unmarshal(uploadedBody, &entries); err != nil || len(entries) != 1 {
		t.Fatalf("expected one uploaded entry, got %s (%v)", uploadedBody, err)
	}
}

func TestRoundQRCode(t *testing.T) {
	_, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	snapshot := createGroup(t, client, ts, defaultPlayers())

	resp := doRequest(t, client, ts, http.MethodGet, "/api/rounds/"+snapshot["round_id"].(string)+"/qr", nil)
	expectStatus(t, resp, http.StatusOK)
	if contentType := resp.Header.Get("Content-Type"); contentType != "image/png" {
		t.Fatalf("expected png, got %q", contentType)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("expected png signature")
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/api/rounds/round-999/qr", nil)
	expectError(t, resp, http.StatusNotFound, "round not found")
}

func TestHealth(t *testing.T) {
	_, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	resp := doRequest(t, client, ts, http.MethodGet, "/healthz", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Fatalf("expected ok, got %v", body["status"])
	}
}

func TestBoardWebsocketReceivesUpdates(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	list := seedList(t, srv, 3)
	snapshot := createGroup(t, client, ts, defaultPlayers())
	roundID := snapshot["round_id"].(string)
	ids := playerIDs(t, snapshot)

	conn := dialBoard(t, ts, roundID)
	first := readWSJSON(t, conn, 5*time.Second)
	if first["type"] != "snapshot" || first["status"] != "setup" {
		t.Fatalf("expected setup snapshot, got %v", first)
	}

	resp := doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/list", map[string]any{"list_id": list.ID})
	expectStatus(t, resp, http.StatusOK)
	assigned := readWSJSON(t, conn, 5*time.Second)
	for _, raw := range assigned["items"].([]any) {
		if _, ok := raw.(map[string]any)["name"]; ok {
			t.Fatalf("expected board items to stay hidden")
		}
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/start", nil)
	expectStatus(t, resp, http.StatusOK)
	readWSJSON(t, conn, 5*time.Second)

	resp = guess(t, client, ts, roundID, list.Items[0].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)
	guessed := readWSJSON(t, conn, 5*time.Second)
	if int(guessed["guessed_count"].(float64)) != 1 {
		t.Fatalf("expected one guessed item, got %v", guessed["guessed_count"])
	}
	item := guessed["items"].([]any)[0].(map[string]any)
	if item["name"] != list.Items[0].Name || item["player_name"] != "Ada" {
		t.Fatalf("expected guessed item to be revealed, got %v", item)
	}
}

func dialBoard(t *testing.T, ts *httptest.Server, roundID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rounds/" + roundID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readWSJSON(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	return decoded
}
