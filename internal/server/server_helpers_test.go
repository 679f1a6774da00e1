package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"top-ten/internal/catalog"
	"top-ten/internal/game"
)

// fakeMirror records mirrored effects. When gate is set, background effects
// wait on it before being recorded.
type fakeMirror struct {
	mu        sync.Mutex
	groupDBID uint
	roundDBID uint
	effects   []game.EffectKind
	rounds    int
	gate      chan struct{}
	failGroup error
}

func (m *fakeMirror) CreateGroup(ctx context.Context, group Group) (uint, map[int]uint, error) {
	if m.failGroup != nil {
		return 0, nil, m.failGroup
	}
	if m.groupDBID == 0 {
		return 0, nil, nil
	}
	ids := make(map[int]uint, len(group.Players))
	for _, player := range group.Players {
		ids[player.ID] = uint(100 + player.ID)
	}
	return m.groupDBID, ids, nil
}

func (m *fakeMirror) CreateRound(ctx context.Context, groupDBID uint, round game.Round) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds++
	if m.roundDBID == 0 {
		return 0, nil
	}
	id := m.roundDBID
	m.roundDBID++
	return id, nil
}

func (m *fakeMirror) Apply(ctx context.Context, groupDBID uint, round game.Round, effect game.Effect) error {
	if m.gate != nil && !effect.Awaited() {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.effects = append(m.effects, effect.Kind)
	return nil
}

func (m *fakeMirror) applied() []game.EffectKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]game.EffectKind(nil), m.effects...)
}

func doRequest(t *testing.T, client *http.Client, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
}

func expectError(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	expectStatus(t, resp, status)
	body := decodeBody(t, resp)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %#v", message, body["error"])
	}
}

func signUp(t *testing.T, client *http.Client, ts *httptest.Server, email string) {
	t.Helper()
	resp := doRequest(t, client, ts, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	expectStatus(t, resp, http.StatusCreated)
}

// seedList creates a category holding one list with count named items.
func seedList(t *testing.T, srv *Server, count int) catalog.List {
	t.Helper()
	ctx := context.Background()
	category, err := srv.catalog.CreateCategory(ctx, catalog.CategoryInput{Name: "Movies", Icon: "film"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return seedListIn(t, srv, category.ID, "Highest grossing films", count)
}

func seedListIn(t *testing.T, srv *Server, categoryID uint, title string, count int) catalog.List {
	t.Helper()
	ctx := context.Background()
	list, err := srv.catalog.CreateList(ctx, catalog.ListInput{CategoryID: categoryID, Title: title}, count)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	inputs := make([]catalog.ItemInput, 0, len(list.Items))
	for _, item := range list.Items {
		inputs = append(inputs, catalog.ItemInput{
			ID:   item.ID,
			Rank: item.Rank,
			Name: fmt.Sprintf("%s #%d", title, item.Rank),
		})
	}
	if _, err := srv.catalog.SaveItems(ctx, list.ID, inputs); err != nil {
		t.Fatalf("save items: %v", err)
	}
	list, err = srv.catalog.List(ctx, list.ID)
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	return list
}

func createGroup(t *testing.T, client *http.Client, ts *httptest.Server, players []playerInput) map[string]any {
	t.Helper()
	resp := doRequest(t, client, ts, http.MethodPost, "/api/groups", map[string]any{
		"name":    "Friday",
		"players": players,
	})
	expectStatus(t, resp, http.StatusCreated)
	return decodeBody(t, resp)
}

func defaultPlayers() []playerInput {
	return []playerInput{
		{Name: "Ada"},
		{Name: "Grace", IsJudge: true},
		{Name: "Linus"},
	}
}

// playerIDs maps player names to ids in a round snapshot.
func playerIDs(t *testing.T, snapshot map[string]any) map[string]int {
	t.Helper()
	players, ok := snapshot["players"].([]any)
	if !ok {
		t.Fatalf("expected players array, got %T", snapshot["players"])
	}
	ids := make(map[string]int, len(players))
	for _, raw := range players {
		player := raw.(map[string]any)
		ids[player["name"].(string)] = int(player["id"].(float64))
	}
	return ids
}

// startedRound signs up, creates a group with Grace judging and starts a
// round on a list of itemCount items.
func startedRound(t *testing.T, srv *Server, client *http.Client, ts *httptest.Server, itemCount int) (string, catalog.List, map[string]int) {
	t.Helper()
	signUp(t, client, ts, "host@example.com")
	list := seedList(t, srv, itemCount)
	snapshot := createGroup(t, client, ts, defaultPlayers())
	roundID := snapshot["round_id"].(string)

	resp := doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/list", map[string]any{"list_id": list.ID})
	expectStatus(t, resp, http.StatusOK)
	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/start", map[string]any{"draft_type": "fixed"})
	expectStatus(t, resp, http.StatusOK)
	return roundID, list, playerIDs(t, snapshot)
}

func guess(t *testing.T, client *http.Client, ts *httptest.Server, roundID string, itemID uint, playerID int) *http.Response {
	t.Helper()
	return doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/guesses", map[string]any{
		"item_id":   itemID,
		"player_id": playerID,
	})
}

func scoreOf(t *testing.T, snapshot map[string]any, playerID int) int {
	t.Helper()
	for _, raw := range snapshot["players"].([]any) {
		player := raw.(map[string]any)
		if int(player["id"].(float64)) == playerID {
			return int(player["score"].(float64))
		}
	}
	t.Fatalf("player %d not in snapshot", playerID)
	return 0
}
