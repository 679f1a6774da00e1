package server

import (
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"

	"top-ten/internal/config"
	"top-ten/internal/game"
)

func TestRoundPlaysToCompletion(t *testing.T) {
	mirror := &fakeMirror{}
	srv, ts, client := newTestApp(t, config.Default(), mirror)
	roundID, list, ids := startedRound(t, srv, client, ts, 3)

	resp := guess(t, client, ts, roundID, list.Items[0].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)
	resp = guess(t, client, ts, roundID, list.Items[1].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)
	snapshot := decodeBody(t, resp)
	if snapshot["status"] != "playing" {
		t.Fatalf("expected playing after two guesses, got %v", snapshot["status"])
	}

	resp = guess(t, client, ts, roundID, list.Items[2].ID, ids["Linus"])
	expectStatus(t, resp, http.StatusOK)
	snapshot = decodeBody(t, resp)
	if snapshot["status"] != "completed" {
		t.Fatalf("expected completed, got %v", snapshot["status"])
	}
	winners := snapshot["winner_ids"].([]any)
	if len(winners) != 1 || int(winners[0].(float64)) != ids["Ada"] {
		t.Fatalf("expected Ada to win alone, got %v", winners)
	}
	if scoreOf(t, snapshot, ids["Ada"]) != 2 || scoreOf(t, snapshot, ids["Linus"]) != 1 {
		t.Fatalf("unexpected scores %v", snapshot["players"])
	}

	resp = guess(t, client, ts, roundID, list.Items[0].ID, ids["Linus"])
	expectError(t, resp, http.StatusConflict, game.ErrNotPlaying.Error())

	resp = doRequest(t, client, ts, http.MethodGet, "/api/groups/"+snapshot["group_id"].(string), nil)
	expectStatus(t, resp, http.StatusOK)
	group := decodeBody(t, resp)
	for _, raw := range group["players"].([]any) {
		player := raw.(map[string]any)
		wins := int(player["total_wins"].(float64))
		if player["name"] == "Ada" && wins != 1 {
			t.Fatalf("expected Ada to have one win, got %d", wins)
		}
		if player["name"] != "Ada" && wins != 0 {
			t.Fatalf("expected %v to have no wins, got %d", player["name"], wins)
		}
	}

	srv.Close()
	applied := mirror.applied()
	for _, kind := range []game.EffectKind{
		game.EffectListAssigned,
		game.EffectRoundStarted,
		game.EffectGuessRecorded,
		game.EffectScoreUpdated,
		game.EffectRoundCompleted,
		game.EffectWinRecorded,
	} {
		if !slices.Contains(applied, kind) {
			t.Fatalf("expected %s to be mirrored, got %v", kind, applied)
		}
	}
}

func TestRoundCompletesAtTenItems(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	roundID, list, ids := startedRound(t, srv, client, ts, 12)

	var snapshot map[string]any
	for i := 0; i < 10; i++ {
		player := ids["Ada"]
		if i%2 == 1 {
			player = ids["Linus"]
		}
		resp := guess(t, client, ts, roundID, list.Items[i].ID, player)
		expectStatus(t, resp, http.StatusOK)
		snapshot = decodeBody(t, resp)
	}
	if snapshot["status"] != "completed" {
		t.Fatalf("expected completed after ten guesses, got %v", snapshot["status"])
	}
	if int(snapshot["target"].(float64)) != 10 {
		t.Fatalf("expected target 10, got %v", snapshot["target"])
	}
	if winners := snapshot["winner_ids"].([]any); len(winners) != 2 {
		t.Fatalf("expected a tie between two players, got %v", winners)
	}
}

func TestGuessRejections(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	roundID, list, ids := startedRound(t, srv, client, ts, 3)

	resp := guess(t, client, ts, roundID, list.Items[0].ID, ids["Grace"])
	expectError(t, resp, http.StatusConflict, game.ErrJudgeCannotScore.Error())

	resp = guess(t, client, ts, roundID, list.Items[0].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)
	resp = guess(t, client, ts, roundID, list.Items[0].ID, ids["Linus"])
	expectError(t, resp, http.StatusConflict, game.ErrAlreadyGuessed.Error())

	resp = guess(t, client, ts, roundID, 99999, ids["Linus"])
	expectError(t, resp, http.StatusBadRequest, game.ErrUnknownItem.Error())

	resp = guess(t, client, ts, roundID, list.Items[1].ID, 4242)
	expectError(t, resp, http.StatusBadRequest, game.ErrUnknownPlayer.Error())

	resp = doRequest(t, client, ts, http.MethodGet, "/api/rounds/"+roundID, nil)
	expectStatus(t, resp, http.StatusOK)
	snapshot := decodeBody(t, resp)
	if scoreOf(t, snapshot, ids["Grace"]) != 0 {
		t.Fatalf("expected judge score 0")
	}
	if scoreOf(t, snapshot, ids["Ada"]) != 1 || scoreOf(t, snapshot, ids["Linus"]) != 0 {
		t.Fatalf("unexpected scores %v", snapshot["players"])
	}
	if int(snapshot["guessed_count"].(float64)) != 1 {
		t.Fatalf("expected one guessed item, got %v", snapshot["guessed_count"])
	}
}

func TestSetupGuards(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	list := seedList(t, srv, 3)
	snapshot := createGroup(t, client, ts, defaultPlayers())
	roundID := snapshot["round_id"].(string)
	ids := playerIDs(t, snapshot)

	resp := doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/start", nil)
	expectError(t, resp, http.StatusConflict, game.ErrNoList.Error())

	resp = guess(t, client, ts, roundID, list.Items[0].ID, ids["Ada"])
	expectError(t, resp, http.StatusConflict, game.ErrNotPlaying.Error())

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/list", map[string]any{})
	expectError(t, resp, http.StatusBadRequest, "Please choose a list")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/list", map[string]any{"list_id": 99999})
	expectError(t, resp, http.StatusNotFound, "Not found")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/list", map[string]any{"list_id": list.ID})
	expectStatus(t, resp, http.StatusOK)
	assigned := decodeBody(t, resp)
	if assigned["list_title"] != list.Title {
		t.Fatalf("expected list title %q, got %v", list.Title, assigned["list_title"])
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/start", map[string]any{"draft_type": "snake"})
	expectError(t, resp, http.StatusBadRequest, "Draft type must be serpentine or fixed")

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/start", nil)
	expectStatus(t, resp, http.StatusOK)
	started := decodeBody(t, resp)
	if started["status"] != "playing" || started["draft_type"] != "serpentine" {
		t.Fatalf("expected serpentine playing round, got %v %v", started["status"], started["draft_type"])
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/list", map[string]any{"list_id": list.ID})
	expectError(t, resp, http.StatusConflict, game.ErrNotSetup.Error())
}

func TestNextRoundRotatesJudge(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	roundID, list, ids := startedRound(t, srv, client, ts, 2)

	resp := doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/next", nil)
	expectError(t, resp, http.StatusConflict, game.ErrNotCompleted.Error())

	guess(t, client, ts, roundID, list.Items[0].ID, ids["Ada"])
	resp = guess(t, client, ts, roundID, list.Items[1].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/next", nil)
	expectStatus(t, resp, http.StatusCreated)
	second := decodeBody(t, resp)
	secondID := second["round_id"].(string)
	if secondID == roundID {
		t.Fatalf("expected a new round id")
	}
	if int(second["round_number"].(float64)) != 2 {
		t.Fatalf("expected round number 2, got %v", second["round_number"])
	}
	if second["status"] != "setup" {
		t.Fatalf("expected setup status, got %v", second["status"])
	}
	if int(second["judge_id"].(float64)) != ids["Linus"] {
		t.Fatalf("expected Linus to judge, got %v", second["judge_id"])
	}
	for _, id := range ids {
		if scoreOf(t, second, id) != 0 {
			t.Fatalf("expected scores reset, got %v", second["players"])
		}
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+roundID+"/next", nil)
	expectStatus(t, resp, http.StatusOK)
	if again := decodeBody(t, resp); again["round_id"] != secondID {
		t.Fatalf("expected repeated next to return %s, got %v", secondID, again["round_id"])
	}

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+secondID+"/list", map[string]any{"list_id": list.ID})
	expectStatus(t, resp, http.StatusOK)
	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+secondID+"/start", nil)
	expectStatus(t, resp, http.StatusOK)
	resp = guess(t, client, ts, secondID, list.Items[0].ID, ids["Linus"])
	expectError(t, resp, http.StatusConflict, game.ErrJudgeCannotScore.Error())
	guess(t, client, ts, secondID, list.Items[0].ID, ids["Grace"])
	resp = guess(t, client, ts, secondID, list.Items[1].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, client, ts, http.MethodPost, "/api/rounds/"+secondID+"/next", nil)
	expectStatus(t, resp, http.StatusCreated)
	third := decodeBody(t, resp)
	if int(third["judge_id"].(float64)) != ids["Ada"] {
		t.Fatalf("expected judge to wrap to Ada, got %v", third["judge_id"])
	}

	resp = doRequest(t, client, ts, http.MethodGet, "/api/groups/"+third["group_id"].(string)+"?per_page=2", nil)
	expectStatus(t, resp, http.StatusOK)
	group := decodeBody(t, resp)
	rounds := group["rounds"].([]any)
	if len(rounds) != 2 {
		t.Fatalf("expected two rounds on the first page, got %d", len(rounds))
	}
	if first := rounds[0].(map[string]any); first["id"] != third["round_id"] {
		t.Fatalf("expected newest round first, got %v", first["id"])
	}
	pagination := group["pagination"].(map[string]any)
	if int(pagination["total"].(float64)) != 3 || pagination["has_next"] != true {
		t.Fatalf("unexpected pagination %v", pagination)
	}
}

func TestSessionFollowsCurrentRound(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")
	seedList(t, srv, 3)

	resp := doRequest(t, client, ts, http.MethodGet, "/api/session", nil)
	expectStatus(t, resp, http.StatusOK)
	if session := decodeBody(t, resp); session["round_id"] != "" || session["is_judge"] != false {
		t.Fatalf("expected empty session, got %v", session)
	}

	snapshot := createGroup(t, client, ts, defaultPlayers())
	resp = doRequest(t, client, ts, http.MethodGet, "/api/session", nil)
	expectStatus(t, resp, http.StatusOK)
	session := decodeBody(t, resp)
	if session["round_id"] != snapshot["round_id"] || session["group_id"] != snapshot["group_id"] {
		t.Fatalf("expected session to point at the new round, got %v", session)
	}
	if session["is_judge"] != true {
		t.Fatalf("expected judge session")
	}
}

func TestOtherUserCannotJudge(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	roundID, list, ids := startedRound(t, srv, client, ts, 3)

	other := newClient(t)
	signUp(t, other, ts, "guest@example.com")
	resp := guess(t, other, ts, roundID, list.Items[0].ID, ids["Ada"])
	expectError(t, resp, http.StatusForbidden, "only the judge can change this round")

	resp = doRequest(t, other, ts, http.MethodGet, "/api/rounds/"+roundID, nil)
	expectError(t, resp, http.StatusNotFound, "round not found")

	round, ok := srv.store.GetRound(roundID)
	if !ok {
		t.Fatalf("expected round %s in store", roundID)
	}
	board := roundSnapshot(round, false)
	for _, item := range board["items"].([]map[string]any) {
		if _, ok := item["name"]; ok {
			t.Fatalf("expected unguessed items to stay hidden")
		}
	}

	resp = doRequest(t, other, ts, http.MethodGet, "/api/groups/"+round.GroupID, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestCreateGroupValidation(t *testing.T) {
	_, ts, client := newTestApp(t, config.Default(), &fakeMirror{})
	signUp(t, client, ts, "host@example.com")

	cases := []struct {
		name    string
		players []playerInput
		message string
	}{
		{"too few", []playerInput{{Name: "Ada", IsJudge: true}, {Name: "Grace"}}, "At least 3 players are required"},
		{"unnamed", []playerInput{{Name: "Ada", IsJudge: true}, {Name: ""}, {Name: "Linus"}}, "All players must have names"},
		{"no judge", []playerInput{{Name: "Ada"}, {Name: "Grace"}, {Name: "Linus"}}, "Please select a judge"},
		{"two judges", []playerInput{{Name: "Ada", IsJudge: true}, {Name: "Grace", IsJudge: true}, {Name: "Linus"}}, "Only one player can be the judge"},
		{"duplicate", []playerInput{{Name: "Ada", IsJudge: true}, {Name: "ada"}, {Name: "Linus"}}, "Player names must be unique"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, client, ts, http.MethodPost, "/api/groups", map[string]any{"players": tc.players})
			expectError(t, resp, http.StatusBadRequest, tc.message)
		})
	}
}

func TestCreateGroupFailureIsReported(t *testing.T) {
	srv, ts, client := newTestApp(t, config.Default(), &fakeMirror{failGroup: errors.New("connection refused")})
	signUp(t, client, ts, "host@example.com")

	resp := doRequest(t, client, ts, http.MethodPost, "/api/groups", map[string]any{"players": defaultPlayers()})
	expectError(t, resp, http.StatusInternalServerError, "failed to create game")
	if srv.store.RoundCount() != 0 {
		t.Fatalf("expected no rounds after failed create")
	}
}

func TestDatabaseIDsNameGroupsAndRounds(t *testing.T) {
	mirror := &fakeMirror{groupDBID: 7, roundDBID: 42}
	srv, ts, client := newTestApp(t, config.Default(), mirror)
	signUp(t, client, ts, "host@example.com")
	seedList(t, srv, 3)

	snapshot := createGroup(t, client, ts, defaultPlayers())
	if snapshot["group_id"] != "group-7" || snapshot["round_id"] != "round-42" {
		t.Fatalf("expected database ids, got %v %v", snapshot["group_id"], snapshot["round_id"])
	}
	resp := doRequest(t, client, ts, http.MethodGet, "/api/rounds/round-42", nil)
	expectStatus(t, resp, http.StatusOK)

	group, ok := srv.store.GetGroup("group-7")
	if !ok {
		t.Fatalf("expected group-7 in store")
	}
	for _, player := range group.Players {
		if player.DBID != uint(100+player.ID) {
			t.Fatalf("expected player db id for %s, got %d", player.Name, player.DBID)
		}
	}
}

func TestMirrorDoesNotBlockGuesses(t *testing.T) {
	mirror := &fakeMirror{gate: make(chan struct{})}
	release := sync.OnceFunc(func() { close(mirror.gate) })
	srv, ts, client := newTestApp(t, config.Default(), mirror)
	t.Cleanup(release)
	roundID, list, ids := startedRound(t, srv, client, ts, 3)

	resp := guess(t, client, ts, roundID, list.Items[0].ID, ids["Ada"])
	expectStatus(t, resp, http.StatusOK)
	resp = guess(t, client, ts, roundID, list.Items[1].ID, ids["Linus"])
	expectStatus(t, resp, http.StatusOK)
	if scoreOf(t, decodeBody(t, resp), ids["Linus"]) != 1 {
		t.Fatalf("expected local score to update before mirroring")
	}
	if slices.Contains(mirror.applied(), game.EffectGuessRecorded) {
		t.Fatalf("expected guesses to still be waiting on the mirror")
	}

	release()
	srv.Close()
	count := 0
	for _, kind := range mirror.applied() {
		if kind == game.EffectGuessRecorded {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected two mirrored guesses, got %d", count)
	}
}
