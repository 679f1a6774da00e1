package server

import (
	"testing"

	"top-ten/internal/config"
)

func TestValidateRosterCleansNames(t *testing.T) {
	names, judge, err := validateRoster([]playerInput{
		{Name: "  Ada   Lovelace "},
		{Name: "Grace", IsJudge: true},
		{Name: "Zoë"},
	}, config.Default())
	if err != nil {
		t.Fatalf("expected roster to pass, got %v", err)
	}
	if judge != 1 {
		t.Fatalf("expected judge index 1, got %d", judge)
	}
	if names[0] != "Ada Lovelace" || names[2] != "Zoë" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestValidateRosterLimits(t *testing.T) {
	cfg := config.Default()
	cfg.MaxPlayers = 3
	players := []playerInput{{Name: "A", IsJudge: true}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	if _, _, err := validateRoster(players, cfg); err != errTooManyPlayers {
		t.Fatalf("expected errTooManyPlayers, got %v", err)
	}
	if msg := rosterMessage(errTooManyPlayers, cfg); msg != "No more than 3 players can play" {
		t.Fatalf("unexpected message %q", msg)
	}
	players = []playerInput{{Name: "A", IsJudge: true}, {Name: "<script>"}, {Name: "C"}}
	if _, _, err := validateRoster(players, cfg); err != errUnnamedPlayer {
		t.Fatalf("expected unsafe name to be rejected, got %v", err)
	}
}

func TestValidateGroupName(t *testing.T) {
	name, err := validateGroupName("   ")
	if err != nil || name != defaultGroupName {
		t.Fatalf("expected default group name, got %q %v", name, err)
	}
	if _, err := validateGroupName("Trivia {night}"); err == nil {
		t.Fatalf("expected braces to be rejected")
	}
}
