package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"top-ten/internal/config"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

const (
	maxNameLength      = 40
	maxGroupNameLength = 80
	defaultGroupName   = "Game night"
)

var (
	errTooFewPlayers  = errors.New("too few players")
	errTooManyPlayers = errors.New("too many players")
	errUnnamedPlayer  = errors.New("all players must have names")
	errNoJudge        = errors.New("no judge selected")
	errManyJudges     = errors.New("more than one judge selected")
	errDuplicateName  = errors.New("player names must be unique")
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
	})
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateGroupName(name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return defaultGroupName, nil
	}
	return validateText("group name", trimmed, maxGroupNameLength)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len([]rune(trimmed)) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}

// validateRoster checks the players entered on the setup screen and returns
// their cleaned names and the index of the judge.
func validateRoster(players []playerInput, cfg config.Config) ([]string, int, error) {
	if len(players) < cfg.MinPlayers {
		return nil, 0, errTooFewPlayers
	}
	if cfg.MaxPlayers > 0 && len(players) > cfg.MaxPlayers {
		return nil, 0, errTooManyPlayers
	}
	fold := cases.Fold()
	names := make([]string, 0, len(players))
	seen := make(map[string]struct{}, len(players))
	judge := -1
	for i, player := range players {
		name, err := validateName(player.Name)
		if err != nil {
			return nil, 0, errUnnamedPlayer
		}
		key := fold.String(name)
		if _, dup := seen[key]; dup {
			return nil, 0, errDuplicateName
		}
		seen[key] = struct{}{}
		names = append(names, name)
		if player.IsJudge {
			if judge >= 0 {
				return nil, 0, errManyJudges
			}
			judge = i
		}
	}
	if judge < 0 {
		return nil, 0, errNoJudge
	}
	return names, judge, nil
}

func rosterMessage(err error, cfg config.Config) string {
	switch {
	case errors.Is(err, errTooFewPlayers):
		return fmt.Sprintf("At least %d players are required", cfg.MinPlayers)
	case errors.Is(err, errTooManyPlayers):
		return fmt.Sprintf("No more than %d players can play", cfg.MaxPlayers)
	case errors.Is(err, errUnnamedPlayer):
		return "All players must have names"
	case errors.Is(err, errNoJudge):
		return "Please select a judge"
	case errors.Is(err, errManyJudges):
		return "Only one player can be the judge"
	case errors.Is(err, errDuplicateName):
		return "Player names must be unique"
	default:
		return "invalid players"
	}
}
