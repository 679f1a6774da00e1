package game

type EffectKind string

const (
	EffectRoundCreated   EffectKind = "round_created"
	EffectListAssigned   EffectKind = "list_assigned"
	EffectRoundStarted   EffectKind = "round_started"
	EffectGuessRecorded  EffectKind = "guess_recorded"
	EffectScoreUpdated   EffectKind = "score_updated"
	EffectRoundCompleted EffectKind = "round_completed"
	EffectWinRecorded    EffectKind = "win_recorded"
)

// Effect describes one write the storage mirror should perform after a
// transition. Only the fields relevant to Kind are set.
type Effect struct {
	Kind      EffectKind
	RoundID   string
	PlayerID  int
	ItemID    uint
	ListID    uint
	Score     int
	WinnerID  int
	DraftType DraftType
	Status    Status
}

// Awaited reports whether callers need the mirror to finish before replying,
// because later requests depend on the stored identifiers.
func (e Effect) Awaited() bool {
	switch e.Kind {
	case EffectRoundCreated, EffectListAssigned:
		return true
	default:
		return false
	}
}

// Split partitions effects into the ones that must be awaited and the ones
// that can be mirrored in the background, keeping order within each.
func Split(effects []Effect) (awaited []Effect, background []Effect) {
	for _, effect := range effects {
		if effect.Awaited() {
			awaited = append(awaited, effect)
		} else {
			background = append(background, effect)
		}
	}
	return awaited, background
}
