package engine

import "errors"

// Reason is a stable code for why a command was rejected.
type Reason string

const (
	ReasonGameNotPlaying  Reason = "game_not_playing"
	ReasonNotYourTurn     Reason = "not_your_turn"
	ReasonCardNotFound    Reason = "card_not_found"
	ReasonInCommitment    Reason = "in_commitment"
	ReasonCommitmentRank  Reason = "commitment_rank"
	ReasonNoPair          Reason = "no_pair"
	ReasonEmptyDiscard    Reason = "empty_discard"
	ReasonJokerPair       Reason = "joker_pair"
	ReasonRankMismatch    Reason = "rank_mismatch"
	ReasonInvalidVictim   Reason = "invalid_victim"
	ReasonVictimEmpty     Reason = "victim_empty"
	ReasonVictimCommitted Reason = "victim_committed"
	ReasonGroupingFault   Reason = "grouping_fault"
	ReasonBusy            Reason = "busy"
	ReasonTurnDone        Reason = "turn_done"
	ReasonUnknownCommand  Reason = "unknown_command"
)

// ActionError reports a rejected command. State is never modified when an
// ActionError is returned. Message is the localized status line.
type ActionError struct {
	Reason  Reason
	Message string
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Message
}

// Is matches any *ActionError with the same Reason, so the sentinels below
// work with errors.Is regardless of message.
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Reason == e.Reason
}

// Sentinels for errors.Is.
var (
	ErrGameNotPlaying  = &ActionError{Reason: ReasonGameNotPlaying}
	ErrNotYourTurn     = &ActionError{Reason: ReasonNotYourTurn}
	ErrCardNotFound    = &ActionError{Reason: ReasonCardNotFound}
	ErrInCommitment    = &ActionError{Reason: ReasonInCommitment}
	ErrCommitmentRank  = &ActionError{Reason: ReasonCommitmentRank}
	ErrNoPair          = &ActionError{Reason: ReasonNoPair}
	ErrEmptyDiscard    = &ActionError{Reason: ReasonEmptyDiscard}
	ErrJokerPair       = &ActionError{Reason: ReasonJokerPair}
	ErrRankMismatch    = &ActionError{Reason: ReasonRankMismatch}
	ErrInvalidVictim   = &ActionError{Reason: ReasonInvalidVictim}
	ErrVictimEmpty     = &ActionError{Reason: ReasonVictimEmpty}
	ErrVictimCommitted = &ActionError{Reason: ReasonVictimCommitted}
	ErrBusy            = &ActionError{Reason: ReasonBusy}
	ErrTurnDone        = &ActionError{Reason: ReasonTurnDone}
)

// ReasonOf extracts the Reason from err, or "" if err is not an ActionError.
func ReasonOf(err error) Reason {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
