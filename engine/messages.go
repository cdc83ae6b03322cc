package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Each key is also the English template.
const (
	msgPlayerName = "Player"
	msgAIName     = "Computer"
	msgJoker      = "Joker"

	msgDealt           = "Round %d: dealt %d cards to each player."
	msgFirstPlayer     = "%s goes first."
	msgDiscarded       = "%s discarded %s."
	msgTookDiscard     = "%s took %s from the discard pile with %s."
	msgPledged         = "%s pledged %s."
	msgCompletedPledge = "%s completed the pair of %s."
	msgExtended        = "%s added %s to the top group."
	msgRegrouped       = "%s added %s and regrouped the top of the pile."
	msgStole           = "%s stole %d points from %s with %s."
	msgGameOver        = "Game over: %s."

	msgNotPlaying      = "The game is not in progress."
	msgNotYourTurn     = "It is %s's turn."
	msgCardNotFound    = "That card is not in your hand."
	msgInCommitment    = "You must complete your commitment first."
	msgCommitmentRank  = "You must complete your commitment with rank %s."
	msgNoPair          = "No pair available for this card."
	msgEmptyDiscard    = "The discard pile is empty."
	msgJokerPair       = "A joker cannot pair with another joker."
	msgRankMismatch    = "%s does not match %s on the discard pile."
	msgInvalidVictim   = "Choose another player's score pile."
	msgVictimEmpty     = "%s has nothing to steal."
	msgVictimCommitted = "The pledge card of %s cannot be stolen."
	msgGroupingFault   = "The cards could not be regrouped."
	msgBusy            = "Wait for the computer to finish its turn."
	msgTurnDone        = "You have already played this turn."
	msgUnknownCommand  = "Unknown action."

	msgEndEmpty      = "the cards ran out"
	msgEndStalemate  = "stalemate"
	msgEndManualSkip = "skipped"
)

var czech = map[string]string{
	msgPlayerName: "Hráč",
	msgAIName:     "Počítač",
	msgJoker:      "Žolík",

	msgDealt:           "Kolo %d: každý hráč dostal %d karet.",
	msgFirstPlayer:     "Začíná %s.",
	msgDiscarded:       "%s odhodil(a) %s.",
	msgTookDiscard:     "%s vzal(a) %s z odhazovacího balíčku kartou %s.",
	msgPledged:         "%s slíbil(a) %s.",
	msgCompletedPledge: "%s dokončil(a) pár %s.",
	msgExtended:        "%s přidal(a) %s na vrchní skupinu.",
	msgRegrouped:       "%s přidal(a) %s a přeskupil(a) vrch balíčku.",
	msgStole:           "%s ukradl(a) %d bodů hráči %s kartou %s.",
	msgGameOver:        "Konec hry: %s.",

	msgNotPlaying:      "Hra neprobíhá.",
	msgNotYourTurn:     "Na tahu je %s.",
	msgCardNotFound:    "Tuto kartu nemáš v ruce.",
	msgInCommitment:    "Nejdřív musíš dokončit svůj slib.",
	msgCommitmentRank:  "Slib musíš dokončit kartou %s.",
	msgNoPair:          "K této kartě není pár.",
	msgEmptyDiscard:    "Odhazovací balíček je prázdný.",
	msgJokerPair:       "Žolík nemůže tvořit pár s jiným žolíkem.",
	msgRankMismatch:    "%s neodpovídá kartě %s na odhazovacím balíčku.",
	msgInvalidVictim:   "Vyber bodovací balíček jiného hráče.",
	msgVictimEmpty:     "%s nemá co ukrást.",
	msgVictimCommitted: "Slíbenou kartu hráče %s nelze ukrást.",
	msgGroupingFault:   "Karty nelze přeskupit.",
	msgBusy:            "Počkej, až počítač dohraje tah.",
	msgTurnDone:        "V tomto tahu už jsi hrál(a).",
	msgUnknownCommand:  "Neznámá akce.",

	msgEndEmpty:      "došly karty",
	msgEndStalemate:  "pat",
	msgEndManualSkip: "přeskočeno",
}

var (
	supportedLanguages = []language.Tag{language.English, language.Czech}
	languageMatcher    = language.NewMatcher(supportedLanguages)
	messageCatalog     = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range czech {
		_ = b.SetString(language.Czech, key, msg)
		_ = b.SetString(language.English, key, key)
	}
	return b
}

// Messages renders event-log and status lines in one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages returns a renderer for the closest supported language to lang.
// Unknown or malformed tags fall back to English.
func NewMessages(lang string) *Messages {
	tag := language.English
	if t, err := language.Parse(lang); err == nil {
		_, idx, conf := languageMatcher.Match(t)
		if conf != language.No {
			tag = supportedLanguages[idx]
		}
	}
	return &Messages{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messageCatalog))}
}

// Language returns the tag in use.
func (m *Messages) Language() language.Tag { return m.tag }

// Sprintf formats the template registered under key.
func (m *Messages) Sprintf(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}

// CardName returns the localized display name of c.
func (m *Messages) CardName(c Card) string {
	if c.IsJoker() {
		return m.Sprintf(msgJoker)
	}
	return c.String()
}

// EndReason returns the localized description of r.
func (m *Messages) EndReason(r EndReason) string {
	switch r {
	case EndEmpty:
		return m.Sprintf(msgEndEmpty)
	case EndStalemate:
		return m.Sprintf(msgEndStalemate)
	case EndManualSkip:
		return m.Sprintf(msgEndManualSkip)
	}
	return string(r)
}

// Reject builds the rejection for a reason that carries no details:
// ReasonBusy, ReasonTurnDone or ReasonGameNotPlaying. Other reasons get the
// generic unknown-action message.
func (m *Messages) Reject(reason Reason) *ActionError {
	switch reason {
	case ReasonBusy:
		return m.fail(reason, msgBusy)
	case ReasonTurnDone:
		return m.fail(reason, msgTurnDone)
	case ReasonGameNotPlaying:
		return m.fail(reason, msgNotPlaying)
	}
	return m.fail(reason, msgUnknownCommand)
}

func (m *Messages) fail(reason Reason, key string, args ...any) *ActionError {
	return &ActionError{Reason: reason, Message: m.Sprintf(key, args...)}
}
