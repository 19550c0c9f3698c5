// Package i18n provides display strings in English and French.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/abhisek/flagz/internal/roster"
)

// Message keys.
const (
	KeyCategoryGroup    = "category.group"
	KeyStudyProgress    = "study.progress"
	KeyCaughtUp         = "msg.caught_up"
	KeyRosterLoading    = "msg.roster_loading"
	KeyResetConfirm     = "msg.reset.confirm"
	KeyResetDone        = "msg.reset.done"
	KeyResetFailed      = "msg.reset.failed"
	KeyResetCancelled   = "msg.reset.cancelled"
	KeySaveFailed       = "msg.save_failed"
	KeyUnknownCategory  = "msg.unknown_category"
	KeyReasonIncomplete = "reason.incomplete"
	KeyReasonReviewDue  = "reason.review_due"
	KeySummaryTotal     = "summary.total"
	KeySummaryNew       = "summary.new"
	KeySummaryElapsed   = "summary.elapsed"
	KeyCompleted        = "status.completed"
	KeyInProgress       = "status.in_progress"
	KeyRecommended      = "status.recommended"
	KeyLearned          = "status.learned"

	KeyTitleCategories = "title.categories"
	KeyTitleStudy      = "title.study"
	KeyTitleSummary    = "title.summary"
	KeyPreviewIntro    = "study.preview"
	KeyRecognizePrompt = "study.prompt"
	KeyHookLoading     = "study.hook_loading"
	KeySummaryNone     = "summary.none"
	KeyTitleHistory    = "title.history"
	KeyHistoryEmpty    = "history.empty"
	KeyHistoryDetail   = "history.detail"

	KeyHintSelect     = "hint.select"
	KeyHintSmartLearn = "hint.smart_learn"
	KeyHintReset      = "hint.reset"
	KeyHintQuit       = "hint.quit"
	KeyHintBack       = "hint.back"
	KeyHintStart      = "hint.start"
	KeyHintRecognized = "hint.recognized"
	KeyHintNotYet     = "hint.not_yet"
	KeyHintNext       = "hint.next"
	KeyHintHook       = "hint.hook"
	KeyHintContinue   = "hint.continue"
	KeyHintHome       = "hint.home"
	KeyHintConfirm    = "hint.confirm"
	KeyHintCancel     = "hint.cancel"
	KeyHintHistory    = "hint.history"
	KeyHintDetails    = "hint.details"
)

var supported = []language.Tag{language.English, language.French}

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyCategoryGroup:    "%s %d/%d",
		KeyStudyProgress:    "%d / %d",
		KeyCaughtUp:         "All caught up! Nothing is due for review.",
		KeyRosterLoading:    "Flags are still loading, try again in a moment.",
		KeyResetConfirm:     "Reset all progress? This cannot be undone.",
		KeyResetDone:        "All progress has been reset.",
		KeyResetFailed:      "Progress was cleared but could not be saved.",
		KeyResetCancelled:   "Reset cancelled.",
		KeySaveFailed:       "Progress could not be saved.",
		KeyUnknownCategory:  "Unknown category.",
		KeyReasonIncomplete: "%.0f%% learned so far",
		KeyReasonReviewDue:  "Due for review (%d days since last study)",
		KeySummaryTotal:     "Flags studied: %d",
		KeySummaryNew:       "Newly learned: %d",
		KeySummaryElapsed:   "Time: %s",
		KeyCompleted:        "completed",
		KeyInProgress:       "in progress",
		KeyRecommended:      "recommended",
		KeyLearned:          "learned",
		KeyTitleCategories:  "Flag categories",
		KeyTitleStudy:       "Study",
		KeyTitleSummary:     "Session complete",
		KeyPreviewIntro:     "%d flags in this session",
		KeyRecognizePrompt:  "Do you recognise this flag?",
		KeyHookLoading:      "Thinking of a memory hook...",
		KeySummaryNone:      "Nothing new this time. Keep going!",
		KeyHintSelect:       "study",
		KeyHintSmartLearn:   "smart learn",
		KeyHintReset:        "reset",
		KeyHintQuit:         "quit",
		KeyHintBack:         "back",
		KeyHintStart:        "start",
		KeyHintRecognized:   "I know it",
		KeyHintNotYet:       "not yet",
		KeyHintNext:         "next",
		KeyHintHook:         "memory hook",
		KeyHintContinue:     "next category",
		KeyHintHome:         "categories",
		KeyHintConfirm:      "confirm",
		KeyHintCancel:       "cancel",
		KeyHintHistory:      "history",
		KeyHintDetails:      "details",
		KeyTitleHistory:     "Smart learning history",
		KeyHistoryEmpty:     "No smart-learning sessions yet. Press s on the category list to start one.",
		KeyHistoryDetail:    "%d of %d learned, studied %d times",
	},
	language.French: {
		KeyCategoryGroup:    "%s %d/%d",
		KeyStudyProgress:    "%d / %d",
		KeyCaughtUp:         "Tout est à jour ! Aucune révision n'est due.",
		KeyRosterLoading:    "Les drapeaux sont en cours de chargement, réessayez dans un instant.",
		KeyResetConfirm:     "Réinitialiser toute la progression ? Cette action est irréversible.",
		KeyResetDone:        "Toute la progression a été réinitialisée.",
		KeyResetFailed:      "La progression a été effacée mais n'a pas pu être enregistrée.",
		KeyResetCancelled:   "Réinitialisation annulée.",
		KeySaveFailed:       "La progression n'a pas pu être enregistrée.",
		KeyUnknownCategory:  "Catégorie inconnue.",
		KeyReasonIncomplete: "%.0f %% appris jusqu'ici",
		KeyReasonReviewDue:  "À réviser (%d jours depuis la dernière étude)",
		KeySummaryTotal:     "Drapeaux étudiés : %d",
		KeySummaryNew:       "Nouveaux appris : %d",
		KeySummaryElapsed:   "Durée : %s",
		KeyCompleted:        "terminé",
		KeyInProgress:       "en cours",
		KeyRecommended:      "recommandé",
		KeyLearned:          "appris",
		KeyTitleCategories:  "Catégories de drapeaux",
		KeyTitleStudy:       "Étude",
		KeyTitleSummary:     "Session terminée",
		KeyPreviewIntro:     "%d drapeaux dans cette session",
		KeyRecognizePrompt:  "Reconnaissez-vous ce drapeau ?",
		KeyHookLoading:      "Recherche d'un moyen mnémotechnique...",
		KeySummaryNone:      "Rien de nouveau cette fois. Continuez !",
		KeyHintSelect:       "étudier",
		KeyHintSmartLearn:   "apprentissage intelligent",
		KeyHintReset:        "réinitialiser",
		KeyHintQuit:         "quitter",
		KeyHintBack:         "retour",
		KeyHintStart:        "commencer",
		KeyHintRecognized:   "je le connais",
		KeyHintNotYet:       "pas encore",
		KeyHintNext:         "suivant",
		KeyHintHook:         "mnémotechnique",
		KeyHintContinue:     "catégorie suivante",
		KeyHintHome:         "catégories",
		KeyHintConfirm:      "confirmer",
		KeyHintCancel:       "annuler",
		KeyHintHistory:      "historique",
		KeyHintDetails:      "détails",
		KeyTitleHistory:     "Historique d'apprentissage",
		KeyHistoryEmpty:     "Aucune session d'apprentissage intelligent. Appuyez sur s dans la liste pour commencer.",
		KeyHistoryDetail:    "%d sur %d appris, étudié %d fois",
	},
}

var continentNames = map[language.Tag]map[roster.Continent]string{
	language.English: {
		roster.Asia:         "Asia",
		roster.Europe:       "Europe",
		roster.Africa:       "Africa",
		roster.NorthAmerica: "North America",
		roster.SouthAmerica: "South America",
		roster.Oceania:      "Oceania",
		roster.Antarctica:   "Antarctica",
	},
	language.French: {
		roster.Asia:         "Asie",
		roster.Europe:       "Europe",
		roster.Africa:       "Afrique",
		roster.NorthAmerica: "Amérique du Nord",
		roster.SouthAmerica: "Amérique du Sud",
		roster.Oceania:      "Océanie",
		roster.Antarctica:   "Antarctique",
	},
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("i18n: %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Localizer renders display strings for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a localizer for lang, a BCP 47 tag such as "en" or "fr-CA".
// Unsupported or malformed tags fall back to English.
func New(lang string) *Localizer {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		matcher := language.NewMatcher(supported)
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// Lang returns the resolved language.
func (l *Localizer) Lang() language.Tag { return l.tag }

// Translate formats the message for key. Unknown keys render as the key.
func (l *Localizer) Translate(key string, params ...any) string {
	return l.printer.Sprintf(key, params...)
}

// ContinentName returns the localized continent name.
func (l *Localizer) ContinentName(c roster.Continent) string {
	if name, ok := continentNames[l.tag][c]; ok {
		return name
	}
	return string(c)
}

// CountryName returns the country name in the localizer's language.
func (l *Localizer) CountryName(c roster.Country) string {
	if l.tag == language.French && c.NameSecondary != "" {
		return c.NameSecondary
	}
	return c.NamePrimary
}
