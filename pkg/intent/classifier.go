package intent

import (
	"CarePortalGolang/internal/entity"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Classifier maps a final transcript plus an operating context to a typed
// intent. Rules are evaluated top-to-bottom within the declared context and
// the first rule that matches and extracts wins, so precedence is explicit
// rather than implicit in file load order. Classification never fails: no
// match is the unknown intent, a first-class outcome.
type Classifier struct {
	mu    sync.RWMutex
	rules map[entity.OperatingContext][]Rule
	pages map[entity.OperatingContext][]PageTarget
}

// PageTarget ties navigation keywords to one dashboard route inside one
// operating context.
type PageTarget struct {
	PageID      string
	Path        string
	DisplayName string
	Keywords    []string
}

// Rule is one ordered classification rule. A rule matches when any phrase
// is a substring of the normalized text, or when all of AllWords appear as
// words. Extract may refuse (ok=false), in which case evaluation falls
// through to the next rule.
type Rule struct {
	Name       string
	Kind       entity.IntentKind
	Phrases    []string
	AllWords   []string
	Confidence float64
	Extract    func(c *Classifier, text string, opCtx entity.OperatingContext, now time.Time, in *entity.Intent) bool
}

func New() *Classifier {
	return &Classifier{
		rules: defaultRules(),
		pages: defaultPages(),
	}
}

// Classify is the production entry point; ClassifyAt exists so callers with
// a fixed reference time get fully deterministic results.
func (c *Classifier) Classify(text string, opCtx entity.OperatingContext) entity.Intent {
	return c.ClassifyAt(text, opCtx, time.Now())
}

func (c *Classifier) ClassifyAt(text string, opCtx entity.OperatingContext, now time.Time) entity.Intent {
	unknown := entity.Intent{Kind: entity.IntentUnknown, Context: opCtx}

	// Absent or unrecognized context means no access, never a silent
	// fallback to the patient context.
	if !opCtx.Known() {
		return unknown
	}

	normText := Normalize(text)
	if normText == "" {
		return unknown
	}

	c.mu.RLock()
	rules := c.rules[opCtx]
	c.mu.RUnlock()

	for _, rule := range rules {
		if !rule.matches(normText) {
			continue
		}

		result := entity.Intent{
			Kind:       rule.Kind,
			Context:    opCtx,
			Rule:       rule.Name,
			Confidence: rule.Confidence,
		}

		if rule.Extract != nil && !rule.Extract(c, normText, opCtx, now, &result) {
			continue
		}

		return result
	}

	return unknown
}

func (r Rule) matches(normText string) bool {
	for _, phrase := range r.Phrases {
		if strings.Contains(normText, phrase) {
			return true
		}
	}

	if len(r.AllWords) == 0 {
		return false
	}

	words := map[string]bool{}
	for _, w := range strings.Fields(normText) {
		words[w] = true
	}
	for _, w := range r.AllWords {
		if !words[w] {
			return false
		}
	}
	return true
}

// findPage resolves a navigation target inside one context's page table.
// Pages from other contexts are invisible: a billing utterance can never
// resolve to a patient page.
func (c *Classifier) findPage(normText string, opCtx entity.OperatingContext) (PageTarget, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, page := range c.pages[opCtx] {
		for _, keyword := range page.Keywords {
			if strings.Contains(normText, keyword) {
				return page, true
			}
		}
	}

	return PageTarget{}, false
}

// SetPage installs or replaces one navigation target at runtime, keeping the
// rule table in sync with the page-mapping store.
func (c *Classifier) SetPage(opCtx entity.OperatingContext, target PageTarget) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pages := c.pages[opCtx]
	for i, p := range pages {
		if p.PageID == target.PageID {
			pages[i] = target
			return
		}
	}
	c.pages[opCtx] = append(pages, target)
}

// RemovePage deletes one navigation target, used when a mapping is
// deactivated.
func (c *Classifier) RemovePage(opCtx entity.OperatingContext, pageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pages := c.pages[opCtx]
	for i, p := range pages {
		if p.PageID == pageID {
			c.pages[opCtx] = append(pages[:i], pages[i+1:]...)
			return
		}
	}
}

// KnownCommands describes what the given context can do, for clarifying
// replies on unknown intents.
func (c *Classifier) KnownCommands(opCtx entity.OperatingContext) []string {
	switch opCtx {
	case entity.ContextPatient:
		return []string{"book an appointment", "check your appointments", "add a medication", "open a page"}
	case entity.ContextProvider:
		return []string{"add a medication", "check the schedule", "open a page"}
	case entity.ContextBilling:
		return []string{"ask about your balance or invoices", "open a billing page"}
	case entity.ContextAdmin:
		return []string{"check appointment volume", "ask for a billing summary", "open a page"}
	}
	return nil
}

// Normalize lowercases, strips diacritics and punctuation, and collapses
// whitespace, so rule phrases match what speech providers actually emit.
func Normalize(text string) string {
	text = strings.ToLower(text)

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, text)

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, result)

	return strings.Join(strings.Fields(result), " ")
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
