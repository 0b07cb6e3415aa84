package rendering

import (
	"regexp"
	"sort"
)

// Token is a template placeholder name without the surrounding braces.
type Token string

// Placeholder tokens understood by the email template.
const (
	TokenClientName       Token = "CLIENT_NAME"
	TokenMonthLabel       Token = "MONTH_LABEL"
	TokenWebsite          Token = "WEBSITE"
	TokenSubject          Token = "SUBJECT"
	TokenGreeting         Token = "GREETING"
	TokenSignature        Token = "SIGNATURE"
	TokenMonthlyOverview  Token = "MONTHLY_OVERVIEW"
	TokenDashThisURL      Token = "DASHTHIS_URL"
	TokenDashThisLine     Token = "DASHTHIS_LINE"
	TokenKeyHighlights    Token = "SECTION_KEY_HIGHLIGHTS"
	TokenWinsProgress     Token = "SECTION_WINS_PROGRESS"
	TokenBlockers         Token = "SECTION_BLOCKERS"
	TokenCompletedTasks   Token = "SECTION_COMPLETED_TASKS"
	TokenOutstandingTasks Token = "SECTION_OUTSTANDING_TASKS"
)

// Tokens returns every placeholder the renderer fills.
func Tokens() []Token {
	return []Token{
		TokenClientName, TokenMonthLabel, TokenWebsite, TokenSubject,
		TokenGreeting, TokenSignature, TokenMonthlyOverview,
		TokenDashThisURL, TokenDashThisLine,
		TokenKeyHighlights, TokenWinsProgress, TokenBlockers,
		TokenCompletedTasks, TokenOutstandingTasks,
	}
}

// Placeholder returns the literal form of the token as it appears in a template.
func (t Token) Placeholder() string {
	return "{{" + string(t) + "}}"
}

// Value is a substitution value. Escaped marks text that is already markup
// and must be inserted verbatim.
type Value struct {
	Text    string
	Escaped bool
}

// Plain wraps user-supplied text that still needs HTML escaping.
func Plain(s string) Value {
	return Value{Text: s}
}

// Markup wraps pre-rendered HTML.
func Markup(s string) Value {
	return Value{Text: s, Escaped: true}
}

// HTML returns the value ready for insertion.
func (v Value) HTML() string {
	if v.Escaped {
		return v.Text
	}
	return EscapeHTML(v.Text)
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Substitute replaces every {{TOKEN}} in tmpl. Plain values are escaped and
// Markup values are inserted as is. Placeholders without a value are removed
// from the output and returned, sorted and de-duplicated.
func Substitute(tmpl string, values map[Token]Value) (string, []Token) {
	missing := make(map[Token]bool)
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := Token(placeholderPattern.FindStringSubmatch(match)[1])
		v, ok := values[name]
		if !ok {
			missing[name] = true
			return ""
		}
		return v.HTML()
	})

	var unresolved []Token
	for tok := range missing {
		unresolved = append(unresolved, tok)
	}
	sort.Slice(unresolved, func(i, j int) bool { return unresolved[i] < unresolved[j] })
	return out, unresolved
}

// Placeholders lists the distinct tokens referenced by tmpl in order of first use.
func Placeholders(tmpl string) []Token {
	var out []Token
	seen := make(map[Token]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		tok := Token(m[1])
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
