package summary

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Extraction tiers, in the order they are tried.
const (
	TierJSON   = "json"
	TierLabels = "labels"
	TierRaw    = "raw"
)

const (
	// MaxTitleLen is the title bound in runes, ellipsis included.
	MaxTitleLen = 60

	DefaultTitle   = "Note Summary"
	EmptySummary   = "No summary generated."
	titleEllipsis  = "..."
	labelValueTrim = " \t\r\n\"'*,"
)

// Result is a generated title and summary. Tier names the extraction
// strategy that produced it.
type Result struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Tier    string `json:"-"`
}

// extractor returns a result when it can find both fields in raw.
type extractor struct {
	tier    string
	extract func(raw string) (Result, bool)
}

var extractors = []extractor{
	{tier: TierJSON, extract: extractJSON},
	{tier: TierLabels, extract: extractLabels},
}

var (
	fenceMarker = regexp.MustCompile("```[A-Za-z]*")
	jsonObject  = regexp.MustCompile(`(?s)\{.*\}`)
	titleLabel  = regexp.MustCompile(`(?i)\btitle\b["'*]*\s*:\s*(.+?)\s*(?:\n|\bsummary\b["'*]*\s*:|$)`)
	summaryText = regexp.MustCompile(`(?is)\bsummary\b["'*]*\s*:\s*(.+)$`)

	boilerplate = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^summary\s*:\s*`),
		regexp.MustCompile(`(?i)^(?:here is|here's|here’s|this is|the following is)\s+(?:[\w-]+\s+){0,4}?(?:summary|summarized|overview|recap|synopsis)\b[^:\n]*:\s*`),
	}
)

// Extract decodes a model response into a title and summary. The first
// extractor that finds both fields wins; otherwise the whole response
// becomes the summary under the default title. It never fails.
func Extract(raw string) Result {
	text := stripFences(raw)
	for _, e := range extractors {
		if res, ok := e.extract(text); ok {
			res.Tier = e.tier
			return normalize(res)
		}
	}
	return normalize(Result{Title: DefaultTitle, Summary: text, Tier: TierRaw})
}

func stripFences(s string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(s, ""))
}

func extractJSON(text string) (Result, bool) {
	obj := jsonObject.FindString(text)
	if obj == "" {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal([]byte(obj), &res); err != nil {
		return Result{}, false
	}
	res.Title = strings.TrimSpace(res.Title)
	res.Summary = strings.TrimSpace(res.Summary)
	if res.Title == "" || res.Summary == "" {
		return Result{}, false
	}
	return res, true
}

func extractLabels(text string) (Result, bool) {
	tm := titleLabel.FindStringSubmatch(text)
	sm := summaryText.FindStringSubmatch(text)
	if tm == nil || sm == nil {
		return Result{}, false
	}
	res := Result{
		Title:   strings.Trim(tm[1], labelValueTrim),
		Summary: strings.Trim(sm[1], labelValueTrim+"{}"),
	}
	if res.Title == "" || res.Summary == "" {
		return Result{}, false
	}
	return res, true
}

// normalize applies the output guarantees shared by every tier: no leading
// boilerplate, a non-empty summary, and a non-empty title of at most
// MaxTitleLen runes.
func normalize(res Result) Result {
	res.Summary = StripBoilerplate(res.Summary)
	if res.Summary == "" {
		res.Summary = EmptySummary
	}
	res.Title = strings.TrimSpace(res.Title)
	if res.Title == "" {
		res.Title = DefaultTitle
	}
	res.Title = TruncateTitle(res.Title)
	return res
}

// StripBoilerplate removes one leading phrase announcing a summary, such
// as "Here is a summary:", and trims the result. Later phrases are kept.
func StripBoilerplate(s string) string {
	s = strings.TrimSpace(s)
	for _, re := range boilerplate {
		if loc := re.FindStringIndex(s); loc != nil {
			return strings.TrimSpace(s[loc[1]:])
		}
	}
	return s
}

// TruncateTitle cuts s to MaxTitleLen runes, ending in "..." when shortened.
func TruncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= MaxTitleLen {
		return s
	}
	keep := MaxTitleLen - utf8.RuneCountInString(titleEllipsis)
	return string([]rune(s)[:keep]) + titleEllipsis
}
