// Package validation classifies candidate transcription bodies. Every check
// is a pure function over the body string; equal inputs always yield equal
// issue sets.
package validation

import (
	"regexp"
	"strings"

	"transcribot/internal/core"
)

// ToRLink must appear in a transcription comment for the verification
// protocol to accept it as ours.
const ToRLink = "www.reddit.com/r/TranscribersOfReddit"

// Footer is the canonical transcription footer. The &#32; entities encode
// spaces so the platform renders the superscript run as one block.
const Footer = "^^I'm&#32;a&#32;human&#32;volunteer&#32;content&#32;transcriber&#32;for&#32;Reddit" +
	"&#32;and&#32;you&#32;could&#32;be&#32;too!&#32;" +
	"[If&#32;you'd&#32;like&#32;more&#32;information&#32;on&#32;what&#32;we&#32;do&#32;and&#32;why&#32;we&#32;do&#32;it,&#32;click&#32;here!]" +
	"(https://www.reddit.com/r/TranscribersOfReddit/wiki/index)"

var (
	boldHeaderPattern = regexp.MustCompile(`^\s*\*\*(Image|Video|Audio) Transcription:?[^\n*]*\*\*`)

	// A proper separator is an empty line, at most three leading spaces,
	// three or more dashes optionally spaced apart, then another empty
	// line. Four leading spaces would render as a code block instead.
	properSeparatorsPattern = regexp.MustCompile(`\n[ ]*\n[ ]{0,3}-(?:[ ]*-){2,}[ ]*\n[ ]*\n`)

	// A content line directly followed by a dashes line renders as an H2
	// heading, not the separator the author intended.
	headingWithDashesPattern = regexp.MustCompile(`[^ \n][^\n]*\n[ ]{0,3}-{3,}[ ]*(\n|$)`)

	fencedCodeBlockPattern = regexp.MustCompile("(?s)```.+?```")

	unescapedHeadingPattern = regexp.MustCompile(`(\A|\n[ ]*\n)[ ]{0,3}#+[^\s#]`)

	unescapedUsernamePattern  = regexp.MustCompile(`(\A|[^\w./\\])/?u/[A-Za-z0-9_-]+`)
	unescapedSubredditPattern = regexp.MustCompile(`(\A|[^\w./\\])/?r/[A-Za-z0-9_]+`)

	// Trailing double space or trailing backslash forces a soft break;
	// only flagged when the next line carries content, a paragraph break
	// right after is harmless.
	incorrectLineBreakPattern = regexp.MustCompile(`\S([ ]{2,}|\\)\n[ ]*\S`)

	italicHeaderPattern      = regexp.MustCompile(`\A\s*\*([^*\n]+)\*`)
	validItalicHeaderPattern = regexp.MustCompile(`\A(Image|Audio|Video) Transcription:?`)

	referenceLinkPattern = regexp.MustCompile(`(?m)^[ ]{0,3}\[[^\]\n]+\]:[ ]*\S+`)
)

type rule struct {
	issue core.FormattingIssue
	found func(body string) bool
}

// Rule order follows the order issues are reported to volunteers.
var rules = []rule{
	{core.IssueBoldHeader, boldHeaderPattern.MatchString},
	{core.IssueMissingSeparators, missingSeparators},
	{core.IssueHeadingWithDashes, headingWithDashesPattern.MatchString},
	{core.IssueMalformedFooter, malformedFooter},
	{core.IssueFencedCodeBlock, fencedCodeBlockPattern.MatchString},
	{core.IssueUnescapedHeading, unescapedHeadingPattern.MatchString},
	{core.IssueUnescapedUsername, unescapedUsernamePattern.MatchString},
	{core.IssueUnescapedSub, unescapedSubredditPattern.MatchString},
	{core.IssueIncorrectBreak, incorrectLineBreakPattern.MatchString},
	{core.IssueInvalidHeader, invalidHeader},
	{core.IssueReferenceLink, referenceLinkPattern.MatchString},
}

// CheckFormatting returns every formatting issue found in body, in stable
// order. An empty result means the transcription is well formed.
func CheckFormatting(body string) []core.FormattingIssue {
	var issues []core.FormattingIssue
	for _, r := range rules {
		if r.found(body) {
			issues = append(issues, r.issue)
		}
	}
	return issues
}

func missingSeparators(body string) bool {
	return len(properSeparatorsPattern.FindAllString(body, -1)) < 2
}

func malformedFooter(body string) bool {
	return !strings.Contains(body, Footer)
}

// invalidHeader fires when the body opens with an italic header line whose
// format word is not Image/Audio/Video or whose keyword is miscased. Bodies
// without an italic opener are left to the other checks.
func invalidHeader(body string) bool {
	m := italicHeaderPattern.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	return !validItalicHeaderPattern.MatchString(m[1])
}
