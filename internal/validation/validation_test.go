package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"transcribot/internal/core"
)

func validBody() string {
	return "*Image Transcription:*\n\n---\n\nSome transcribed text here.\n\n---\n\n" + Footer
}

func TestCheckFormatting_ValidBody(t *testing.T) {
	t.Parallel()

	require.Empty(t, CheckFormatting(validBody()))
}

func TestCheckFormatting_Deterministic(t *testing.T) {
	t.Parallel()

	body := "**Image Transcription:**\n\nno separators at all"
	first := CheckFormatting(body)
	for range 5 {
		require.Equal(t, first, CheckFormatting(body))
	}
}

func TestCheckFormatting_CollectsIssues(t *testing.T) {
	t.Parallel()

	body := "**Image Transcription:**\n\nSaid by u/someone in a thread:\n\n```\nraw code\n```"
	issues := CheckFormatting(body)

	require.Contains(t, issues, core.IssueBoldHeader)
	require.Contains(t, issues, core.IssueMissingSeparators)
	require.Contains(t, issues, core.IssueMalformedFooter)
	require.Contains(t, issues, core.IssueFencedCodeBlock)
	require.Contains(t, issues, core.IssueUnescapedUsername)
	require.NotContains(t, issues, core.IssueHeadingWithDashes)
	require.NotContains(t, issues, core.IssueReferenceLink)
}

func TestProperSeparatorsPattern(t *testing.T) {
	t.Parallel()

	matching := []string{
		"\n\n---\n\n",
		"\n\n-------\n\n",
		"\n  \n---\n  \n",
		"Word\n\n---\n\nWord",
		"\n\n   ---\n\n",
		"\n\n---      \n\n",
		"\n\n-  -  -\n\n",
	}
	for _, s := range matching {
		require.True(t, properSeparatorsPattern.MatchString(s), "expected match: %q", s)
	}

	notMatching := []string{
		"Word\n---\n\n",
		"\n\n--\n\n",
		"\n\n    ---\n\n",
	}
	for _, s := range notMatching {
		require.False(t, properSeparatorsPattern.MatchString(s), "expected no match: %q", s)
	}
}

func TestMissingSeparators(t *testing.T) {
	t.Parallel()

	require.False(t, missingSeparators("a\n\n---\n\nb\n\n---\n\nc"))
	require.True(t, missingSeparators("a\n\n---\n\nb"))
	require.True(t, missingSeparators("no separators at all"))
}

func TestHeadingWithDashesPattern(t *testing.T) {
	t.Parallel()

	matching := []string{
		"Heading\n---\n",
		"Heading   \n---\n",
		"*Heading*\n---\n",
	}
	for _, s := range matching {
		require.True(t, headingWithDashesPattern.MatchString(s), "expected match: %q", s)
	}

	require.False(t, headingWithDashesPattern.MatchString("Heading\n\n---\n\n"))
}

func TestUnescapedUsernamePattern(t *testing.T) {
	t.Parallel()

	matching := []string{
		"u/username",
		"/u/username",
		"**u/username**",
	}
	for _, s := range matching {
		require.True(t, unescapedUsernamePattern.MatchString(s), "expected match: %q", s)
	}

	notMatching := []string{
		`u\/username`,
		"https://www.reddit.com/u/username",
		"r/subreddit",
	}
	for _, s := range notMatching {
		require.False(t, unescapedUsernamePattern.MatchString(s), "expected no match: %q", s)
	}
}

func TestUnescapedSubredditPattern(t *testing.T) {
	t.Parallel()

	require.True(t, unescapedSubredditPattern.MatchString("go read r/somewhere"))
	require.True(t, unescapedSubredditPattern.MatchString("/r/somewhere"))
	require.False(t, unescapedSubredditPattern.MatchString(`r\/somewhere`))
	require.False(t, unescapedSubredditPattern.MatchString("https://www.reddit.com/r/somewhere"))
}

func TestFencedCodeBlockPattern(t *testing.T) {
	t.Parallel()

	require.True(t, fencedCodeBlockPattern.MatchString("```\nsome\ncode\n```"))
	require.True(t, fencedCodeBlockPattern.MatchString("before ```inline``` after"))
	require.False(t, fencedCodeBlockPattern.MatchString("``` only one fence"))
}

func TestBoldHeaderPattern(t *testing.T) {
	t.Parallel()

	require.True(t, boldHeaderPattern.MatchString("**Image Transcription:**"))
	require.True(t, boldHeaderPattern.MatchString("**Video Transcription**"))
	require.True(t, boldHeaderPattern.MatchString("  **Audio Transcription:**"))
	require.False(t, boldHeaderPattern.MatchString("*Image Transcription*"))
}

func TestUnescapedHeadingPattern(t *testing.T) {
	t.Parallel()

	require.True(t, unescapedHeadingPattern.MatchString("#Hashtag at the start"))
	require.True(t, unescapedHeadingPattern.MatchString("text\n\n#Hashtag"))
	require.False(t, unescapedHeadingPattern.MatchString(`\#escaped`))
	require.False(t, unescapedHeadingPattern.MatchString("text\n\n"+`\#escaped`))
	require.False(t, unescapedHeadingPattern.MatchString("mid-line #hashtag is fine"))
}

func TestIncorrectLineBreakPattern(t *testing.T) {
	t.Parallel()

	require.True(t, incorrectLineBreakPattern.MatchString("line one  \nline two"))
	require.True(t, incorrectLineBreakPattern.MatchString("line one\\\nline two"))
	require.False(t, incorrectLineBreakPattern.MatchString("line one\n\nline two"))
	require.False(t, incorrectLineBreakPattern.MatchString("line one  \n\nline two"))
}

func TestInvalidHeader(t *testing.T) {
	t.Parallel()

	require.False(t, invalidHeader("*Image Transcription:*\n\nbody"))
	require.False(t, invalidHeader("*Audio Transcription*\n\nbody"))
	require.True(t, invalidHeader("*Picture Transcription:*\n\nbody"))
	require.True(t, invalidHeader("*Image transcription:*\n\nbody"))
	require.False(t, invalidHeader("no italic opener"))
}

func TestReferenceLinkPattern(t *testing.T) {
	t.Parallel()

	require.True(t, referenceLinkPattern.MatchString("[label]: https://example.com"))
	require.True(t, referenceLinkPattern.MatchString("text\n[label]: https://example.com\n"))
	require.False(t, referenceLinkPattern.MatchString(`\[label]: https://example.com`))
	require.False(t, referenceLinkPattern.MatchString("an inline [link](https://example.com)"))
}
