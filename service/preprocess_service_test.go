package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Twelve substantial lines keep every one of them clear of the short-line
// boundary heuristic.
const sampleBody = `1.1 Access Control Policy
Organizations must develop and document an access control policy.
The policy addresses purpose and scope for all systems.
Review and update the policy at an organization-defined frequency.
Access enforcement mechanisms protect confidentiality of information.
Separation of duties reduces the risk of malevolent activity.
Least privilege limits access to what the mission requires.
Unsuccessful logon attempts must be limited per policy.
System use notifications display privacy and security notices.
Concurrent session control limits the number of sessions.
Device locks prevent access after a period of inactivity.
Session termination ends a session after defined conditions.`

func TestNormalize_SpecPipelineExample(t *testing.T) {
	svc := NewPreprocessService()
	input := "Section 1\n\n\n\nPage 2 of 10\nIntroduction .......... 5\n1.1Overview\n"

	clean, stats := svc.Normalize(input)

	assert.NotContains(t, clean, "\n\n\n")
	assert.NotContains(t, clean, "Page 2 of 10")
	assert.NotContains(t, clean, "...")
	assert.Contains(t, clean, "1.1 Overview")
	// The trailing-number rule also strips the numeral from "Section 1".
	assert.Equal(t, "Section\nIntroduction\n1.1 Overview", clean)
	assert.Equal(t, len(input), stats.OriginalLength)
	assert.Equal(t, len(clean), stats.ProcessedLength)
}

func TestNormalize_EmptyInput(t *testing.T) {
	svc := NewPreprocessService()

	clean, stats := svc.Normalize("")

	assert.Equal(t, "", clean)
	assert.Zero(t, stats.OriginalLength)
	assert.Zero(t, stats.ProcessedLength)
	assert.Zero(t, stats.ReductionChars)
	assert.Zero(t, stats.ReductionPercent)
	assert.Zero(t, stats.OriginalLines)
	assert.Zero(t, stats.ProcessedLines)
}

func TestNormalize_WhitespaceOnlyInput(t *testing.T) {
	svc := NewPreprocessService()

	clean, stats := svc.Normalize("   \n\n\t  \n ")

	assert.Equal(t, "", clean)
	assert.Equal(t, 10, stats.OriginalLength)
	assert.Equal(t, 0, stats.ProcessedLength)
	assert.InDelta(t, 100.0, stats.ReductionPercent, 0.001)
}

func TestNormalize_Idempotent(t *testing.T) {
	svc := NewPreprocessService()

	samples := []string{
		sampleBody,
		"AC-2 Account Management\n\nThe organization manages accounts.\n\n\nIncluding establishment and activation of accounts.",
		sampleBody + "\n\n- 42 -\n" + sampleBody,
		"Overview of controls .......... 12\n" + sampleBody,
	}

	for _, sample := range samples {
		once, _ := svc.Normalize(sample)
		twice, _ := svc.Normalize(once)
		assert.Equal(t, once, twice, "normalization must be idempotent")
	}
}

func TestNormalize_IdempotentWithStackedTrailingNumbers(t *testing.T) {
	svc := NewPreprocessService()

	// One pass of the trailing-number rule strips a single bare number per
	// line; the pipeline must keep going until nothing more comes off.
	input := "The retention period spans days 30 60\n" + sampleBody

	once, _ := svc.Normalize(input)
	twice, _ := svc.Normalize(once)

	assert.Equal(t, once, twice, "normalization must be idempotent")
	assert.True(t, strings.HasPrefix(once, "The retention period spans days\n"),
		"all stacked trailing numbers must come off in a single Normalize call")
}

func TestProcess_WrapsNormalizeResult(t *testing.T) {
	svc := NewPreprocessService()
	raw := sampleBody + "\n\n- 42 -\n"

	doc := svc.Process("nist.txt", raw)

	clean, stats := svc.Normalize(raw)
	assert.Equal(t, "nist.txt", doc.Filename)
	assert.Equal(t, clean, doc.Text)
	assert.Equal(t, stats, doc.Stats)
}

func TestNormalize_OutputGuarantees(t *testing.T) {
	svc := NewPreprocessService()
	input := "   leading\n\n\n\n\nmid   spaced   words\t \nline with trailing   \n\n\n\ntail   "

	clean, _ := svc.Normalize(input)

	assert.NotContains(t, clean, "\n\n\n")
	assert.NotContains(t, clean, "   ")
	assert.Equal(t, clean, strings.TrimSpace(clean))
	for _, line := range strings.Split(clean, "\n") {
		assert.Equal(t, line, strings.TrimRight(line, " \t"))
	}
}

func TestCleanSpecialCharacters(t *testing.T) {
	in := "a\x00b\uFEFFc\u200Bd\u00A0e – — “q” ‘s’"
	out := cleanSpecialCharacters(in)

	assert.Equal(t, "abcd e - - \"q\" 's'", out)
}

func TestRemovePageArtifacts_PageNumberLines(t *testing.T) {
	for _, line := range []string{"1", " 42 ", "- 7 -", "-7-", " - 13"} {
		assert.True(t, isPageNumberLine(line), "expected page-number line: %q", line)
	}
	for _, line := range []string{"Section 1", "7 dwarves", "1.1"} {
		assert.False(t, isPageNumberLine(line), "not a page-number line: %q", line)
	}
}

func TestRemovePageArtifacts_PageXOfY(t *testing.T) {
	assert.True(t, isPageXOfYLine("Page 3"))
	assert.True(t, isPageXOfYLine("  page 3 of 10  "))
	assert.True(t, isPageXOfYLine("PAGE 12 OF 90"))
	assert.False(t, isPageXOfYLine("Page 3 describes controls"))
}

func TestRemovePageArtifacts_BoundaryHeuristic(t *testing.T) {
	lines := strings.Split(sampleBody, "\n")
	require.GreaterOrEqual(t, len(lines), 11)

	// Short line in the middle of the document survives
	middle := append([]string{}, lines[:6]...)
	middle = append(middle, "§2")
	middle = append(middle, lines[6:]...)
	out := removePageArtifacts(strings.Join(middle, "\n"))
	assert.Contains(t, out, "§2")

	// The same short line within the first five lines is treated as
	// header noise and dropped. Known false-positive risk on short
	// legitimate content near document boundaries.
	top := append([]string{lines[0], "§2"}, lines[1:]...)
	out = removePageArtifacts(strings.Join(top, "\n"))
	assert.NotContains(t, out, "§2")
}

func TestRemoveTOCArtifacts(t *testing.T) {
	out := removeTOCArtifacts("Introduction ........ 5\nScope ... 12")
	assert.NotContains(t, out, ".....")
	assert.NotContains(t, out, "5")
	assert.NotContains(t, out, "12")

	// Trailing bare numbers are stripped line by line, even legitimate
	// ones in body text. Open question inherited from the pipeline
	// design: intentionally aggressive, do not silently fix.
	out = removeTOCArtifacts("The maximum retention period is 90")
	assert.Equal(t, "The maximum retention period is", out)

	// Numbers followed by more text survive
	out = removeTOCArtifacts("90 days is the retention period")
	assert.Equal(t, "90 days is the retention period", out)
}

func TestNormalizeSectionHeaders(t *testing.T) {
	assert.Equal(t, "1.1 Overview", normalizeSectionHeaders("1.1Overview"))
	assert.Equal(t, "1.2.3 Compliance", normalizeSectionHeaders("1.2.3Compliance"))
	assert.Equal(t, "2 Scope", normalizeSectionHeaders("2Scope"))
	// Already-spaced headers stay put
	assert.Equal(t, "1.1 Overview", normalizeSectionHeaders("1.1 Overview"))
	// Lowercase continuation is not a header
	assert.Equal(t, "1.1overview", normalizeSectionHeaders("1.1overview"))
	// Only applies at line starts
	assert.Equal(t, "see 1.1Overview", normalizeSectionHeaders("see 1.1Overview"))
}

func TestRemoveExcessiveWhitespace(t *testing.T) {
	out := removeExcessiveWhitespace("a    b\n\n\n\n\nc  d \t\ne")
	assert.Equal(t, "a b\n\nc d\ne", out)
}

func TestNormalize_StatsConsistency(t *testing.T) {
	svc := NewPreprocessService()

	clean, stats := svc.Normalize(sampleBody + "\n\n\n\nPage 1 of 9\n" + sampleBody)

	assert.Equal(t, stats.OriginalLength-stats.ProcessedLength, stats.ReductionChars)
	expected := float64(stats.ReductionChars) / float64(stats.OriginalLength) * 100
	assert.InDelta(t, expected, stats.ReductionPercent, 0.005)
	assert.Equal(t, strings.Count(clean, "\n")+1, stats.ProcessedLines)
}

func TestNormalize_HeaderSpacingCanGrowText(t *testing.T) {
	svc := NewPreprocessService()

	// processed_length <= original_length is not a hard invariant:
	// header spacing inserts a character.
	clean, stats := svc.Normalize("1.1Overview of the access control chapter")

	assert.Equal(t, "1.1 Overview of the access control chapter", clean)
	assert.Greater(t, stats.ProcessedLength, stats.OriginalLength)
	assert.Negative(t, stats.ReductionPercent)
}

func TestNormalize_NoContentLossOutsideArtifacts(t *testing.T) {
	svc := NewPreprocessService()

	clean, _ := svc.Normalize(sampleBody)

	for _, token := range strings.Fields(sampleBody) {
		assert.Contains(t, clean, strings.TrimSpace(token))
	}
}
