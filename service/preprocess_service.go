package service

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"compliance-rag/types"
)

// PreprocessService cleans raw PDF-extracted text into chunkable text.
// The transform order matters: later steps assume earlier cleanup.
type PreprocessService struct{}

func NewPreprocessService() *PreprocessService {
	return &PreprocessService{}
}

var (
	// "1", "- 12 -", "– 3" and similar page-number-only lines
	pageNumberLineRe = regexp.MustCompile(`^\s*[-–—]?\s*\d+\s*[-–—]?\s*$`)
	// "Page 3" or "Page 3 of 10"
	pageXOfYRe = regexp.MustCompile(`(?i)^\s*Page\s+\d+\s*(of\s+\d+)?\s*$`)
	// TOC dot leaders: "Introduction ........ 5"
	dotLeaderRe = regexp.MustCompile(`\.{3,}\s*\d+`)
	// trailing bare numbers at line ends. Aggressive: this also strips
	// legitimate numerals ending a body-text line. Kept on purpose, the
	// TOC pages these documents carry are full of them.
	trailingNumberRe = regexp.MustCompile(`(?m)\s+\d+\s*$`)
	// "1.2.3Overview" -> capture the numeric prefix and the first letter
	sectionHeaderRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s*([A-Z])`)
	multiSpaceRe    = regexp.MustCompile(` {2,}`)
	multiNewlineRe  = regexp.MustCompile(`\n{3,}`)
)

var specialCharReplacer = strings.NewReplacer(
	"\x00", "", // null bytes
	"\uFEFF", "", // BOM
	"\u200B", "", // zero-width space
	"\u00A0", " ", // non-breaking space
	"–", "-", // en dash
	"—", "-", // em dash
	"“", `"`, // curly double quotes
	"”", `"`,
	"‘", "'", // curly single quotes
	"’", "'",
)

// Normalize applies the full cleanup pipeline and returns the cleaned text
// together with stats computed from the exact before/after strings. It never
// fails: empty and whitespace-only input degrade to empty output.
//
// The pipeline runs until the text stops changing, so normalizing already
// normalized text yields no further change. A single pass is not enough for
// that: the trailing-number rule strips one bare number per line per pass,
// and artifact removal can shift short lines into the boundary window.
func (s *PreprocessService) Normalize(raw string) (string, types.PreprocessStats) {
	text := raw
	for {
		next := runPipeline(text)
		if next == text {
			break
		}
		text = next
	}

	return text, calculateStats(raw, text)
}

func runPipeline(text string) string {
	text = cleanSpecialCharacters(text)
	text = removePageArtifacts(text)
	text = removeTOCArtifacts(text)
	text = normalizeSectionHeaders(text)
	text = removeExcessiveWhitespace(text)
	return strings.TrimSpace(text)
}

// Process runs Normalize and packages the result with its source filename.
func (s *PreprocessService) Process(filename, raw string) *types.ProcessedDocument {
	text, stats := s.Normalize(raw)
	return &types.ProcessedDocument{
		Filename: filename,
		Text:     text,
		Stats:    stats,
	}
}

func cleanSpecialCharacters(text string) string {
	return specialCharReplacer.Replace(text)
}

// removePageArtifacts drops page-number lines, "Page X of Y" lines, and very
// short lines within the first or last five lines of the document. The
// boundary heuristic can eat short legitimate content near document edges;
// see the package tests for the cases it is allowed to get wrong.
func removePageArtifacts(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))

	for i, line := range lines {
		if isPageNumberLine(line) {
			continue
		}
		if isPageXOfYLine(line) {
			continue
		}
		if isBoundaryNoise(line, i, len(lines)) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

func isPageNumberLine(line string) bool {
	return pageNumberLineRe.MatchString(line)
}

func isPageXOfYLine(line string) bool {
	return pageXOfYRe.MatchString(line)
}

func isBoundaryNoise(line string, idx, total int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(line)) < 3 && (idx < 5 || idx > total-5)
}

func removeTOCArtifacts(text string) string {
	text = dotLeaderRe.ReplaceAllString(text, "")
	text = trailingNumberRe.ReplaceAllString(text, "")
	return text
}

// normalizeSectionHeaders inserts a space between a dotted numeric section
// prefix and an immediately following uppercase letter ("1.1Overview").
func normalizeSectionHeaders(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = sectionHeaderRe.ReplaceAllString(line, "$1 $2")
	}
	return strings.Join(lines, "\n")
}

func removeExcessiveWhitespace(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

func calculateStats(original, processed string) types.PreprocessStats {
	stats := types.PreprocessStats{
		OriginalLength:  len(original),
		ProcessedLength: len(processed),
		ReductionChars:  len(original) - len(processed),
	}
	if len(original) > 0 {
		stats.OriginalLines = strings.Count(original, "\n") + 1
	}
	if len(processed) > 0 {
		stats.ProcessedLines = strings.Count(processed, "\n") + 1
	}
	if len(original) > 0 {
		pct := float64(len(original)-len(processed)) / float64(len(original)) * 100
		stats.ReductionPercent = math.Round(pct*100) / 100
	}
	return stats
}
