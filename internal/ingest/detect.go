// Package ingest turns raw uploaded bytes into a column-indexed dataset:
// encoding and delimiter auto-detection, CSV and XLSX parsing, and
// reconciliation of source headers against a schema's required fields.
package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// delimiterCandidates in tie-break priority order.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// detectSampleLines bounds how many lines detection looks at.
const detectSampleLines = 5

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectDelimiter picks the candidate delimiter that yields the most columns
// with the least per-line variance over a small sample. Ties go to the
// earlier candidate, so comma wins on uniform text.
func DetectDelimiter(sample string) rune {
	lines := sampleLines(sample, detectSampleLines)
	if len(lines) == 0 {
		return ','
	}

	best := delimiterCandidates[0]
	bestMean, bestVariance := columnStats(lines, best)

	for _, candidate := range delimiterCandidates[1:] {
		mean, variance := columnStats(lines, candidate)
		if mean > bestMean || (mean == bestMean && variance < bestVariance) {
			best, bestMean, bestVariance = candidate, mean, variance
		}
	}
	return best
}

// columnStats returns the mean and variance of the per-line column count a
// delimiter would produce.
func columnStats(lines []string, delimiter rune) (mean, variance float64) {
	counts := make([]float64, len(lines))
	for i, line := range lines {
		counts[i] = float64(strings.Count(line, string(delimiter)) + 1)
	}
	for _, c := range counts {
		mean += c
	}
	mean /= float64(len(counts))
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))
	return mean, variance
}

func sampleLines(sample string, n int) []string {
	var lines []string
	for _, line := range strings.Split(sample, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}

// Decode converts raw file bytes to a UTF-8 string, trying UTF-8 first and
// falling back through the regional encodings seen in real exports. The
// returned name records whichever encoding succeeded. Latin-1 maps every
// byte, so decoding never fails outright.
func Decode(data []byte) (text, encoding string) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}

	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		// The decoder substitutes U+FFFD for the code points 1252 leaves
		// undefined; treat that as a failed attempt.
		if !strings.ContainsRune(string(decoded), utf8.RuneError) {
			return string(decoded), "windows-1252"
		}
	}

	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(decoded), "latin-1"
}
