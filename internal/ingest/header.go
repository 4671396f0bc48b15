package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Resolve maps each column to a header cell index.
//
// Headers match a column's label or key case-insensitively. With fuzzy set,
// columns without an exact match fall back to a fuzzy match against the
// remaining headers, preferring the closest one. A column with no match, or
// with several equally close matches, fails the whole header.
func Resolve(header []string, columns []Column, fuzzy bool) ([]int, error) {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	index := make([]int, len(columns))
	claimed := make(map[int]bool, len(columns))
	pending := make([]int, 0, len(columns))

	for c, col := range columns {
		matches := exactMatches(cells, col)
		switch len(matches) {
		case 0:
			pending = append(pending, c)
		case 1:
			index[c] = matches[0]
			claimed[matches[0]] = true
		default:
			return nil, newError(ErrAmbiguousColumn, i18n.KeyAmbiguousColumn, col.Label)
		}
	}

	for _, c := range pending {
		col := columns[c]
		if !fuzzy {
			return nil, newError(ErrMissingColumn, i18n.KeyMissingColumn, col.Label)
		}
		best, bestRank, tie := -1, -1, false
		for i, cell := range cells {
			if claimed[i] || cell == "" {
				continue
			}
			rank := fuzzyRank(cell, col)
			if rank < 0 {
				continue
			}
			switch {
			case best < 0 || rank < bestRank:
				best, bestRank, tie = i, rank, false
			case rank == bestRank:
				tie = true
			}
		}
		if best < 0 {
			return nil, newError(ErrMissingColumn, i18n.KeyMissingColumn, col.Label)
		}
		if tie {
			return nil, newError(ErrAmbiguousColumn, i18n.KeyAmbiguousColumn, col.Label)
		}
		index[c] = best
		claimed[best] = true
	}

	return index, nil
}

func exactMatches(cells []string, col Column) []int {
	var matches []int
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		if strings.EqualFold(cell, col.Label) || strings.EqualFold(cell, col.Key) {
			matches = append(matches, i)
		}
	}
	return matches
}

// minReverseRunes keeps one or two letter headers from matching every label.
const minReverseRunes = 3

// fuzzyRank is the smallest edit distance between cell and the label or key
// when one is found inside the other, or -1 when there is no match.
func fuzzyRank(cell string, col Column) int {
	rank := -1
	consider := func(r int) {
		if r >= 0 && (rank < 0 || r < rank) {
			rank = r
		}
	}
	for _, name := range []string{col.Label, col.Key} {
		if name == "" {
			continue
		}
		consider(fuzzy.RankMatchNormalizedFold(name, cell))
		if utf8.RuneCountInString(cell) >= minReverseRunes {
			consider(fuzzy.RankMatchNormalizedFold(cell, name))
		}
	}
	return rank
}
