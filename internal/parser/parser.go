// Package parser extracts flashcards from markdown study notes. A card
// is a block of "Q:" (front), "A:" (back) and optional "N:" (notes)
// sections; cards are separated by "---" or by the next "Q:" line.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cardgenie/cardgenie/internal/domain"
)

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	notesPrefix = "N:"
	separator   = "---"
)

type field int

const (
	none field = iota
	front
	back
	notes
)

// ParseFile reads the file at path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads markdown from r and extracts all cards. A card with an
// empty front is discarded.
func Parse(r io.Reader) ([]domain.Card, error) {
	var (
		cards   []domain.Card
		current domain.Card
		block   []string
		active  field
	)

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch active {
		case front:
			current.Front = content
		case back:
			current.Back = content
		case notes:
			current.Notes = content
		}
		block = nil
	}

	flushCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		active = none
	}

	startBlock := func(f field, line, prefix string) {
		flushBlock()
		active = f
		block = append(block, strings.TrimPrefix(strings.TrimPrefix(line, prefix), " "))
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == separator:
			flushCard()
		case strings.HasPrefix(line, frontPrefix):
			// A new front always starts a new card.
			if active != none {
				flushCard()
			}
			startBlock(front, line, frontPrefix)
		case strings.HasPrefix(line, backPrefix):
			startBlock(back, line, backPrefix)
		case strings.HasPrefix(line, notesPrefix):
			startBlock(notes, line, notesPrefix)
		case active != none:
			block = append(block, line)
		}
	}
	flushCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}
