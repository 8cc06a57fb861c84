package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedFront string
		expectedBack  string
		expectedNotes string
	}{
		{
			name:          "simple front and back",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedFront: "What is the capital of France?",
			expectedBack:  "Paris",
		},
		{
			name:          "with notes",
			input:         "Q: What is 1+1?\nA: 2\nN: Basic arithmetic",
			expectedCards: 1,
			expectedFront: "What is 1+1?",
			expectedBack:  "2",
			expectedNotes: "Basic arithmetic",
		},
		{
			name: "multiline back",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedFront: "What are the primary colors?",
			expectedBack:  "Red\nBlue\nYellow",
		},
		{
			name: "two cards with separator",
			input: `
Q: First question
A: First answer
---
Q: Second question
A: Second answer
`,
			expectedCards: 2,
			expectedFront: "First question",
			expectedBack:  "First answer",
		},
		{
			name: "new front starts new card without separator",
			input: `
Q: First question
A: First answer
Q: Second question
A: Second answer
`,
			expectedCards: 2,
			expectedFront: "First question",
			expectedBack:  "First answer",
		},
		{
			name:          "prose outside a card is ignored",
			input:         "Today I learned about interfaces.\n\nQ: What does io.Reader define?\nA: Read(p []byte) (n int, err error)",
			expectedCards: 1,
			expectedFront: "What does io.Reader define?",
			expectedBack:  "Read(p []byte) (n int, err error)",
		},
		{
			name:          "back without front is discarded",
			input:         "A: orphaned answer\n---",
			expectedCards: 0,
		},
		{
			name:          "empty input",
			input:         "",
			expectedCards: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(cards) != tc.expectedCards {
				t.Fatalf("got %d cards, want %d", len(cards), tc.expectedCards)
			}
			if tc.expectedCards == 0 {
				return
			}
			if cards[0].Front != tc.expectedFront {
				t.Errorf("Front = %q, want %q", cards[0].Front, tc.expectedFront)
			}
			if cards[0].Back != tc.expectedBack {
				t.Errorf("Back = %q, want %q", cards[0].Back, tc.expectedBack)
			}
			if cards[0].Notes != tc.expectedNotes {
				t.Errorf("Notes = %q, want %q", cards[0].Notes, tc.expectedNotes)
			}
		})
	}
}
