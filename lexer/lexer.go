// Package lexer tokenizes carp source text into a flat sequence of Symbols.
package lexer

import (
	"fmt"
	"strings"
)

// Symbol is a single lexical unit: its literal text and the position of its
// first character. Lines are 1-based, columns are 0-based.
type Symbol struct {
	Text   string `json:"text"`
	Line   int    `json:"line"`
	Column int    `json:"char"`
}

// IsExpressionHeader reports whether the symbol opens a parenthesized form,
// e.g. "(print".
func (s Symbol) IsExpressionHeader() bool {
	return strings.HasPrefix(s.Text, "(")
}

// IsQuoted reports whether the symbol is a quoted string literal.
func (s Symbol) IsQuoted() bool {
	return strings.HasPrefix(s.Text, "\"")
}

// IsClosing reports whether the symbol is a standalone closing bracket.
func (s Symbol) IsClosing() bool {
	return s.Text == ")"
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d:%d %q", s.Line, s.Column, s.Text)
}

// ParseError is a lexical failure. There is no recovery past it.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Scan tokenizes source text into an ordered sequence of Symbols.
//
// Whitespace separates symbols and is otherwise discarded. A double quote
// toggles "in quotes" mode; while in quotes every character, including ')'
// and whitespace, belongs to the current symbol. A standalone ')' always
// terminates and emits the symbol in progress (if any), then emits itself
// as its own closing symbol.
func Scan(source string) ([]Symbol, error) {
	var (
		symbols        []Symbol
		current        strings.Builder
		startLine      int
		startColumn    int
		inQuotes       bool
		line           = 1
		column         = 0
		quoteStartLine int
		quoteStartCol  int
	)

	flush := func() {
		if current.Len() > 0 {
			symbols = append(symbols, Symbol{Text: current.String(), Line: startLine, Column: startColumn})
			current.Reset()
		}
	}

	for _, r := range source {
		charLine, charColumn := line, column
		if r == '\n' {
			line++
			column = 0
		} else {
			column++
		}

		switch {
		case inQuotes:
			current.WriteRune(r)
			if r == '"' {
				inQuotes = false
			}
		case r == '"':
			if current.Len() == 0 {
				startLine, startColumn = charLine, charColumn
			}
			current.WriteRune(r)
			inQuotes = true
			quoteStartLine, quoteStartCol = charLine, charColumn
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		case r == ')':
			flush()
			symbols = append(symbols, Symbol{Text: ")", Line: charLine, Column: charColumn})
		default:
			if current.Len() == 0 {
				startLine, startColumn = charLine, charColumn
			}
			current.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, &ParseError{Line: quoteStartLine, Column: quoteStartCol, Message: "Missing closing quotation mark"}
	}
	flush()

	return symbols, nil
}
