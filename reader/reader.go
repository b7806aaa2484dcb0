// Package reader provides a cursor over a lexed symbol stream, with typed
// lookahead and advance operations used by the translator.
package reader

import (
	"errors"
	"fmt"

	"github.com/carp-lang/carp/lexer"
)

// ErrOutOfRange is returned by the peek/consume operations that are not
// allowed to tolerate running past the end of the symbol stream.
var ErrOutOfRange = errors.New("reader: no symbols remaining")

// TranslationError is a structural mistake in the source: an unexpected
// closing symbol, a missing bracket, an unknown form, an undefined
// variable, and so on. It carries the (line, column) of the offending
// symbol so the caller can report it.
type TranslationError struct {
	Line    int
	Column  int
	Text    string
	Message string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// NewTranslationError builds a TranslationError positioned at sym.
func NewTranslationError(sym lexer.Symbol, message string) *TranslationError {
	return &TranslationError{Line: sym.Line, Column: sym.Column, Text: sym.Text, Message: message}
}

// Reader is a cursor over a symbol slice with an integer position.
type Reader struct {
	symbols []lexer.Symbol
	pos     int
}

// New returns a Reader positioned at the start of symbols.
func New(symbols []lexer.Symbol) *Reader {
	return &Reader{symbols: symbols}
}

// HasNext reports whether there is a symbol at the current position.
func (r *Reader) HasNext() bool {
	return r.pos < len(r.symbols)
}

// CurrentOrNone peeks the current symbol without advancing. It returns
// false past the end of the stream.
func (r *Reader) CurrentOrNone() (lexer.Symbol, bool) {
	if r.pos < len(r.symbols) {
		return r.symbols[r.pos], true
	}
	return lexer.Symbol{}, false
}

// CurrentOrClosing peeks the current symbol without advancing. Past the
// end of the stream it returns ErrOutOfRange.
func (r *Reader) CurrentOrClosing() (lexer.Symbol, error) {
	sym, ok := r.CurrentOrNone()
	if !ok {
		return lexer.Symbol{}, ErrOutOfRange
	}
	return sym, nil
}

// Current peeks the current symbol, refusing a closing symbol.
func (r *Reader) Current() (lexer.Symbol, error) {
	sym, err := r.CurrentOrClosing()
	if err != nil {
		return lexer.Symbol{}, err
	}
	if sym.IsClosing() {
		return lexer.Symbol{}, NewTranslationError(sym, "Unexpected closing symbol")
	}
	return sym, nil
}

// NextOrNone consumes the current symbol if one is present. The position
// always advances, matching the one-past-end behavior of the reference
// reader this is ported from.
func (r *Reader) NextOrNone() (lexer.Symbol, bool) {
	sym, ok := r.CurrentOrNone()
	r.pos++
	return sym, ok
}

// NextOrClosing consumes and returns the current symbol, or ErrOutOfRange
// past the end of the stream.
func (r *Reader) NextOrClosing() (lexer.Symbol, error) {
	sym, err := r.CurrentOrClosing()
	if err != nil {
		return lexer.Symbol{}, err
	}
	r.pos++
	return sym, nil
}

// Next consumes the current symbol, refusing a closing symbol.
func (r *Reader) Next() (lexer.Symbol, error) {
	sym, err := r.NextOrClosing()
	if err != nil {
		return lexer.Symbol{}, err
	}
	if sym.IsClosing() {
		return lexer.Symbol{}, NewTranslationError(sym, "Unexpected closing symbol")
	}
	return sym, nil
}

// NextClosing consumes a symbol and requires it be a standalone ')'.
func (r *Reader) NextClosing() error {
	sym, err := r.NextOrClosing()
	if err != nil {
		return err
	}
	if !sym.IsClosing() {
		return NewTranslationError(sym, "Missing closing bracket")
	}
	return nil
}

// NextExpression consumes a symbol and requires it be an expression header.
func (r *Reader) NextExpression() (lexer.Symbol, error) {
	sym, err := r.Next()
	if err != nil {
		return lexer.Symbol{}, err
	}
	if !sym.IsExpressionHeader() {
		return lexer.Symbol{}, NewTranslationError(sym, "An expression was expected")
	}
	return sym, nil
}

// Back steps the cursor back one position, used to re-point at the symbol
// that caused a translation failure so the caller can report it.
func (r *Reader) Back() {
	r.pos--
}
