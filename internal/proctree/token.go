package proctree

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	emptyTreeMarkerConstant = '@'
	groupOpenConstant       = '['
	groupCloseConstant      = ']'
	groupSeparatorConstant  = ','
	reservedCharacters      = "@[],"
)

// TokenKind classifies a lexical token of a tree expression.
type TokenKind int

// Supported token kinds.
const (
	TokenWord TokenKind = iota
	TokenEmpty
	TokenOpen
	TokenClose
	TokenSeparator
)

var tokenKindNames = map[TokenKind]string{
	TokenWord:      "word",
	TokenEmpty:     "@",
	TokenOpen:      "[",
	TokenClose:     "]",
	TokenSeparator: ",",
}

// String returns a printable representation of the token kind.
func (kind TokenKind) String() string {
	if name, known := tokenKindNames[kind]; known {
		return name
	}
	return "unknown"
}

// Token is one lexical unit together with its byte offset in the input.
type Token struct {
	Kind     TokenKind
	Text     string
	Position int
}

// Cursor is an immutable position inside an expression. Advancing a cursor
// returns a new value and leaves the receiver untouched.
type Cursor struct {
	input    string
	position int
}

// NewCursor positions a cursor at the start of input.
func NewCursor(input string) Cursor {
	return Cursor{input: input}
}

// Position reports the byte offset of the cursor.
func (cursor Cursor) Position() int {
	return cursor.position
}

// Next scans the next token. The boolean is false once only whitespace remains.
func (cursor Cursor) Next() (Token, Cursor, bool) {
	position := cursor.skipWhitespace()
	if position >= len(cursor.input) {
		return Token{Position: position}, Cursor{input: cursor.input, position: position}, false
	}

	current := cursor.input[position]
	if kind, reserved := reservedTokenKind(current); reserved {
		token := Token{Kind: kind, Text: cursor.input[position : position+1], Position: position}
		return token, Cursor{input: cursor.input, position: position + 1}, true
	}

	end := position
	for end < len(cursor.input) && !strings.ContainsRune(reservedCharacters, rune(cursor.input[end])) {
		end++
	}

	word := strings.TrimRightFunc(cursor.input[position:end], unicode.IsSpace)
	return Token{Kind: TokenWord, Text: word, Position: position}, Cursor{input: cursor.input, position: end}, true
}

func (cursor Cursor) skipWhitespace() int {
	position := cursor.position
	for position < len(cursor.input) {
		character, width := utf8.DecodeRuneInString(cursor.input[position:])
		if !unicode.IsSpace(character) {
			break
		}
		position += width
	}
	return position
}

func reservedTokenKind(character byte) (TokenKind, bool) {
	switch character {
	case emptyTreeMarkerConstant:
		return TokenEmpty, true
	case groupOpenConstant:
		return TokenOpen, true
	case groupCloseConstant:
		return TokenClose, true
	case groupSeparatorConstant:
		return TokenSeparator, true
	default:
		return TokenWord, false
	}
}

// Lexer produces tokens lazily with one token of lookahead.
type Lexer struct {
	cursor Cursor
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{cursor: NewCursor(input)}
}

// Next consumes and returns the next token.
func (lexer *Lexer) Next() (Token, bool) {
	token, advanced, available := lexer.cursor.Next()
	lexer.cursor = advanced
	return token, available
}

// Peek returns the next token without consuming it.
func (lexer *Lexer) Peek() (Token, bool) {
	token, _, available := lexer.cursor.Next()
	return token, available
}

// Position reports the byte offset of the next unread character.
func (lexer *Lexer) Position() int {
	return lexer.cursor.Position()
}
