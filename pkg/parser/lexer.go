package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqlgraph/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	errors []error
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Errors returns the lexical errors found so far.
func (l *Lexer) Errors() []error {
	return l.errors
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.pos < len(l.input) && l.readPos > 0 && l.input[l.pos] == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// currentPos returns the position of the current character.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := l.scan(pos)
	tok.Pos = pos
	tok.End = l.currentPos()
	return tok
}

func (l *Lexer) scan(pos token.Position) token.Token {
	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF}
	case '+':
		return l.single(token.PLUS)
	case '-':
		return l.single(token.MINUS)
	case '*':
		return l.single(token.STAR)
	case '/':
		return l.single(token.SLASH)
	case '%':
		return l.single(token.PERCENT)
	case '=':
		if l.peekChar() == '=' {
			return l.double(token.EQ, "==")
		}
		return l.single(token.EQ)
	case '<':
		switch l.peekChar() {
		case '=':
			return l.double(token.LE, "<=")
		case '>':
			return l.double(token.NE, "<>")
		}
		return l.single(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return l.double(token.GE, ">=")
		}
		return l.single(token.GT)
	case '!':
		if l.peekChar() == '=' {
			return l.double(token.NE, "!=")
		}
		return l.single(token.ILLEGAL)
	case '|':
		if l.peekChar() == '|' {
			return l.double(token.DPIPE, "||")
		}
		return l.single(token.ILLEGAL)
	case ':':
		if l.peekChar() == ':' {
			return l.double(token.DCOLON, "::")
		}
		return l.single(token.ILLEGAL)
	case '.':
		if isDigit(l.peekChar()) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber()}
		}
		return l.single(token.DOT)
	case ',':
		return l.single(token.COMMA)
	case ';':
		return l.single(token.SEMICOLON)
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '\'':
		return token.Token{Type: token.STRING, Literal: l.readQuoted('\'', pos)}
	case '"':
		return token.Token{Type: token.IDENT, Literal: l.readQuoted('"', pos)}
	case '`':
		return token.Token{Type: token.IDENT, Literal: l.readQuoted('`', pos)}
	case '[':
		return token.Token{Type: token.IDENT, Literal: l.readBracketed(pos)}
	}

	switch {
	case isLetter(l.ch) || l.ch == '_':
		lit := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(strings.ToLower(lit)), Literal: lit}
	case isDigit(l.ch):
		return token.Token{Type: token.NUMBER, Literal: l.readNumber()}
	}
	return l.single(token.ILLEGAL)
}

func (l *Lexer) single(t token.TokenType) token.Token {
	lit := string(l.ch)
	l.readChar()
	return token.Token{Type: t, Literal: lit}
}

func (l *Lexer) double(t token.TokenType, lit string) token.Token {
	l.readChar()
	l.readChar()
	return token.Token{Type: t, Literal: lit}
}

// skipWhitespaceAndComments skips whitespace, line comments and block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			start := l.currentPos()
			l.readChar()
			l.readChar()
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				l.errors = append(l.errors, &LexError{Pos: start, Message: ErrUnterminatedComment})
			}
			continue
		}

		break
	}
}

// readQuoted reads a quoted string or identifier. A doubled quote character
// is an escaped quote: 'it''s' -> it's.
func (l *Lexer) readQuoted(quote byte, start token.Position) string {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		switch {
		case l.ch == 0:
			l.errors = append(l.errors, &LexError{Pos: start, Message: ErrUnterminatedString})
			return result.String()
		case l.ch == quote && l.peekChar() == quote:
			result.WriteByte(quote)
			l.readChar()
			l.readChar()
		case l.ch == quote:
			l.readChar()
			return result.String()
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// readBracketed reads a [bracketed] identifier.
func (l *Lexer) readBracketed(start token.Position) string {
	l.readChar() // skip '['
	begin := l.pos
	for l.ch != ']' {
		if l.ch == 0 {
			l.errors = append(l.errors, &LexError{Pos: start, Message: ErrUnterminatedString})
			return l.input[begin:l.pos]
		}
		l.readChar()
	}
	lit := l.input[begin:l.pos]
	l.readChar() // skip ']'
	return lit
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && (isDigit(l.peekChar()) || start == l.pos) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string) []token.Token {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
