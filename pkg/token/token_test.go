package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		word string
		want TokenType
	}{
		{"select", SELECT},
		{"union", UNION},
		{"using", USING},
		{"orders", IDENT},
		{"SELECT", IDENT}, // callers lowercase first
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.word))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "SELECT", SELECT.String())
	assert.Equal(t, "::", DCOLON.String())
	assert.Equal(t, "TOKEN(5000)", TokenType(5000).String())
}

func TestClassification(t *testing.T) {
	assert.True(t, IsKeyword(WITH))
	assert.True(t, IsKeyword(ALL))
	assert.False(t, IsKeyword(IDENT))
	assert.True(t, IsOperator(DCOLON))
	assert.False(t, IsOperator(SELECT))
}

func TestSpanText(t *testing.T) {
	src := "SELECT a FROM t"
	s := Span{
		Start: Position{Line: 1, Column: 8, Offset: 7},
		End:   Position{Line: 1, Column: 9, Offset: 8},
	}
	assert.Equal(t, "a", s.Text(src))
	assert.True(t, s.Contains(7))
	assert.False(t, s.Contains(8))
	assert.Equal(t, "", Span{}.Text(src))

	out := Span{Start: Position{Line: 1, Offset: 10}, End: Position{Line: 1, Offset: 99}}
	assert.Equal(t, "", out.Text(src))
}
