package lexer

import (
	"testing"

	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

func TestNextProducesExpectedKinds(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   []token.Kind
	}{
		{
			name:   "LetBinding",
			source: "let x = 5;",
			want:   []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON, token.EOF},
		},
		{
			name:   "Operators",
			source: "a |> b >> c .. d ..= e",
			want: []token.Kind{
				token.IDENT, token.PIPELINE, token.IDENT, token.COMPOSE, token.IDENT,
				token.RANGE, token.IDENT, token.RANGE_EQ, token.IDENT, token.EOF,
			},
		},
		{
			name:   "LineComment",
			source: "1 // trailing comment\n2",
			want:   []token.Kind{token.INT, token.INT, token.EOF},
		},
		{
			name:   "DecimalVsInteger",
			source: "1 1.5",
			want:   []token.Kind{token.INT, token.DECIMAL, token.EOF},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lex := New(tc.source)
			toks, err := lex.Tokens()
			if err != nil {
				t.Fatalf("Tokens() returned error: %v", err)
			}
			if len(toks) != len(tc.want) {
				t.Fatalf("expected %d tokens, got %d (%v)", len(tc.want), len(toks), toks)
			}
			for i, k := range tc.want {
				if toks[i].Kind != k {
					t.Fatalf("token %d: expected kind %v, got %v (%q)", i, k, toks[i].Kind, toks[i].Literal)
				}
			}
		})
	}
}

func TestPositionsTrackLineAndColumn(t *testing.T) {
	lex := New("a\nbb")
	first, err := lex.Next()
	if err != nil {
		t.Fatalf("Next() returned error: %v", err)
	}
	if first.Pos.Line != 0 || first.Pos.Column != 0 {
		t.Fatalf("expected first token at 0:0, got %d:%d", first.Pos.Line, first.Pos.Column)
	}
	second, err := lex.Next()
	if err != nil {
		t.Fatalf("Next() returned error: %v", err)
	}
	if second.Pos.Line != 1 || second.Pos.Column != 0 {
		t.Fatalf("expected second token at 1:0, got %d:%d", second.Pos.Line, second.Pos.Column)
	}
}

func TestIllegalCharacterReportsError(t *testing.T) {
	lex := New("#")
	if _, err := lex.Tokens(); err == nil {
		t.Fatalf("expected an error for an illegal character")
	}
}

func TestTrailingBangIsPartOfIdentifier(t *testing.T) {
	lex := New("push!")
	tok, err := lex.Next()
	if err != nil {
		t.Fatalf("Next() returned error: %v", err)
	}
	if tok.Kind != token.IDENT || tok.Literal != "push!" {
		t.Fatalf("expected IDENT %q, got %v %q", "push!", tok.Kind, tok.Literal)
	}
}

func TestBangEqualAfterIdentifierIsNotSwallowed(t *testing.T) {
	lex := New("n!=5")
	toks, err := lex.Tokens()
	if err != nil {
		t.Fatalf("Tokens() returned error: %v", err)
	}
	want := []token.Kind{token.IDENT, token.NOT_EQ, token.INT, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(toks), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected kind %v, got %v (%q)", i, k, toks[i].Kind, toks[i].Literal)
		}
	}
	if toks[0].Literal != "n" {
		t.Fatalf("expected the identifier to be just %q, got %q", "n", toks[0].Literal)
	}
}

func TestStringLiteralRoundTrips(t *testing.T) {
	lex := New(`"hello \"world\""`)
	tok, err := lex.Next()
	if err != nil {
		t.Fatalf("Next() returned error: %v", err)
	}
	if tok.Kind != token.STRING {
		t.Fatalf("expected STRING, got %v", tok.Kind)
	}
}
