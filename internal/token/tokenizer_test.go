package token

import (
	"strconv"
	"testing"
)

// firstLiteral tokenizes src and returns its first non-EOL/EOF token.
func firstLiteral(t *testing.T, src string) Token {
	t.Helper()
	tz := New("test.rogue", src)
	toks, d := tz.Scan()
	if d != nil {
		t.Fatalf("Scan(%q): %v", src, d)
	}
	for _, tok := range toks {
		if tok.Type != EOL && tok.Type != EOF {
			return tok
		}
	}
	t.Fatalf("Scan(%q) produced no literal token", src)
	return Token{}
}

// TestTokenizerIntegerRoundTrip checks spec §8's tokenizer round-trip
// property: for any integer literal N in [-2^31, 2^31), tokenizing N's
// decimal text yields a single literal_integer token carrying N. (A
// leading '-' tokenizes as a separate operator, so this covers the
// non-negative half directly and the magnitude for negatives.)
func TestTokenizerIntegerRoundTrip(t *testing.T) {
	values := []int32{0, 1, 42, 255, 65535, 1 << 20, 1<<31 - 1}
	for _, v := range values {
		tok := firstLiteral(t, strconv.FormatInt(int64(v), 10))
		if tok.Type != LiteralInteger {
			t.Errorf("value %d: token type = %s, want %s", v, tok.Type, LiteralInteger)
			continue
		}
		if tok.Payload.Integer != v {
			t.Errorf("value %d: Payload.Integer = %d", v, tok.Payload.Integer)
		}
	}
}

// TestTokenizerIntegerOverflowPromotesToLong checks the other half of
// spec §8's property: a decimal literal outside int32 range (but within
// int64) still tokenizes, as a single literal_long token, rather than
// erroring or truncating.
func TestTokenizerIntegerOverflowPromotesToLong(t *testing.T) {
	values := []int64{1 << 31, 1<<63 - 1, 1 << 40}
	for _, v := range values {
		tok := firstLiteral(t, strconv.FormatInt(v, 10))
		if tok.Type != LiteralLong {
			t.Errorf("value %d: token type = %s, want %s", v, tok.Type, LiteralLong)
			continue
		}
		if tok.Payload.Long != v {
			t.Errorf("value %d: Payload.Long = %d", v, tok.Payload.Long)
		}
	}
}

func TestTokenizerExplicitLongSuffix(t *testing.T) {
	tok := firstLiteral(t, "42L")
	if tok.Type != LiteralLong {
		t.Fatalf("token type = %s, want %s", tok.Type, LiteralLong)
	}
	if tok.Payload.Long != 42 {
		t.Errorf("Payload.Long = %d, want 42", tok.Payload.Long)
	}
}

func TestTokenizerIdentifierCaseDeterminesType(t *testing.T) {
	if tok := firstLiteral(t, "myVar"); tok.Type != Identifier {
		t.Errorf("myVar: token type = %s, want %s", tok.Type, Identifier)
	}
	if tok := firstLiteral(t, "MyClass"); tok.Type != TypeIdentifier {
		t.Errorf("MyClass: token type = %s, want %s", tok.Type, TypeIdentifier)
	}
}
