package rules

import (
	"strconv"
	"strings"

	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

/*
 * Literal scanning and parsing.
 *
 * Right-hand sides, arithmetic operands, and map-key subscripts all reduce
 * to one scalar literal parsed against an expected catalog type:
 *
 *   bool    exactly 'true' or 'false'
 *   int     optionally-signed digit run, no decimal point
 *   uint    unsigned digit run, '-' is sign misuse
 *   float   optionally-signed digit run with exactly one decimal point
 *   string  quote-delimited printable run, ' or ", close quote mandatory
 *
 * Number tokens are scanned greedily over sign/digit/dot characters; shape
 * validation happens against the expected type so "1.5" against an int64
 * attribute reports a bad integer literal, not a scan failure. Range is
 * enforced with the declared width (int32 vs int64, float32 vs float64).
 */

// scanNumberToken returns the longest run of sign/digit/dot characters at
// s[pos:]. A '-' is only consumed in the leading position.
func scanNumberToken(s string, pos int) (string, int) {
	end := pos
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' || c == '.' {
			end++
			continue
		}
		if c == '-' && end == pos {
			end++
			continue
		}
		break
	}
	return s[pos:end], end
}

// numberShape describes a scanned number token.
type numberShape struct {
	negative bool
	digits   int
	dots     int
}

// shapeOf classifies a scanned number token.
func shapeOf(tok string) numberShape {
	var sh numberShape
	for i := 0; i < len(tok); i++ {
		switch {
		case tok[i] == '-' && i == 0:
			sh.negative = true
		case tok[i] == '.':
			sh.dots++
		default:
			sh.digits++
		}
	}
	return sh
}

// parseScalarLiteral parses one literal of the expected scalar kind at
// s[pos:], returning the parsed literal and the position after it.
func parseScalarLiteral(s string, pos int, kind schema.AttrType) (Literal, int, error) {
	switch {
	case kind == schema.TypeBool:
		return parseBoolLiteral(s, pos)
	case kind.IsInteger():
		return parseIntLiteral(s, pos, kind)
	case kind.IsFloat():
		return parseFloatLiteral(s, pos, kind)
	case kind == schema.TypeString:
		return parseStringLiteral(s, pos)
	default:
		return Literal{}, pos, types.E(types.CodeUnsupportedVerb,
			"no literal form for type %s", kind)
	}
}

// parseBoolLiteral accepts exactly 'true' or 'false'.
func parseBoolLiteral(s string, pos int) (Literal, int, error) {
	for _, word := range []string{"true", "false"} {
		if strings.HasPrefix(s[pos:], word) {
			end := pos + len(word)
			if end < len(s) && isIdentChar(s[end]) {
				break
			}
			return Literal{Kind: schema.TypeBool, Bool: word == "true", Text: word}, end, nil
		}
	}
	return Literal{}, pos, types.E(types.CodeBadBoolLiteral,
		"expected 'true' or 'false' at offset %d", pos)
}

// parseIntLiteral accepts an optionally-signed digit run. Unsigned kinds
// reject the sign; any decimal point is a shape error for integers.
func parseIntLiteral(s string, pos int, kind schema.AttrType) (Literal, int, error) {
	tok, end := scanNumberToken(s, pos)
	sh := shapeOf(tok)
	if sh.digits == 0 || sh.dots > 0 {
		return Literal{}, pos, types.E(types.CodeBadIntLiteral,
			"expected integer literal for %s at offset %d, got %q", kind, pos, tok)
	}
	if sh.negative && kind.IsUnsigned() {
		return Literal{}, pos, types.E(types.CodeBadIntLiteral,
			"sign not allowed for unsigned type %s at offset %d", kind, pos)
	}
	bits := 64
	if kind == schema.TypeInt32 || kind == schema.TypeUint32 {
		bits = 32
	}
	if kind.IsUnsigned() {
		u, err := strconv.ParseUint(tok, 10, bits)
		if err != nil {
			return Literal{}, pos, types.E(types.CodeBadIntLiteral,
				"integer literal %q out of range for %s", tok, kind)
		}
		return Literal{Kind: kind, Uint: u, Text: tok}, end, nil
	}
	i, err := strconv.ParseInt(tok, 10, bits)
	if err != nil {
		return Literal{}, pos, types.E(types.CodeBadIntLiteral,
			"integer literal %q out of range for %s", tok, kind)
	}
	return Literal{Kind: kind, Int: i, Text: tok}, end, nil
}

// parseFloatLiteral accepts an optionally-signed digit run carrying exactly
// one decimal point.
func parseFloatLiteral(s string, pos int, kind schema.AttrType) (Literal, int, error) {
	tok, end := scanNumberToken(s, pos)
	sh := shapeOf(tok)
	if sh.digits == 0 || sh.dots != 1 {
		return Literal{}, pos, types.E(types.CodeBadFloatLiteral,
			"expected float literal with one decimal point for %s at offset %d, got %q", kind, pos, tok)
	}
	bits := 64
	if kind == schema.TypeFloat32 {
		bits = 32
	}
	f, err := strconv.ParseFloat(tok, bits)
	if err != nil {
		return Literal{}, pos, types.E(types.CodeBadFloatLiteral,
			"float literal %q out of range for %s", tok, kind)
	}
	return Literal{Kind: kind, Float: f, Text: tok}, end, nil
}

// parseStringLiteral accepts a single- or double-quoted run of printable
// characters. Open and close quote must match; a missing close quote is a
// bad string literal.
func parseStringLiteral(s string, pos int) (Literal, int, error) {
	if pos >= len(s) || (s[pos] != '\'' && s[pos] != '"') {
		return Literal{}, pos, types.E(types.CodeBadStringLiteral,
			"expected quoted string at offset %d", pos)
	}
	quote := s[pos]
	for end := pos + 1; end < len(s); end++ {
		if s[end] == quote {
			content := s[pos+1 : end]
			return Literal{Kind: schema.TypeString, Str: content, Text: s[pos : end+1]}, end + 1, nil
		}
	}
	return Literal{}, pos, types.E(types.CodeBadStringLiteral,
		"missing closing %c for string starting at offset %d", quote, pos)
}

// canonicalKeyText renders a parsed subscript literal as canonical map key
// text, matching the key text records are stored under.
func canonicalKeyText(lit Literal) string {
	switch {
	case lit.Kind == schema.TypeString:
		return lit.Str
	case lit.Kind.IsFloat():
		return schema.CanonicalFloatKey(lit.Float)
	default:
		return schema.CanonicalIntKey(lit.Int)
	}
}
