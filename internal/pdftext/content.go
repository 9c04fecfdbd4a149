package pdftext

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/jackzampolin/quire/internal/reflow"
)

// kernSpace is the TJ adjustment, in thousandths of a text space unit, below
// which a gap is read as a word space.
const kernSpace = -200

// ParseContent interprets the text operators of a page content stream and
// returns one fragment per shown string. Glyph widths are unknown here, so
// strings shown on one line without repositioning share an X coordinate and
// keep their stream order.
func ParseContent(content []byte) []reflow.Fragment {
	in := &interpreter{tm: identity, tlm: identity}
	lx := &lexer{data: content}

	var operands []operand
	var arrays [][]operand
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}

		switch tok.kind {
		case tokArrayStart:
			arrays = append(arrays, nil)
			continue
		case tokArrayEnd:
			if len(arrays) == 0 {
				continue
			}
			arr := arrays[len(arrays)-1]
			arrays = arrays[:len(arrays)-1]
			op := operand{kind: opArray, arr: arr}
			if len(arrays) > 0 {
				arrays[len(arrays)-1] = append(arrays[len(arrays)-1], op)
			} else {
				operands = append(operands, op)
			}
			continue
		}

		var op operand
		switch tok.kind {
		case tokNumber:
			op = operand{kind: opNumber, num: tok.num}
		case tokString:
			op = operand{kind: opString, str: tok.str}
		case tokName, tokDict:
			op = operand{kind: opOther}
		case tokOperator:
			if len(arrays) > 0 {
				// Operators cannot appear inside arrays; drop the broken array.
				arrays = nil
			}
			if tok.op == "ID" {
				lx.skipInlineImage()
			}
			in.exec(tok.op, operands)
			operands = operands[:0]
			continue
		}

		if len(arrays) > 0 {
			arrays[len(arrays)-1] = append(arrays[len(arrays)-1], op)
		} else {
			operands = append(operands, op)
		}
	}

	return in.frags
}

// matrix is a PDF affine transform [a b c d e f].
type matrix struct{ a, b, c, d, e, f float64 }

var identity = matrix{a: 1, d: 1}

// translate returns the matrix pre-multiplied by a translation of (tx, ty).
func (m matrix) translate(tx, ty float64) matrix {
	m.e += tx*m.a + ty*m.c
	m.f += tx*m.b + ty*m.d
	return m
}

type interpreter struct {
	tm, tlm  matrix
	fontSize float64
	leading  float64
	frags    []reflow.Fragment
}

func (in *interpreter) exec(op string, args []operand) {
	switch op {
	case "BT":
		in.tm, in.tlm = identity, identity
	case "Tf":
		if n, ok := number(args, 1); ok {
			in.fontSize = n
		}
	case "TL":
		if n, ok := number(args, 0); ok {
			in.leading = n
		}
	case "Td":
		if tx, ok := number(args, 0); ok {
			ty, _ := number(args, 1)
			in.moveLine(tx, ty)
		}
	case "TD":
		if tx, ok := number(args, 0); ok {
			ty, _ := number(args, 1)
			in.leading = -ty
			in.moveLine(tx, ty)
		}
	case "Tm":
		if len(args) >= 6 {
			var v [6]float64
			for i := range v {
				v[i], _ = number(args, i)
			}
			in.tlm = matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
			in.tm = in.tlm
		}
	case "T*":
		in.nextLine()
	case "Tj":
		if s, ok := str(args, len(args)-1); ok {
			in.show(decodeText(s))
		}
	case "'":
		in.nextLine()
		if s, ok := str(args, len(args)-1); ok {
			in.show(decodeText(s))
		}
	case "\"":
		in.nextLine()
		if s, ok := str(args, 2); ok {
			in.show(decodeText(s))
		}
	case "TJ":
		if len(args) > 0 && args[len(args)-1].kind == opArray {
			in.show(joinTJ(args[len(args)-1].arr))
		}
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.tlm = in.tlm.translate(tx, ty)
	in.tm = in.tlm
}

func (in *interpreter) nextLine() {
	in.moveLine(0, -in.leading)
}

func (in *interpreter) show(text string) {
	text = cleanText(text)
	if text == "" {
		return
	}
	scale := math.Hypot(in.tm.c, in.tm.d)
	if scale == 0 {
		scale = 1
	}
	in.frags = append(in.frags, reflow.Fragment{
		Text:   text,
		X:      in.tm.e,
		Y:      in.tm.f,
		Height: in.fontSize * scale,
	})
}

// joinTJ concatenates the strings of a TJ array. Large negative adjustments
// separate words.
func joinTJ(arr []operand) string {
	var sb strings.Builder
	for _, el := range arr {
		switch el.kind {
		case opString:
			sb.WriteString(decodeText(el.str))
		case opNumber:
			if el.num < kernSpace && sb.Len() > 0 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// decodeText converts a PDF string to UTF-8. Strings starting with a UTF-16BE
// byte order mark are decoded as such; anything else is read as
// WinAnsiEncoding, which covers ASCII and the common Latin-1 range.
func decodeText(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

type operandKind int

const (
	opNumber operandKind = iota
	opString
	opArray
	opOther
)

type operand struct {
	kind operandKind
	num  float64
	str  []byte
	arr  []operand
}

func number(args []operand, i int) (float64, bool) {
	if i < 0 || i >= len(args) || args[i].kind != opNumber {
		return 0, false
	}
	return args[i].num, true
}

func str(args []operand, i int) ([]byte, bool) {
	if i < 0 || i >= len(args) || args[i].kind != opString {
		return nil, false
	}
	return args[i].str, true
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokDict
	tokArrayStart
	tokArrayEnd
	tokOperator
)

type token struct {
	kind tokenKind
	num  float64
	str  []byte
	op   string
}

// lexer splits a content stream into tokens.
type lexer struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isWhite(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, bool) {
	for {
		l.skipSpace()
		if l.pos >= len(l.data) {
			return token{}, false
		}

		c := l.data[l.pos]
		switch {
		case c == '(':
			l.pos++
			return token{kind: tokString, str: l.literal()}, true
		case c == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
			l.skipDict()
			return token{kind: tokDict}, true
		case c == '<':
			l.pos++
			return token{kind: tokString, str: l.hex()}, true
		case c == '[':
			l.pos++
			return token{kind: tokArrayStart}, true
		case c == ']':
			l.pos++
			return token{kind: tokArrayEnd}, true
		case c == '/':
			l.pos++
			l.regular()
			return token{kind: tokName}, true
		case isDelim(c):
			// Stray ')', '>', '{' or '}'.
			l.pos++
			continue
		}

		word := l.regular()
		if n, err := strconv.ParseFloat(word, 64); err == nil {
			return token{kind: tokNumber, num: n}, true
		}
		return token{kind: tokOperator, op: word}, true
	}
}

// regular consumes a run of regular characters.
func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isWhite(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// literal reads a (string) whose opening parenthesis was consumed.
func (l *lexer) literal() []byte {
	var raw []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			raw = append(raw, c)
			if l.pos < len(l.data) {
				raw = append(raw, l.data[l.pos])
				l.pos++
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return decodePDFString(raw)
			}
		}
		raw = append(raw, c)
	}
	return decodePDFString(raw)
}

// hex reads a <hex string> whose opening bracket was consumed.
func (l *lexer) hex() []byte {
	var digits []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			break
		}
		if _, ok := hexVal(c); ok {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, _ := hexVal(digits[i])
		lo, _ := hexVal(digits[i+1])
		out = append(out, hi<<4|lo)
	}
	return out
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// skipDict skips a << dictionary >>, including nested ones.
func (l *lexer) skipDict() {
	depth := 0
	for l.pos < len(l.data) {
		switch {
		case bytes.HasPrefix(l.data[l.pos:], []byte("<<")):
			depth++
			l.pos += 2
		case bytes.HasPrefix(l.data[l.pos:], []byte(">>")):
			depth--
			l.pos += 2
			if depth == 0 {
				return
			}
		case l.data[l.pos] == '(':
			l.pos++
			l.literal()
		default:
			l.pos++
		}
	}
}

// skipInlineImage skips binary image data up to and including EI.
func (l *lexer) skipInlineImage() {
	if l.pos < len(l.data) && isWhite(l.data[l.pos]) {
		l.pos++
	}
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isWhite(l.data[l.pos-1])) &&
			(l.pos+2 >= len(l.data) || isWhite(l.data[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}

// decodePDFString handles PDF literal string escape sequences.
func decodePDFString(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			out = append(out, raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r':
			// Line continuation.
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
		case '\n':
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				out = append(out, byte(val))
			} else {
				out = append(out, raw[i])
			}
		}
	}
	return out
}
