package logic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SyntaxError reports a malformed infix expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("logic: syntax error at %d: %s", e.Pos, e.Msg)
}

// Parse reads the infix syntax, for example
//
//	payload.testType in valueSets.accepted-test-types
//	validationClock not-after plusTime(payload.t.0.sc, 72, "hour")
//	not (payload.v.0.dn < payload.v.0.sd) and payload.v.0.mp in valueSets.vaccines
//
// Identifiers are dotted paths and may contain hyphens. "valueSets.*" and
// "validationClock" resolve under "external". Precedence from loosest:
// or, and, not, comparison (=== !== == != < > <= >= in before after
// not-before not-after), +.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.String()}
	}
	return e, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokSymbol
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

var symbols = []string{"===", "!==", "==", "!=", "<=", ">=", "!!", "<", ">", "!", "+", "(", ")", "[", "]", ","}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r := rune(src[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '"' || r == '\'':
			j := i + 1
			var sb strings.Builder
			for j < len(src) && rune(src[j]) != r {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				sb.WriteByte(src[j])
				j++
			}
			if j >= len(src) {
				return nil, &SyntaxError{Pos: i, Msg: "unterminated string"}
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: i})
			i = j + 1
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			j := i + 1
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], pos: i})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(src) && isIdentChar(rune(src[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:j], pos: i})
			i = j
		default:
			matched := false
			for _, sym := range symbols {
				if strings.HasPrefix(src[i:], sym) {
					toks = append(toks, token{kind: tokSymbol, text: sym, pos: i})
					i += len(sym)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == word
}

func (p *parser) isSymbol(sym string) bool {
	t := p.peek()
	return t.kind == tokSymbol && t.text == sym
}

func (p *parser) expect(sym string) error {
	if !p.isSymbol(sym) {
		t := p.peek()
		return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("expected %q, got %s", sym, t)}
	}
	p.next()
	return nil
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseJunction(OpOr, "or", p.parseAnd)
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseJunction(OpAnd, "and", p.parseNot)
}

func (p *parser) parseJunction(op Op, word string, operand func() (Expr, error)) (Expr, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	args := []Expr{first}
	for p.isKeyword(word) {
		p.next()
		e, err := operand()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	if len(args) == 1 {
		return first, nil
	}
	return Call{Op: op, Args: args}, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.isSymbol("!!") {
		p.next()
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Call{Op: OpTruthy, Args: []Expr{e}}, nil
	}
	if (p.isKeyword("not") && !(p.peekAt(1).kind == tokIdent && p.peekAt(1).text == "in")) || p.isSymbol("!") {
		p.next()
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Call{Op: OpNot, Args: []Expr{e}}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]Op{
	"===": OpStrictEq, "==": OpStrictEq,
	"!==": OpStrictNe, "!=": OpStrictNe,
	"<": OpLess, ">": OpGreater, "<=": OpLessEq, ">=": OpGreaterEq,
	"in": OpIn, "before": OpBefore, "after": OpAfter,
	"not-before": OpNotBefore, "not-after": OpNotAfter,
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	negate := false
	if p.isKeyword("not") && p.peekAt(1).kind == tokIdent && p.peekAt(1).text == "in" {
		p.next()
		negate = true
	}
	t := p.peek()
	op, ok := comparisonOps[t.text]
	if !ok || (t.kind != tokSymbol && t.kind != tokIdent) {
		return left, nil
	}
	p.next()
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	var e Expr = Call{Op: op, Args: []Expr{left, right}}
	if negate {
		e = Call{Op: OpNot, Args: []Expr{e}}
	}
	return e, nil
}

func (p *parser) parseSum() (Expr, error) {
	first, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	args := []Expr{first}
	for p.isSymbol("+") {
		p.next()
		e, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	if len(args) == 1 {
		return first, nil
	}
	return Call{Op: OpPlus, Args: args}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: t.pos, Msg: "bad number " + t.text}
		}
		return Literal{Value: f}, nil
	case tokString:
		return Literal{Value: t.text}, nil
	case tokSymbol:
		switch t.text {
		case "(":
			e, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			return e, p.expect(")")
		case "[":
			items, err := p.parseList("]")
			if err != nil {
				return nil, err
			}
			return Array{Items: items}, nil
		}
	case tokIdent:
		switch t.text {
		case "true":
			return Literal{Value: true}, nil
		case "false":
			return Literal{Value: false}, nil
		case "null":
			return Literal{Value: nil}, nil
		}
		if p.isSymbol("(") {
			p.next()
			args, err := p.parseList(")")
			if err != nil {
				return nil, err
			}
			return Call{Op: Op(t.text), Args: args}, nil
		}
		return Var{Path: resolvePath(t.text)}, nil
	}
	return nil, &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.String()}
}

func (p *parser) parseList(closing string) ([]Expr, error) {
	var items []Expr
	if p.isSymbol(closing) {
		p.next()
		return items, nil
	}
	for {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		if p.isSymbol(",") {
			p.next()
			continue
		}
		return items, p.expect(closing)
	}
}

func resolvePath(name string) string {
	switch {
	case name == "validationClock", name == "valueSets", strings.HasPrefix(name, "valueSets."):
		return "external." + name
	}
	return name
}
