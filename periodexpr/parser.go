//
// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// parser.go implements the period mini-language's recursive-descent parser,
// per the grammar in spec §6. It follows the hand-rolled, regexp-assisted
// scanning style of traceparser/formatparser.go rather than reaching for a
// parser-generator or combinator library.
package periodexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/simplelru"

	"github.com/google/traceperiods/tracedata"
)

var (
	rePeriodName = regexp.MustCompile(`^[A-Za-z0-9_-]+`)
	reIdent      = regexp.MustCompile(`^[A-Za-z_]\w*`)
	reNumber     = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]*)?([eE][+-]?[0-9]+)?`)
	reQString    = regexp.MustCompile(`^"(?:\\.|[^"\\])*"`)
)

var scopePrefixes = []struct {
	lit   string
	scope tracedata.Scope
}{
	{"$pkt_header.", tracedata.PacketHeader},
	{"$pkt_ctx.", tracedata.PacketContext},
	{"$stream_ctx.", tracedata.StreamEventContext},
	{"$header.", tracedata.StreamEventHeader},
	{"$ctx.", tracedata.EventContext},
	{"$payload.", tracedata.Payload},
}

// ParsedPeriod is the result of parsing one period argument string: an
// optional name, and begin/end expressions (End == Begin when the input
// supplied no second conj clause, per spec §3).
type ParsedPeriod struct {
	Name    string
	HasName bool
	Begin   Expression
	End     Expression
}

// parseCache memoizes Parse by its raw input string. The grammar is pure —
// identical input always yields an identical result — so a small in-memory
// LRU avoids re-running the scanner for strings already parsed in the same
// process; it does not persist between command invocations. Sized the way
// server/storage_service.go sizes its collection cache: small, fixed,
// bounded.
const parseCacheSize = 64

var parseCache, _ = lru.NewLRU(parseCacheSize, nil)

type cachedParse struct {
	pp  *ParsedPeriod
	err error
}

// Parse parses a single period argument string of the shape
// `[name] ":" conj [ ":" conj ]` per spec §6. On any error it returns a
// *MalformedExpressionError and no partial result.
func Parse(input string) (*ParsedPeriod, error) {
	if v, ok := parseCache.Get(input); ok {
		c := v.(cachedParse)
		return c.pp, c.err
	}
	p := &parser{src: input}
	pp, err := p.parsePeriod()
	if err == nil {
		p.skipSpace()
		if p.pos != len(p.src) {
			err = p.fail("unexpected trailing input")
			pp = nil
		}
	}
	parseCache.Add(input, cachedParse{pp, err})
	return pp, err
}

type parser struct {
	src string
	pos int
}

func (p *parser) fail(msg string) error {
	return &MalformedExpressionError{Input: p.src, Pos: p.pos, Msg: msg}
}

func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) consumeLiteral(lit string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.rest(), lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

func (p *parser) consumeRegexp(re *regexp.Regexp) (string, bool) {
	p.skipSpace()
	loc := re.FindStringIndex(p.rest())
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	tok := p.rest()[loc[0]:loc[1]]
	p.pos += loc[1]
	return tok, true
}

func (p *parser) parsePeriod() (*ParsedPeriod, error) {
	pp := &ParsedPeriod{}

	// A period name is present only when a bare alnum/_/- token is
	// immediately followed by ':'; field references always start with '$'
	// so there is no ambiguity to backtrack across.
	save := p.pos
	if name, ok := p.consumeRegexp(rePeriodName); ok {
		if p.consumeLiteral(":") {
			pp.Name, pp.HasName = name, true
		} else {
			p.pos = save
		}
	}
	if !pp.HasName && !p.consumeLiteral(":") {
		return nil, p.fail("expected ':' after optional period name")
	}

	begin, err := p.parseConj()
	if err != nil {
		return nil, err
	}
	pp.Begin, pp.End = begin, begin

	if p.consumeLiteral(":") {
		end, err := p.parseConj()
		if err != nil {
			return nil, err
		}
		pp.End = end
	}
	return pp, nil
}

func (p *parser) parseConj() (Expression, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.consumeLiteral("&&") {
		next, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		expr = And(expr, next)
	}
	return expr, nil
}

// parseField recognizes `[ "$begin." ] "$evt." ( "$name" | [ scope ] ident )`.
// matched is false, and pos is restored, if no field reference starts here.
func (p *parser) parseField() (isBegin, isName bool, scope tracedata.Scope, name string, matched bool) {
	save := p.pos
	isBegin = p.consumeLiteral("$begin.")
	if !p.consumeLiteral("$evt.") {
		p.pos = save
		return false, false, tracedata.AUTO, "", false
	}
	if p.consumeLiteral("$name") {
		return isBegin, true, tracedata.AUTO, "", true
	}
	scope = tracedata.AUTO
	for _, sp := range scopePrefixes {
		if p.consumeLiteral(sp.lit) {
			scope = sp.scope
			break
		}
	}
	ident, ok := p.consumeRegexp(reIdent)
	if !ok {
		p.pos = save
		return false, false, tracedata.AUTO, "", false
	}
	return isBegin, false, scope, ident, true
}

// parseRelOp recognizes eqop/relop, reporting whether it was an eqop
// (`==`/`!=`) and, if so, whether it was negated (`!=`).
func (p *parser) parseRelOp() (op RelOp, isEq, negate, ok bool) {
	switch {
	case p.consumeLiteral("=="):
		return OpEq, true, false, true
	case p.consumeLiteral("!="):
		return OpEq, true, true, true
	case p.consumeLiteral("<="):
		return OpLtEq, false, false, true
	case p.consumeLiteral(">="):
		return OpGtEq, false, false, true
	case p.consumeLiteral("<"):
		return OpLt, false, false, true
	case p.consumeLiteral(">"):
		return OpGt, false, false, true
	default:
		return 0, false, false, false
	}
}

func buildRelational(op RelOp, isEq, negate bool, lhs, rhs Expression) Expression {
	if isEq {
		if negate {
			return Ne(lhs, rhs)
		}
		return Eq(lhs, rhs)
	}
	return Relational{Op: op, LHS: lhs, RHS: rhs}
}

// parseAtom recognizes the three atom forms of spec §6: name_cmp,
// field_cmp_lit, and field_cmp_field, unified around one LHS-field,
// operator, RHS-operand grammar.
func (p *parser) parseAtom() (Expression, error) {
	lhsBegin, lhsIsName, lhsScope, lhsName, ok := p.parseField()
	if !ok {
		return nil, p.fail("expected a field or $evt.$name reference")
	}
	var lhs Expression
	if lhsIsName {
		lhs = EventName{IsBegin: lhsBegin}
	} else {
		lhs = EventField{IsBegin: lhsBegin, Scope: lhsScope, Name: lhsName}
	}

	op, isEq, negate, ok := p.parseRelOp()
	if !ok {
		return nil, p.fail("expected a comparison operator")
	}
	if lhsIsName && !isEq {
		return nil, p.fail("$evt.$name may only be compared with == or !=")
	}

	save := p.pos
	if rBegin, rIsName, rScope, rName, ok := p.parseField(); ok {
		var rhs Expression
		if rIsName {
			rhs = EventName{IsBegin: rBegin}
		} else {
			rhs = EventField{IsBegin: rBegin, Scope: rScope, Name: rName}
		}
		return buildRelational(op, isEq, negate, lhs, rhs), nil
	}
	p.pos = save

	if qs, ok := p.consumeRegexp(reQString); ok {
		unescaped, err := unquote(qs)
		if err != nil {
			return nil, p.fail(err.Error())
		}
		return buildRelational(op, isEq, negate, lhs, String{Value: unescaped}), nil
	}

	if lhsIsName {
		return nil, p.fail("$evt.$name must be compared against a quoted string")
	}

	if numLit, ok := p.consumeRegexp(reNumber); ok {
		f, err := strconv.ParseFloat(numLit, 64)
		if err != nil {
			return nil, p.fail("invalid number literal")
		}
		return buildRelational(op, isEq, negate, lhs, Number{Value: f}), nil
	}

	return nil, p.fail("expected a field, quoted string, or number operand")
}

func unquote(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("malformed quoted string %q", tok)
	}
	inner := tok[1 : len(tok)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			b.WriteByte(inner[i])
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}
