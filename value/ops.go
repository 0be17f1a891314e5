package value

import (
	"strings"

	"forwardbackward/engine"
	"forwardbackward/numeric"
	"forwardbackward/token"
)

// Env is the numeric environment threaded through every arithmetic call,
// renamed locally to keep call sites short.
type Env = *numeric.Environment

// Add implements "+" per spec §4.2: Float+Float delegates to the number
// tower, String+String concatenates, Array/Dictionary broadcast
// element-wise (lhs's structure wins, then rhs's), Nil is the additive
// identity, anything else is a TypedOperationException.
func Add(env Env, lhs, rhs Value, tok *token.Token) (Value, error) {
	if a, ok := lhs.(*Array); ok {
		return broadcastArray(env, a, rhs, tok, Add)
	}
	if a, ok := rhs.(*Array); ok {
		return broadcastArrayRHS(env, lhs, a, tok, Add)
	}
	if d, ok := lhs.(*Dictionary); ok {
		return broadcastDict(env, d, rhs, tok, Add)
	}
	if d, ok := rhs.(*Dictionary); ok {
		return broadcastDictRHS(env, lhs, d, tok, Add)
	}
	if isNil(lhs) {
		return rhs, nil
	}
	if isNil(rhs) {
		return lhs, nil
	}
	lf, lok := lhs.(*Float)
	rf, rok := rhs.(*Float)
	if lok && rok {
		return &Float{N: lf.N.Add(env, rf.N)}, nil
	}
	ls, lsok := lhs.(*String)
	rs, rsok := rhs.(*String)
	if lsok && rsok {
		return &String{S: ls.S + rs.S}, nil
	}
	return nil, typeError(tok, "adding", lhs, rhs)
}

// Sub implements "-". Nil − x = −x; x − Nil = x.
func Sub(env Env, lhs, rhs Value, tok *token.Token) (Value, error) {
	if a, ok := lhs.(*Array); ok {
		return broadcastArray(env, a, rhs, tok, Sub)
	}
	if a, ok := rhs.(*Array); ok {
		return broadcastArrayRHS(env, lhs, a, tok, Sub)
	}
	if d, ok := lhs.(*Dictionary); ok {
		return broadcastDict(env, d, rhs, tok, Sub)
	}
	if d, ok := rhs.(*Dictionary); ok {
		return broadcastDictRHS(env, lhs, d, tok, Sub)
	}
	if isNil(lhs) {
		return Negate(env, rhs, tok)
	}
	if isNil(rhs) {
		return lhs, nil
	}
	lf, lok := lhs.(*Float)
	rf, rok := rhs.(*Float)
	if lok && rok {
		return &Float{N: lf.N.Sub(env, rf.N)}, nil
	}
	return nil, typeErrorVerb(tok, "subtracting", rhs, "from", lhs)
}

// Mul implements "*". Nil × x = 0 (either side).
func Mul(env Env, lhs, rhs Value, tok *token.Token) (Value, error) {
	if a, ok := lhs.(*Array); ok {
		return broadcastArray(env, a, rhs, tok, Mul)
	}
	if a, ok := rhs.(*Array); ok {
		return broadcastArrayRHS(env, lhs, a, tok, Mul)
	}
	if d, ok := lhs.(*Dictionary); ok {
		return broadcastDict(env, d, rhs, tok, Mul)
	}
	if d, ok := rhs.(*Dictionary); ok {
		return broadcastDictRHS(env, lhs, d, tok, Mul)
	}
	if isNil(lhs) || isNil(rhs) {
		return &Float{N: env.Zero(false)}, nil
	}
	lf, lok := lhs.(*Float)
	rf, rok := rhs.(*Float)
	if lok && rok {
		return &Float{N: lf.N.Mul(env, rf.N)}, nil
	}
	return nil, typeErrorVerb(tok, "multiplying", lhs, "by", rhs)
}

// Div implements "/". Nil / x = 0 (sign-preserving through x); x / Nil =
// sign-preserving infinity (spec §4.2).
func Div(env Env, lhs, rhs Value, tok *token.Token) (Value, error) {
	if a, ok := lhs.(*Array); ok {
		return broadcastArray(env, a, rhs, tok, Div)
	}
	if a, ok := rhs.(*Array); ok {
		return broadcastArrayRHS(env, lhs, a, tok, Div)
	}
	if d, ok := lhs.(*Dictionary); ok {
		return broadcastDict(env, d, rhs, tok, Div)
	}
	if d, ok := rhs.(*Dictionary); ok {
		return broadcastDictRHS(env, lhs, d, tok, Div)
	}
	if isNil(lhs) && isNil(rhs) {
		return &Float{N: numeric.NaN()}, nil
	}
	if isNil(lhs) {
		rf, ok := rhs.(*Float)
		if !ok {
			return nil, typeErrorVerb(tok, "dividing", lhs, "by", rhs)
		}
		return &Float{N: env.Zero(rf.N.IsSigned())}, nil
	}
	if isNil(rhs) {
		lf, ok := lhs.(*Float)
		if !ok {
			return nil, typeErrorVerb(tok, "dividing", lhs, "by", rhs)
		}
		return &Float{N: numeric.Inf(lf.N.IsSigned())}, nil
	}
	lf, lok := lhs.(*Float)
	rf, rok := rhs.(*Float)
	if lok && rok {
		return &Float{N: lf.N.Div(env, rf.N)}, nil
	}
	return nil, typeErrorVerb(tok, "dividing", lhs, "by", rhs)
}

// Cat implements "&" (spec §4.4 Cat, §4.2 string concatenation). Only
// String & String concatenates; Nil & x returns x's string form (or Nil
// if both sides are Nil); Array/Dictionary broadcast.
func Cat(env Env, lhs, rhs Value, tok *token.Token) (Value, error) {
	if a, ok := lhs.(*Array); ok {
		return broadcastArray(env, a, rhs, tok, Cat)
	}
	if a, ok := rhs.(*Array); ok {
		return broadcastArrayRHS(env, lhs, a, tok, Cat)
	}
	if d, ok := lhs.(*Dictionary); ok {
		return broadcastDict(env, d, rhs, tok, Cat)
	}
	if d, ok := rhs.(*Dictionary); ok {
		return broadcastDictRHS(env, lhs, d, tok, Cat)
	}
	if isNil(lhs) && isNil(rhs) {
		return NilValue, nil
	}
	if isNil(lhs) {
		return &String{S: displayString(rhs)}, nil
	}
	if isNil(rhs) {
		return &String{S: displayString(lhs)}, nil
	}
	ls, lok := lhs.(*String)
	rs, rok := rhs.(*String)
	if lok && rok {
		return &String{S: ls.S + rs.S}, nil
	}
	return nil, typeError(tok, "concatenating", lhs, rhs)
}

func displayString(v Value) string {
	if s, ok := v.(*String); ok {
		return s.S
	}
	return v.Inspect()
}

// Negate implements unary "-".
func Negate(env Env, v Value, tok *token.Token) (Value, error) {
	switch x := v.(type) {
	case *Float:
		return &Float{N: x.N.Negate(env)}, nil
	case *Array:
		out := make([]Value, len(x.Elements))
		for i, e := range x.Elements {
			r, err := Negate(env, e, tok)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return &Array{Elements: out}, nil
	case *Dictionary:
		res := NewDictionary()
		for _, e := range x.Entries() {
			r, err := Negate(env, e.Val, tok)
			if err != nil {
				return nil, err
			}
			res = res.Insert(e.Key, r)
		}
		return res, nil
	case *Nil:
		return NilValue, nil
	default:
		return nil, engine.NewTypedError(tok, "Error negating %s", v.Type())
	}
}

type binOp func(env Env, lhs, rhs Value, tok *token.Token) (Value, error)

// broadcastArray handles lhs being an Array: "the left-hand sequence
// becomes the outer array" (spec §4.2).
func broadcastArray(env Env, lhs *Array, rhs Value, tok *token.Token, op binOp) (Value, error) {
	out := make([]Value, len(lhs.Elements))
	for i, e := range lhs.Elements {
		r, err := op(env, e, rhs, tok)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return &Array{Elements: out}, nil
}

// broadcastArrayRHS handles rhs being an Array with lhs a non-Array
// scalar/Dictionary: broadcast lhs over each element of rhs.
func broadcastArrayRHS(env Env, lhs Value, rhs *Array, tok *token.Token, op binOp) (Value, error) {
	out := make([]Value, len(rhs.Elements))
	for i, e := range rhs.Elements {
		r, err := op(env, lhs, e, tok)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return &Array{Elements: out}, nil
}

func broadcastDict(env Env, lhs *Dictionary, rhs Value, tok *token.Token, op binOp) (Value, error) {
	res := NewDictionary()
	for _, e := range lhs.Entries() {
		r, err := op(env, e.Val, rhs, tok)
		if err != nil {
			return nil, err
		}
		res = res.Insert(e.Key, r)
	}
	return res, nil
}

func broadcastDictRHS(env Env, lhs Value, rhs *Dictionary, tok *token.Token, op binOp) (Value, error) {
	res := NewDictionary()
	for _, e := range rhs.Entries() {
		r, err := op(env, lhs, e.Val, tok)
		if err != nil {
			return nil, err
		}
		res = res.Insert(e.Key, r)
	}
	return res, nil
}

func isNil(v Value) bool { _, ok := v.(*Nil); return ok }

// EqualOp implements the `=`/`<>` operators (distinct from the Equal
// total-order helper used by dictionary/sort internals): Nil compares as
// neutral (canonical zero/empty-string/Nil-equal per spec §4.2), and
// Function values are never comparable this way — mirrors
// original_source/Backwards/Tests/ExpressionTest.cpp's
// testExceptionBonanza, which throws TypedOperationException for every
// comparison operator against a Function operand.
func EqualOp(env Env, a, b Value, tok *token.Token) (bool, error) {
	if isNil(a) || isNil(b) {
		return compareNilNeutral(env, a, b) == 0, nil
	}
	if err := checkComparable(tok, a, b); err != nil {
		return false, err
	}
	return Equal(a, b), nil
}

// CompareOp implements `>`,`<`,`>=`,`<=` with the same Nil-neutral and
// Function-is-incomparable rules as EqualOp.
func CompareOp(env Env, a, b Value, tok *token.Token) (int, error) {
	if isNil(a) || isNil(b) {
		return compareNilNeutral(env, a, b), nil
	}
	if err := checkComparable(tok, a, b); err != nil {
		return 0, err
	}
	return Compare(a, b), nil
}

func checkComparable(tok *token.Token, a, b Value) error {
	if _, ok := a.(*Function); ok {
		return typeError(tok, "comparing", a, b)
	}
	if _, ok := b.(*Function); ok {
		return typeError(tok, "comparing", a, b)
	}
	if a.Type() != b.Type() {
		return typeError(tok, "comparing", a, b)
	}
	return nil
}

// compareNilNeutral compares one Nil-or-both operand against the
// canonical zero (Float), empty string (String), or Nil-equal (anything
// else) per spec §4.2.
func compareNilNeutral(env Env, a, b Value) int {
	if isNil(a) && isNil(b) {
		return 0
	}
	if isNil(a) {
		switch x := b.(type) {
		case *Float:
			return env.Zero(false).Cmp(x.N)
		case *String:
			return strings.Compare("", x.S)
		default:
			return -1
		}
	}
	switch x := a.(type) {
	case *Float:
		return x.N.Cmp(env.Zero(false))
	case *String:
		return strings.Compare(x.S, "")
	default:
		return 1
	}
}

func typeError(tok *token.Token, verb string, lhs, rhs Value) error {
	return engine.NewTypedError(tok, "Error %s %s to %s", verb, lhs.Type(), rhs.Type())
}

func typeErrorVerb(tok *token.Token, verb string, a Value, prep string, b Value) error {
	return engine.NewTypedError(tok, "Error %s %s %s %s", verb, a.Type(), prep, b.Type())
}

// Compare implements the total order fixed by spec §3: cross-type by
// typeRank, within-type per variant (numeric for Float with NaN placed
// deterministically low, lex for String/Array, entry-wise for
// Dictionary, identity+captures for Function, equal for Nil, structural
// for CellRef/CellRange).
func Compare(a, b Value) int {
	ra, rb := typeRank[a.Type()], typeRank[b.Type()]
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case *Float:
		return x.N.Cmp(b.(*Float).N)
	case *String:
		return strings.Compare(x.S, b.(*String).S)
	case *Array:
		y := b.(*Array)
		n := len(x.Elements)
		if len(y.Elements) < n {
			n = len(y.Elements)
		}
		for i := 0; i < n; i++ {
			if c := Compare(x.Elements[i], y.Elements[i]); c != 0 {
				return c
			}
		}
		return compareInt(len(x.Elements), len(y.Elements))
	case *Dictionary:
		y := b.(*Dictionary)
		xe, ye := x.Entries(), y.Entries()
		n := len(xe)
		if len(ye) < n {
			n = len(ye)
		}
		for i := 0; i < n; i++ {
			if c := Compare(xe[i].Key, ye[i].Key); c != 0 {
				return c
			}
			if c := Compare(xe[i].Val, ye[i].Val); c != 0 {
				return c
			}
		}
		return compareInt(len(xe), len(ye))
	case *Function:
		y := b.(*Function)
		if x.Code != y.Code {
			return strings.Compare(x.Code.FunctionName(), y.Code.FunctionName())
		}
		n := len(x.Captures)
		if len(y.Captures) < n {
			n = len(y.Captures)
		}
		for i := 0; i < n; i++ {
			if c := Compare(x.Captures[i], y.Captures[i]); c != 0 {
				return c
			}
		}
		return compareInt(len(x.Captures), len(y.Captures))
	case *Nil:
		return 0
	case *CellRef:
		y := b.(*CellRef)
		return compareCellRef(x, y)
	case *CellRange:
		y := b.(*CellRange)
		if c := compareInt(x.Col1, y.Col1); c != 0 {
			return c
		}
		if c := compareInt(x.Row1, y.Row1); c != 0 {
			return c
		}
		if c := compareInt(x.Col2, y.Col2); c != 0 {
			return c
		}
		if c := compareInt(x.Row2, y.Row2); c != 0 {
			return c
		}
		return strings.Compare(x.Sheet, y.Sheet)
	default:
		engine.Raise("Compare: unhandled value type %T", a)
		return 0
	}
}

func compareCellRef(x, y *CellRef) int {
	if x.ColAbsolute != y.ColAbsolute {
		if !x.ColAbsolute {
			return -1
		}
		return 1
	}
	if c := compareInt(x.Col, y.Col); c != 0 {
		return c
	}
	if x.RowAbsolute != y.RowAbsolute {
		if !x.RowAbsolute {
			return -1
		}
		return 1
	}
	if c := compareInt(x.Row, y.Row); c != 0 {
		return c
	}
	return strings.Compare(x.Sheet, y.Sheet)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal implements `=`/`<>` equivalence (spec §3): same rules as Compare
// but NaN is never equal to itself, matching IEEE-754 float semantics
// carried through the number tower.
func Equal(a, b Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	if fa, ok := a.(*Float); ok {
		return fa.N.Equal(b.(*Float).N)
	}
	return Compare(a, b) == 0
}

// Hash combines a value's structure into a 64-bit digest. Arrays and
// Functions combine order-stably; Dictionaries combine order-independently
// (XOR) so two dictionaries built in different insertion orders but with
// the same entries hash equal (spec §4.2).
func Hash(v Value) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	mix := func(h uint64, b byte) uint64 { return (h ^ uint64(b)) * prime64 }
	mixString := func(h uint64, s string) uint64 {
		for i := 0; i < len(s); i++ {
			h = mix(h, s[i])
		}
		return h
	}
	combine := func(h, other uint64) uint64 {
		h ^= other + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
		return h
	}

	switch x := v.(type) {
	case *Float:
		return mixString(offset64, x.N.String())
	case *String:
		return mixString(offset64, x.S)
	case *Array:
		h := uint64(offset64)
		for _, e := range x.Elements {
			h = combine(h, Hash(e))
		}
		return h
	case *Dictionary:
		h := uint64(offset64)
		for _, e := range x.Entries() {
			h ^= combine(Hash(e.Key), Hash(e.Val))
		}
		return h
	case *Function:
		h := mixString(offset64, x.Code.FunctionName())
		for _, c := range x.Captures {
			h = combine(h, Hash(c))
		}
		return h
	case *Nil:
		return offset64
	case *CellRef:
		h := uint64(offset64)
		h = mix(h, boolByte(x.ColAbsolute))
		h = combine(h, uint64(x.Col))
		h = mix(h, boolByte(x.RowAbsolute))
		h = combine(h, uint64(x.Row))
		return mixString(h, x.Sheet)
	case *CellRange:
		h := uint64(offset64)
		h = combine(h, uint64(x.Col1))
		h = combine(h, uint64(x.Row1))
		h = combine(h, uint64(x.Col2))
		h = combine(h, uint64(x.Row2))
		return mixString(h, x.Sheet)
	default:
		engine.Raise("Hash: unhandled value type %T", v)
		return 0
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
