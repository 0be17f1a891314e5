package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/token"
	"forwardbackward/value"
)

// stringFunctions mirrors StdLib.cpp's string builtins: SubString,
// ToString, ValueOf, FromCharacter, ToCharacter.
func stringFunctions() []*interp.NativeFunction {
	return []*interp.NativeFunction{
		ternary("SubString", func(ctx *interp.CallingContext, s, start, length value.Value, tok *token.Token) (value.Value, error) {
			str, ok := s.(*value.String)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: SubString expects a String, got a %s", s.Type())
			}
			from, err := asFloatIndex(start, tok, "SubString")
			if err != nil {
				return nil, err
			}
			count, err := asFloatIndex(length, tok, "SubString")
			if err != nil {
				return nil, err
			}
			r := []rune(str.S)
			if from < 0 || from > len(r) {
				return nil, engine.NewTypedError(tok, "Error: SubString: start %d out of range", from)
			}
			end := from + count
			if end < from || end > len(r) {
				return nil, engine.NewTypedError(tok, "Error: SubString: length %d out of range", count)
			}
			return &value.String{S: string(r[from:end])}, nil
		}),
		unary("ToString", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			return &value.String{S: toStringPlain(v)}, nil
		}),
		unary("ValueOf", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			str, ok := v.(*value.String)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: ValueOf expects a String, got a %s", v.Type())
			}
			n, err := ctx.NumEnv.FromString(str.S)
			if err != nil {
				return nil, engine.NewTypedError(tok, "Error: ValueOf: %s", err)
			}
			return &value.Float{N: n}, nil
		}),
		unary("FromCharacter", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			f, ok := v.(*value.Float)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: FromCharacter expects a Float, got a %s", v.Type())
			}
			return &value.String{S: string(rune(int64(f.N.AsFloat64())))}, nil
		}),
		unary("ToCharacter", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			str, ok := v.(*value.String)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: ToCharacter expects a String, got a %s", v.Type())
			}
			r := []rune(str.S)
			if len(r) != 1 {
				return nil, engine.NewTypedError(tok, "Error: ToCharacter expects a single-character String")
			}
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(r[0]))}, nil
		}),
	}
}

// toStringPlain renders a value the way ToString does — plain text, not
// Inspect's quoted/bracketed debugger rendering (a bare String stays bare).
func toStringPlain(v value.Value) string {
	switch x := v.(type) {
	case *value.String:
		return x.S
	case *value.Float:
		return x.N.String()
	default:
		return v.Inspect()
	}
}
