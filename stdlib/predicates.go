package stdlib

import (
	"forwardbackward/interp"
	"forwardbackward/token"
	"forwardbackward/value"
)

// predicateFunctions mirrors StdLib.cpp's RTTIFUNCTIONDEFN-generated type
// tests (IsFloat, IsString, ...) plus the two math-flavored RTTI tests
// IsInfinity/IsNaN, which also only inspect a Float's kind.
func predicateFunctions() []*interp.NativeFunction {
	isType := func(name string, t value.Type) *interp.NativeFunction {
		return unary(name, func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			return boolFloatVal(ctx, v.Type() == t), nil
		})
	}
	return []*interp.NativeFunction{
		isType("IsFloat", value.FloatType),
		isType("IsString", value.StringType),
		isType("IsArray", value.ArrayType),
		isType("IsDictionary", value.DictionaryType),
		isType("IsFunction", value.FunctionType),
		isType("IsNil", value.NilType),
		isType("IsCellRange", value.CellRangeType),
		isType("IsCellRef", value.CellRefType),
		unary("IsInfinity", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			f, ok := v.(*value.Float)
			return boolFloatVal(ctx, ok && f.N.IsInf()), nil
		}),
		unary("IsNaN", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			f, ok := v.(*value.Float)
			return boolFloatVal(ctx, ok && f.N.IsNaN()), nil
		}),
	}
}
