package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/token"
	"forwardbackward/value"
)

// collectionFunctions mirrors StdLib.cpp's array/dictionary builtins:
// NewArray, NewDictionary, NewArrayDefault, PushBack, PushFront, PopBack,
// PopFront, Insert, GetValue, GetIndex, SetIndex, ContainsKey, RemoveKey,
// GetKeys, Length, Size.
func collectionFunctions() []*interp.NativeFunction {
	return []*interp.NativeFunction{
		nullary("NewArray", func(ctx *interp.CallingContext) (value.Value, error) {
			return &value.Array{}, nil
		}),
		nullary("NewDictionary", func(ctx *interp.CallingContext) (value.Value, error) {
			return value.NewDictionary(), nil
		}),
		binary("NewArrayDefault", func(ctx *interp.CallingContext, n, def value.Value, tok *token.Token) (value.Value, error) {
			count, err := asFloatIndex(n, tok, "NewArrayDefault")
			if err != nil {
				return nil, err
			}
			elems := make([]value.Value, count)
			for i := range elems {
				elems[i] = def
			}
			return &value.Array{Elements: elems}, nil
		}),
		binary("PushBack", func(ctx *interp.CallingContext, container, v value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: PushBack expects an Array, got a %s", container.Type())
			}
			next := append(append([]value.Value(nil), arr.Elements...), v)
			return &value.Array{Elements: next}, nil
		}),
		binary("PushFront", func(ctx *interp.CallingContext, container, v value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: PushFront expects an Array, got a %s", container.Type())
			}
			next := append([]value.Value{v}, arr.Elements...)
			return &value.Array{Elements: next}, nil
		}),
		unary("PopBack", func(ctx *interp.CallingContext, container value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: PopBack expects an Array, got a %s", container.Type())
			}
			if len(arr.Elements) == 0 {
				return nil, engine.NewTypedError(tok, "Error: PopBack on an empty Array")
			}
			next := append([]value.Value(nil), arr.Elements[:len(arr.Elements)-1]...)
			return &value.Array{Elements: next}, nil
		}),
		unary("PopFront", func(ctx *interp.CallingContext, container value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: PopFront expects an Array, got a %s", container.Type())
			}
			if len(arr.Elements) == 0 {
				return nil, engine.NewTypedError(tok, "Error: PopFront on an empty Array")
			}
			next := append([]value.Value(nil), arr.Elements[1:]...)
			return &value.Array{Elements: next}, nil
		}),
		ternary("Insert", func(ctx *interp.CallingContext, container, key, v value.Value, tok *token.Token) (value.Value, error) {
			switch c := container.(type) {
			case *value.Dictionary:
				return c.Insert(key, v), nil
			case *value.Array:
				i, err := asFloatIndex(key, tok, "Insert")
				if err != nil {
					return nil, err
				}
				if i < 0 || i > len(c.Elements) {
					return nil, engine.NewTypedError(tok, "Error: Insert index %d out of range", i)
				}
				next := make([]value.Value, 0, len(c.Elements)+1)
				next = append(next, c.Elements[:i]...)
				next = append(next, v)
				next = append(next, c.Elements[i:]...)
				return &value.Array{Elements: next}, nil
			default:
				return nil, engine.NewTypedError(tok, "Error: Insert expects an Array or Dictionary, got a %s", container.Type())
			}
		}),
		binary("GetValue", func(ctx *interp.CallingContext, container, key value.Value, tok *token.Token) (value.Value, error) {
			dict, ok := container.(*value.Dictionary)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: GetValue expects a Dictionary, got a %s", container.Type())
			}
			v, found := dict.Get(key)
			if !found {
				return nil, engine.NewTypedError(tok, "Error: GetValue: key not found")
			}
			return v, nil
		}),
		binary("GetIndex", func(ctx *interp.CallingContext, container, idx value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: GetIndex expects an Array, got a %s", container.Type())
			}
			i, err := asFloatIndex(idx, tok, "GetIndex")
			if err != nil {
				return nil, err
			}
			if i < 0 || i >= len(arr.Elements) {
				return nil, engine.NewTypedError(tok, "Error: GetIndex: index %d out of range", i)
			}
			return arr.Elements[i], nil
		}),
		ternary("SetIndex", func(ctx *interp.CallingContext, container, idx, v value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: SetIndex expects an Array, got a %s", container.Type())
			}
			i, err := asFloatIndex(idx, tok, "SetIndex")
			if err != nil {
				return nil, err
			}
			if i < 0 || i >= len(arr.Elements) {
				return nil, engine.NewTypedError(tok, "Error: SetIndex: index %d out of range", i)
			}
			next := append([]value.Value(nil), arr.Elements...)
			next[i] = v
			return &value.Array{Elements: next}, nil
		}),
		binary("ContainsKey", func(ctx *interp.CallingContext, container, key value.Value, tok *token.Token) (value.Value, error) {
			dict, ok := container.(*value.Dictionary)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: ContainsKey expects a Dictionary, got a %s", container.Type())
			}
			_, found := dict.Get(key)
			return boolFloatVal(ctx, found), nil
		}),
		binary("RemoveKey", func(ctx *interp.CallingContext, container, key value.Value, tok *token.Token) (value.Value, error) {
			dict, ok := container.(*value.Dictionary)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: RemoveKey expects a Dictionary, got a %s", container.Type())
			}
			return dict.Erase(key), nil
		}),
		unary("GetKeys", func(ctx *interp.CallingContext, container value.Value, tok *token.Token) (value.Value, error) {
			dict, ok := container.(*value.Dictionary)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: GetKeys expects a Dictionary, got a %s", container.Type())
			}
			var keys []value.Value
			for _, e := range dict.Entries() {
				keys = append(keys, e.Key)
			}
			return &value.Array{Elements: keys}, nil
		}),
		unary("Length", func(ctx *interp.CallingContext, container value.Value, tok *token.Token) (value.Value, error) {
			arr, ok := container.(*value.Array)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: Length expects an Array, got a %s", container.Type())
			}
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(len(arr.Elements)))}, nil
		}),
		unary("Size", func(ctx *interp.CallingContext, container value.Value, tok *token.Token) (value.Value, error) {
			dict, ok := container.(*value.Dictionary)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: Size expects a Dictionary, got a %s", container.Type())
			}
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(dict.Len()))}, nil
		}),
	}
}
