package stdlib

import (
	"forwardbackward/interp"
	"forwardbackward/symtab"
	"forwardbackward/value"
)

// Install declares every standard-library function in the script
// dialect's global scope and stores its Function value in the context's
// global slots. Call before parsing so Print/NewArray/... resolve as
// globals (spec §4.5 step 3).
func Install(globals *symtab.Scope, ctx *interp.CallingContext) {
	for _, nf := range All() {
		gs, ok := globals.Lookup(nf.Name)
		if !ok {
			gs = globals.Declare(nf.Name)
		}
		ctx.EnsureGlobals()
		ctx.Globals[gs.Index] = &value.Function{Code: nf}
	}
}
