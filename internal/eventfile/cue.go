package eventfile

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// ParseCUE compiles a CUE stream, unifies it with the #Stream schema and
// decodes the concrete result.
func ParseCUE(filename string, data []byte) (*Stream, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	stream := schema.LookupPath(cue.ParsePath("#Stream")).Unify(v)
	if err := stream.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	js, err := stream.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return ParseJSON(js)
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	le := &LoadError{Message: first.Error()}
	if pos := first.Position(); pos.IsValid() {
		le.Line = pos.Line()
	}
	if len(errs) > 1 {
		le.Message = fmt.Sprintf("%s (and %d more errors)", le.Message, len(errs)-1)
	}
	return le
}
