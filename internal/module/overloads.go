package module

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

// matchesName reports whether the qualified function name has the simple
// name, or the qualified prototype name, given by name.
func (r *Record) matchesName(qualified, name string) (sig string, ok bool) {
	mod, simple, sig, ok := ir.SplitQualified(qualified)
	if !ok {
		return "", false
	}
	if name == simple || name == mod+"::"+simple {
		return sig, true
	}
	return "", false
}

// FunctionOverloadsBySignature returns the functions called name whose
// parameter type list starts with sig.
func (r *Record) FunctionOverloadsBySignature(name string, sig []ir.Type) []string {
	var out []string
	for _, fn := range r.functions {
		s, ok := r.matchesName(fn, name)
		if !ok {
			continue
		}
		var params []string
		if s != "" {
			params = strings.Split(s, ",")
		}
		if len(sig) > len(params) {
			continue
		}
		match := true
		for i, t := range sig {
			if params[i] != string(t) {
				match = false
				break
			}
		}
		if match {
			out = append(out, fn)
		}
	}
	return out
}

// FunctionOverloads returns the functions called name that accept
// positional arguments of argTypes, with defaults covering the remaining
// parameters. Parameter types come from the definition records; removed
// definitions are skipped.
func (r *Record) FunctionOverloads(ctx context.Context, st Reader, name string, argTypes []ir.Type) ([]string, error) {
	var out []string
	for _, fn := range r.functions {
		if _, ok := r.matchesName(fn, name); !ok {
			continue
		}
		_, def, err := resolveDefinition(ctx, st, fn)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("overloads of %s: %w", name, err)
		}
		if accepts(def.Def.Parameters, argTypes) {
			out = append(out, fn)
		}
	}
	return out, nil
}

func accepts(params []ir.Parameter, args []ir.Type) bool {
	if len(args) > len(params) {
		return false
	}
	for i, p := range params {
		if i >= len(args) {
			if p.Default == nil {
				return false
			}
			continue
		}
		if !assignable(p.Type, args[i]) {
			return false
		}
	}
	return true
}

// assignable reports whether a value of type from can be passed to a
// parameter of type to. Deferred-size arrays accept any size.
func assignable(to, from ir.Type) bool {
	if to == from {
		return true
	}
	return to.IsDeferredArray() && from.IsArray() && to.Elem() == from.Elem()
}
