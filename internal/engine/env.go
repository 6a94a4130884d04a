// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

// Environment is a chain of lexical scopes. One environment is threaded by
// reference through the globals, template and command phases; loop and
// conditional bodies push child scopes that are popped when the body ends.
type Environment struct {
	scopes []map[string]Value
}

// NewEnvironment returns an environment with a single root scope.
func NewEnvironment() *Environment {
	return &Environment{scopes: []map[string]Value{{}}}
}

// Push opens a child scope.
func (e *Environment) Push() {
	e.scopes = append(e.scopes, map[string]Value{})
}

// Pop discards the innermost scope. The root scope is never popped.
func (e *Environment) Pop() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// Declare creates a fresh binding in the current scope. It fails when the
// name is already bound there; shadowing an outer scope is allowed.
func (e *Environment) Declare(name string, v Value) error {
	top := e.scopes[len(e.scopes)-1]
	if _, exists := top[name]; exists {
		return ErrRedeclaration
	}

	top[name] = v

	return nil
}

// Assign overwrites an existing binding, walking up the scope chain to the
// nearest owner. It fails when the name is bound nowhere.
func (e *Environment) Assign(name string, v Value) error {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][name]; ok {
			e.scopes[i][name] = v
			return nil
		}
	}

	return ErrUndefinedVariable
}

// Lookup resolves a name through the scope chain, innermost first.
func (e *Environment) Lookup(name string) (Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Flatten exports every stringifiable binding visible from the current
// scope, innermost bindings shadowing outer ones. Struct and artifact fields
// are flattened with dotted names; lists and ranges are omitted. This is the
// variable set handed to the template renderer.
func (e *Environment) Flatten() map[string]string {
	out := map[string]string{}

	for i := len(e.scopes) - 1; i >= 0; i-- {
		for name, v := range e.scopes[i] {
			if _, seen := out[name]; seen {
				continue
			}

			flattenInto(out, name, v)
		}
	}

	return out
}

func flattenInto(out map[string]string, name string, v Value) {
	if s, err := Stringify(v); err == nil {
		out[name] = s
	}

	switch v := v.(type) {
	case *Struct:
		for _, f := range v.Fields {
			flattenInto(out, name+"."+f.Name, f.Value)
		}
	case *Artifact:
		for _, f := range v.Props {
			flattenInto(out, name+"."+f.Name, f.Value)
		}
	}
}
