// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalBed = `
[commands]
`

// runGlobals parses a source file and executes its globals section,
// returning the print() output.
func runGlobals(t *testing.T, src string) (string, error) {
	t.Helper()

	f, err := lang.Parse(src + minimalBed)
	require.NoError(t, err)

	var buf bytes.Buffer

	x := &Executor{
		Env:     NewEnvironment(),
		FS:      afero.NewMemMapFs(),
		Diag:    &buf,
		BaseDir: "/work",
	}

	err = x.Execute(context.Background(), f.Globals)

	return buf.String(), err
}

func TestExecute_DeclareAndReassign(t *testing.T) {
	out, err := runGlobals(t, `[globals]
x = "a";
x := "b";
print(x);
`)
	require.NoError(t, err)
	assert.Equal(t, "b\n", out)
}

func TestExecute_RedeclarationFails(t *testing.T) {
	_, err := runGlobals(t, `[globals]
x = "a";
x = "b";
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedeclaration)
}

func TestExecute_ReassignUndefinedFails(t *testing.T) {
	_, err := runGlobals(t, `[globals]
x := "a";
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
}

func TestExecute_ListAliasing(t *testing.T) {
	out, err := runGlobals(t, `[globals]
a = ["x"];
b = a;
b.push("y");
print(a);
`)
	require.NoError(t, err)
	assert.Equal(t, "[x, y]\n", out)
}

func TestExecute_CloneIndependence(t *testing.T) {
	out, err := runGlobals(t, `[globals]
a = ["x"];
b = *a;
b.push("y");
print(a);
print(b);
`)
	require.NoError(t, err)
	assert.Equal(t, "[x]\n[x, y]\n", out)
}

func TestExecute_PushToNonListFails(t *testing.T) {
	_, err := runGlobals(t, `[globals]
a = "scalar";
a.push("y");
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestExecute_Truthiness(t *testing.T) {
	out, err := runGlobals(t, `[globals]
yes = "anything";
no = "false";
seen = [];
if yes {
	seen.push("yes");
}
if no {
	seen.push("no");
}
if missing {
	seen.push("missing");
}
if yes no {
	seen.push("and");
}
print(seen);
`)
	require.NoError(t, err)
	assert.Equal(t, "[yes]\n", out)
}

func TestExecute_CombinationLoopOrder(t *testing.T) {
	out, err := runGlobals(t, `[globals]
pairs = [];
for (i, j) in (0..3, 0..2) {
	s = [i] + "-" + [j];
	pairs.push(s);
}
print(pairs);
`)
	require.NoError(t, err)
	assert.Equal(t, "[0-0, 0-1, 1-0, 1-1, 2-0, 2-1]\n", out)
}

func TestExecute_GroupLoopZips(t *testing.T) {
	out, err := runGlobals(t, `[globals]
pairs = [];
for group (i, name) in (0..2, ["alpha", "beta"]) {
	s = [i] + ":" + [name];
	pairs.push(s);
}
print(pairs);
`)
	require.NoError(t, err)
	assert.Equal(t, "[0:alpha, 1:beta]\n", out)
}

func TestExecute_GroupLoopShapeMismatch(t *testing.T) {
	_, err := runGlobals(t, `[globals]
for group (i, name) in (0..3, ["alpha", "beta"]) {
	print(name);
}
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestExecute_DescendingRange(t *testing.T) {
	out, err := runGlobals(t, `[globals]
seen = [];
for i in 3..0 {
	seen.push(i);
}
print(seen);
`)
	require.NoError(t, err)
	assert.Equal(t, "[3, 2, 1]\n", out)
}

func TestExecute_RangeEndpointsFromVariables(t *testing.T) {
	out, err := runGlobals(t, `[globals]
n = 3;
seen = [];
for i in 0..[n] {
	seen.push(i);
}
print(seen);
`)
	require.NoError(t, err)
	assert.Equal(t, "[0, 1, 2]\n", out)
}

func TestExecute_LoopVariableScoped(t *testing.T) {
	_, err := runGlobals(t, `[globals]
for i in 0..2 {
	x = i;
}
print(i);
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
}

func TestExecute_StructAccess(t *testing.T) {
	out, err := runGlobals(t, `[globals]
host = "alpha" { port = "22", tags = ["ssh", "prod"] };
print(host);
print(host.port);
print(host.tags[1]);
`)
	require.NoError(t, err)
	assert.Equal(t, "alpha { port = 22, tags = [ssh, prod] }\n22\nprod\n", out)
}

func TestExecute_DynamicIndex(t *testing.T) {
	out, err := runGlobals(t, `[globals]
xs = ["a", "b", "c"];
i = 1;
print(xs[i]);
`)
	require.NoError(t, err)
	assert.Equal(t, "b\n", out)
}

func TestExecute_IndexOutOfRange(t *testing.T) {
	_, err := runGlobals(t, `[globals]
xs = ["a"];
print(xs[3]);
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestExecute_FieldNotFound(t *testing.T) {
	_, err := runGlobals(t, `[globals]
host = "alpha" { port = "22" };
print(host.user);
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestExecute_StructIteratesAsItself(t *testing.T) {
	out, err := runGlobals(t, `[globals]
host = "alpha" { port = "22" };
for h in host {
	print(h.port);
}
`)
	require.NoError(t, err)
	assert.Equal(t, "22\n", out)
}

func TestExecute_BuildOutsideTemplateFails(t *testing.T) {
	_, err := runGlobals(t, `[globals]
a = build("t.txt", "o.txt");
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuildOutsideTemplate)
}

func TestLoadValue(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/data.yaml", []byte(`
name: alpha
count: 3
enabled: true
hosts:
  - a
  - b
nested:
  port: 22
`), 0o644))

	f, err := lang.Parse(`[globals]
cfg = load("data.yaml");
print(cfg.name);
print(cfg.count);
print(cfg.enabled);
print(cfg.hosts[1]);
print(cfg.nested.port);
` + minimalBed)
	require.NoError(t, err)

	var buf bytes.Buffer

	x := &Executor{
		Env:     NewEnvironment(),
		FS:      fs,
		Diag:    &buf,
		BaseDir: "/work",
	}

	require.NoError(t, x.Execute(context.Background(), f.Globals))
	assert.Equal(t, "alpha\n3\ntrue\nb\n22\n", buf.String())
}

func TestLoadValue_MalformedInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/bad.yaml", []byte("{a: ["), 0o644))

	f, err := lang.Parse(`[globals]
cfg = load("bad.yaml");
`+minimalBed)
	require.NoError(t, err)

	x := &Executor{
		Env:     NewEnvironment(),
		FS:      fs,
		Diag:    &bytes.Buffer{},
		BaseDir: "/work",
	}

	err = x.Execute(context.Background(), f.Globals)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestEnvironment_Flatten(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.Declare("name", String("outer")))
	require.NoError(t, env.Declare("host", &Struct{
		Name: "alpha",
		Fields: []Field{
			{Name: "port", Value: Int(22)},
		},
	}))

	env.Push()
	require.NoError(t, env.Declare("name", String("inner")))

	vars := env.Flatten()
	assert.Equal(t, "inner", vars["name"])
	assert.Equal(t, "alpha", vars["host"])
	assert.Equal(t, "22", vars["host.port"])
}

func TestClone_DeepCopiesNested(t *testing.T) {
	orig := &Struct{
		Name: "base",
		Fields: []Field{
			{Name: "xs", Value: &List{Elems: []Value{String("a")}}},
		},
	}

	copied, ok := Clone(orig).(*Struct)
	require.True(t, ok)

	inner, ok := copied.Fields[0].Value.(*List)
	require.True(t, ok)
	inner.Elems = append(inner.Elems, String("b"))

	origInner := orig.Fields[0].Value.(*List)
	assert.Len(t, origInner.Elems, 1)
}

func TestRange_HalfOpen(t *testing.T) {
	r := Range{Lo: 0, Hi: 3}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int64(0), r.At(0))
	assert.Equal(t, int64(2), r.At(2))

	desc := Range{Lo: 3, Hi: 0}
	assert.Equal(t, 3, desc.Len())
	assert.Equal(t, int64(3), desc.At(0))
	assert.Equal(t, int64(1), desc.At(2))
}
