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

func TestRun_TemplatePhase(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/templates/hello.conf",
		[]byte("server [name] role [role]\n"), 0o644))

	f, err := lang.Parse(`
[includes]
"templates"

[output]
"out"

[globals]
name = "run1";

[template.configs]
a = build("hello.conf", "hello-" + [name] + ".conf", role = "web");
yield a;

[commands]
print(configs[0].output);
print(configs[0].role);
`)
	require.NoError(t, err)

	var diag bytes.Buffer

	require.NoError(t, Run(context.Background(), f, Options{
		FS:      fs,
		BaseDir: "/work",
		Diag:    &diag,
	}))

	rendered, err := afero.ReadFile(fs, "/work/out/hello-run1.conf")
	require.NoError(t, err)
	assert.Equal(t, "server run1 role web\n", string(rendered))

	assert.Equal(t, "/work/out/hello-run1.conf\nweb\n", diag.String())
}

func TestRun_YieldAccumulatesAcrossLoop(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/node.conf",
		[]byte("node [i]\n"), 0o644))

	f, err := lang.Parse(`
[output]
"out"

[template.nodes]
for i in 0..3 {
	yield build("node.conf", "node-" + [i] + ".conf");
}

[commands]
print(nodes);
`)
	require.NoError(t, err)

	var diag bytes.Buffer

	require.NoError(t, Run(context.Background(), f, Options{
		FS:      fs,
		BaseDir: "/work",
		Diag:    &diag,
	}))

	assert.Equal(t,
		"[/work/out/node-0.conf, /work/out/node-1.conf, /work/out/node-2.conf]\n",
		diag.String())

	for _, name := range []string{"node-0.conf", "node-1.conf", "node-2.conf"} {
		ok, err := afero.Exists(fs, "/work/out/"+name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

func TestRun_TemplateTopLevelAssignmentPersists(t *testing.T) {
	f, err := lang.Parse(`
[template.empty]
final = "computed";

[commands]
print(final);
`)
	require.NoError(t, err)

	var diag bytes.Buffer

	require.NoError(t, Run(context.Background(), f, Options{
		FS:      afero.NewMemMapFs(),
		BaseDir: "/work",
		Diag:    &diag,
	}))

	assert.Equal(t, "computed\n", diag.String())
}

func TestRun_MissingTemplateIsFatal(t *testing.T) {
	f, err := lang.Parse(`
[template.broken]
yield build("nope.conf", "out.conf");

[commands]
`)
	require.NoError(t, err)

	err = Run(context.Background(), f, Options{
		FS:      afero.NewMemMapFs(),
		BaseDir: "/work",
		Diag:    &bytes.Buffer{},
	})
	require.Error(t, err)
}

func TestRun_UnknownBlock(t *testing.T) {
	f, err := lang.Parse(`
[commands.known]
`)
	require.NoError(t, err)

	err = Run(context.Background(), f, Options{
		FS:      afero.NewMemMapFs(),
		BaseDir: "/work",
		Diag:    &bytes.Buffer{},
		Block:   "unknown",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestRun_BlockFilter(t *testing.T) {
	f, err := lang.Parse(`
[globals]
a = "from-a";
b = "from-b";

[commands.first]
print(a);

[commands.second]
print(b);
`)
	require.NoError(t, err)

	var diag bytes.Buffer

	require.NoError(t, Run(context.Background(), f, Options{
		FS:      afero.NewMemMapFs(),
		BaseDir: "/work",
		Diag:    &diag,
		Block:   "second",
	}))

	assert.Equal(t, "from-b\n", diag.String())
}
