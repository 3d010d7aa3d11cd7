package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/apiroll/entity"
	"github.com/teranos/apiroll/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apiroll.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
package = "widget-lib"
entry = "dist/widget.d.ts"
preapproved = ["LegacyRenderer"]

[report]
out = "etc/widget-lib.api.md"

[[rollup]]
tier = "public"
out = "dist/widget-public.d.ts"

[[rollup]]
tier = "beta"
out = "dist/widget-beta.d.ts"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "widget-lib", cfg.Package)
	assert.Equal(t, "dist/widget.d.ts", cfg.Entry)
	assert.Equal(t, []string{"LegacyRenderer"}, cfg.Preapproved)
	assert.Equal(t, "etc/widget-lib.api.md", cfg.Report.Out)

	require.Len(t, cfg.Rollups, 2)
	tier, err := cfg.Rollups[0].ReleaseTier()
	require.NoError(t, err)
	assert.Equal(t, entity.TagPublic, tier)
	tier, err = cfg.Rollups[1].ReleaseTier()
	require.NoError(t, err)
	assert.Equal(t, entity.TagBeta, tier)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing package",
			content: "entry = \"a.d.ts\"\n",
		},
		{
			name:    "missing entry",
			content: "package = \"p\"\n",
		},
		{
			name: "unknown tier",
			content: `
package = "p"
entry = "a.d.ts"

[[rollup]]
tier = "experimental"
out = "out.d.ts"
`,
		},
		{
			name: "rollup without output path",
			content: `
package = "p"
entry = "a.d.ts"

[[rollup]]
tier = "public"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfig))
		})
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "package = [unclosed\n"))
	assert.Error(t, err)
}
