package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	defaultInclude = []string{"**/*.{tf,tfvars}"}
	defaultExclude = []string{"**/.terraform/**", "**/.git/**"}
)

// touch creates the files under root, making parent directories as needed.
func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# "+f+"\n"), 0o644))
	}
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher(defaultInclude, defaultExclude)
	require.NoError(t, err)

	tests := []struct {
		rel  string
		want bool
	}{
		{"main.tf", true},
		{"prod.tfvars", true},
		{"modules/net/main.tf", true},
		{"README.md", false},
		{"main.tf.json", false},
		{".terraform/modules/x/main.tf", false},
		{"envs/prod/.terraform/providers/main.tf", false},
		{".git/hooks/a.tf", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.rel))
		})
	}

	assert.True(t, m.SkipDir(".terraform"))
	assert.True(t, m.SkipDir("envs/prod/.terraform"))
	assert.False(t, m.SkipDir("envs/prod"))
	assert.False(t, m.SkipDir("."))
}

func TestNewMatcher_InvalidGlob(t *testing.T) {
	_, err := NewMatcher([]string{"[a-"}, nil)
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"main.tf",
		"variables.tf",
		"terraform.tfvars",
		"README.md",
		"modules/net/main.tf",
		".terraform/modules/cached/main.tf",
		".git/objects/x.tf",
	)

	m, err := NewMatcher(defaultInclude, defaultExclude)
	require.NoError(t, err)

	files, err := Discover(root, m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"main.tf",
		"modules/net/main.tf",
		"terraform.tfvars",
		"variables.tf",
	}, files)
}

func TestDiscover_MissingRoot(t *testing.T) {
	m, err := NewMatcher(defaultInclude, nil)
	require.NoError(t, err)

	_, err = Discover(filepath.Join(t.TempDir(), "missing"), m)
	assert.Error(t, err)
}
