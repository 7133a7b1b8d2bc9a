package scripts

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsBuiltins(t *testing.T) {
	t.Parallel()
	names, err := fs.Glob(FS, "*.risor")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dump.risor", "xposed.risor"}, names)

	for _, name := range names {
		data, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(data), "emit(", name)
	}
}
