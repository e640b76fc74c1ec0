package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSourceFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "beneficiarios.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("CPF_U;SEXO\n1;F\n"), 0600))
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0600))

	f, err := OpenSourceFile(csvPath)
	require.NoError(t, err)
	assert.True(t, f.IsSet())
	assert.Equal(t, "beneficiarios.CSV", f.Name())
	assert.Equal(t, int64(15), f.Size)

	_, err = OpenSourceFile(txtPath)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = OpenSourceFile(filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)

	_, err = OpenSourceFile("  ")
	require.Error(t, err)

	assert.False(t, SourceFile{}.IsSet())
}
