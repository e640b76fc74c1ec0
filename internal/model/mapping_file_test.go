package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mapping.yaml")

	f := &MappingFile{
		ProjectID:     "p1",
		UltimaCompRef: NewDate(2025, time.November, 1),
		BenefID:       "CPF_U",
		FichaID:       "CPF_U",
		Mapping: FinalMapping{
			Benef: Mapping{"identifier": Identifier("CPF_U", "ID2"), "sexo": Scalar("SEXO")},
			Ficha: Mapping{"identifier": Identifier("CPF_U"), "custos": Scalar("CUSTOS")},
		},
	}
	require.NoError(t, f.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2025-11-01")

	loaded, err := LoadMappingFile(path)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)
}

func TestLoadMappingFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadMappingFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("project_id: p1\n"), 0600))
	_, err = LoadMappingFile(empty)
	require.ErrorIs(t, err, ErrEmptyMappingFile)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("mapping:\n  benef_mapping:\n    sexo: {a: b}\n"), 0600))
	_, err = LoadMappingFile(bad)
	require.Error(t, err)
}
