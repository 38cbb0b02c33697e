package clone

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	testProject = "/proj"
	testBase    = "/proj/Configuration"
	testDonor   = "Предметы"
	testClone   = "УТО_Тест"
)

// seqIDs hands out predictable identifiers: ...-000000000001, ...-000000000002.
type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.n)
}

// newExport loads testdata/ into an in-memory filesystem under testBase.
func newExport(t *testing.T) (afero.Fs, Target) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, rel := range []string{
		ConfigurationFile,
		DumpInfoFile,
		filepath.Join("Catalogs", testDonor+".xml"),
	} {
		b, err := os.ReadFile(filepath.Join("testdata", rel))
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, filepath.Join(testBase, rel), b, 0o644))
	}
	return fs, Target{Base: testBase, Type: DefaultType, Donor: testDonor, Clone: testClone}
}

func readString(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func writeString(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}
