package clone

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct{ lines []string }

func (r *recordingReporter) Step(format string, args ...any) {
	r.lines = append(r.lines, "[*] "+fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Success(format string, args ...any) {
	r.lines = append(r.lines, "[+] "+fmt.Sprintf(format, args...))
}

func TestRunner_Run(t *testing.T) {
	fs, tgt := newExport(t)
	rr := &recordingReporter{}

	res, err := (&Runner{Fs: fs, IDs: &seqIDs{}, Reporter: rr}).Run(tgt)
	require.NoError(t, err)
	require.NotNil(t, res.Verify)
	require.True(t, res.Verify.OK())
	require.False(t, res.Cleanup.Changed())
	require.Equal(t, 5, res.Clone.RegeneratedIdentifiers)
	// Five identifiers in the definition file, then one for the metadata block.
	require.Equal(t, "00000000-0000-4000-8000-000000000006", res.Integrate.MetadataID)

	require.Equal(t, []string{
		"[*] Ensuring idempotency by cleaning up traces of 'УТО_Тест'...",
		"[*] Cloning 'Предметы' to 'УТО_Тест' via text manipulation...",
		"[+] Performed genetic string replacement.",
		"[+] Regenerated all UUIDs in the file.",
		"[+] Saved new clone file to: /proj/Configuration/Catalogs/УТО_Тест.xml",
		"[*] Integrating clone into configuration topology via robust text insertion...",
		"[+] Injected after last Catalog in /proj/Configuration/Configuration.xml",
		"[+] Injected metadata after last Catalog in /proj/Configuration/ConfigDumpInfo.xml",
	}, rr.lines)
}

func TestRunner_RunTwiceIsIdempotent(t *testing.T) {
	fs, tgt := newExport(t)

	_, err := (&Runner{Fs: fs, IDs: &seqIDs{}}).Run(tgt)
	require.NoError(t, err)
	cfg1 := readString(t, fs, tgt.ConfigurationPath())
	dump1 := readString(t, fs, tgt.DumpInfoPath())
	def1 := readString(t, fs, tgt.ClonePath())

	rr := &recordingReporter{}
	res, err := (&Runner{Fs: fs, IDs: &seqIDs{}, Reporter: rr}).Run(tgt)
	require.NoError(t, err)
	require.Equal(t, CleanupReport{ConfigurationLinesRemoved: 1, DumpBlocksRemoved: 1, DefinitionRemoved: true}, res.Cleanup)

	for name, pair := range map[string][2]string{
		ConfigurationFile: {cfg1, readString(t, fs, tgt.ConfigurationPath())},
		DumpInfoFile:      {dump1, readString(t, fs, tgt.DumpInfoPath())},
		"definition":      {def1, readString(t, fs, tgt.ClonePath())},
	} {
		if diff := cmp.Diff(pair[0], pair[1]); diff != "" {
			t.Errorf("%s changed on second run (-first +second):\n%s", name, diff)
		}
	}
}

func TestRunner_RunTwiceWithRandomIDs(t *testing.T) {
	fs, tgt := newExport(t)
	r := &Runner{Fs: fs}

	_, err := r.Run(tgt)
	require.NoError(t, err)
	cfg1 := readString(t, fs, tgt.ConfigurationPath())
	dump1 := readString(t, fs, tgt.DumpInfoPath())

	_, err = r.Run(tgt)
	require.NoError(t, err)
	require.Equal(t, cfg1, readString(t, fs, tgt.ConfigurationPath()))

	mask := func(s string) string { return identifierPattern.ReplaceAllString(s, "ID") }
	require.Equal(t, mask(dump1), mask(readString(t, fs, tgt.DumpInfoPath())))
	require.Equal(t, 1, strings.Count(readString(t, fs, tgt.DumpInfoPath()), "Catalog.УТО_Тест"))
}

func TestRunner_MissingDonorWritesNothing(t *testing.T) {
	fs, tgt := newExport(t)
	tgt.Donor = "Нет"
	cfg := readString(t, fs, tgt.ConfigurationPath())

	_, err := (&Runner{Fs: fs}).Run(tgt)
	require.ErrorIs(t, err, ErrDonorNotFound)
	require.Equal(t, cfg, readString(t, fs, tgt.ConfigurationPath()))
	exists, _ := afero.Exists(fs, tgt.ClonePath())
	require.False(t, exists)
}

func TestRunner_RejectsInvalidTarget(t *testing.T) {
	fs, tgt := newExport(t)
	tgt.Clone = tgt.Donor

	_, err := (&Runner{Fs: fs}).Run(tgt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "donor and clone")
}

func TestRunner_CleanupOnly(t *testing.T) {
	fs, tgt := newExport(t)
	_, err := (&Runner{Fs: fs}).Run(tgt)
	require.NoError(t, err)

	rep, err := (&Runner{Fs: fs}).Cleanup(tgt)
	require.NoError(t, err)
	require.True(t, rep.Changed())
	require.NotContains(t, readString(t, fs, tgt.ConfigurationPath()), "УТО_Тест")
	require.NotContains(t, readString(t, fs, tgt.DumpInfoPath()), "УТО_Тест")
}

func TestResolveBase(t *testing.T) {
	fs, _ := newExport(t)

	base, err := ResolveBase(fs, testProject, "Configuration")
	require.NoError(t, err)
	require.Equal(t, testBase, base)

	// Without the subdirectory the project itself is the base.
	flat := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(flat, "/flat/Configuration.xml", []byte("<x/>"), 0o644))
	base, err = ResolveBase(flat, "/flat", "Configuration")
	require.NoError(t, err)
	require.Equal(t, "/flat", base)

	_, err = ResolveBase(afero.NewMemMapFs(), "/nowhere", "Configuration")
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestRunner_RunTwiceIsIdempotentWithCRLF(t *testing.T) {
	fs, tgt := newExport(t)
	for _, p := range []string{tgt.ConfigurationPath(), tgt.DumpInfoPath()} {
		writeString(t, fs, p, strings.ReplaceAll(readString(t, fs, p), "\n", "\r\n"))
	}
	pristineCfg := readString(t, fs, tgt.ConfigurationPath())
	pristineDump := readString(t, fs, tgt.DumpInfoPath())

	_, err := (&Runner{Fs: fs, IDs: &seqIDs{}}).Run(tgt)
	require.NoError(t, err)
	cfg1 := readString(t, fs, tgt.ConfigurationPath())
	dump1 := readString(t, fs, tgt.DumpInfoPath())
	require.Contains(t, cfg1, "<cfg:Catalog>Catalog.Предметы</cfg:Catalog>\r\n\t\t\t<cfg:Catalog>Catalog.УТО_Тест</cfg:Catalog>\r\n")

	_, err = (&Runner{Fs: fs, IDs: &seqIDs{}}).Run(tgt)
	require.NoError(t, err)
	cfg2 := readString(t, fs, tgt.ConfigurationPath())
	dump2 := readString(t, fs, tgt.DumpInfoPath())

	if diff := cmp.Diff(cfg1, cfg2); diff != "" {
		t.Errorf("Configuration.xml changed on second run (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(dump1, dump2); diff != "" {
		t.Errorf("ConfigDumpInfo.xml changed on second run (-first +second):\n%s", diff)
	}
	for name, s := range map[string]string{ConfigurationFile: cfg2, DumpInfoFile: dump2} {
		require.Equal(t, strings.Count(s, "\n"), strings.Count(s, "\r\n"), "%s has bare line feeds", name)
	}

	_, err = Cleanup(fs, tgt, nil)
	require.NoError(t, err)
	require.Equal(t, pristineCfg, readString(t, fs, tgt.ConfigurationPath()))
	require.Equal(t, pristineDump, readString(t, fs, tgt.DumpInfoPath()))
}
