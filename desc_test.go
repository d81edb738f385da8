package fogsim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoCfgFileRoundTrip(t *testing.T) {
	tc, err := AgricultureTopoCfg()
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"topo.yaml", "topo.json"} {
		filename := filepath.Join(dir, name)
		require.NoError(t, tc.WriteToFile(filename))

		read, err := ReadTopoCfg(filename, byExtension(filename), nil)
		require.NoError(t, err)
		assert.Equal(t, tc, read)
	}
}

func TestAppCfgFileRoundTrip(t *testing.T) {
	ac := AgricultureAppCfg()

	filename := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, ac.WriteToFile(filename))

	read, err := ReadAppCfg(filename, true, nil)
	require.NoError(t, err)
	assert.Equal(t, ac, read)

	// the whole description pipeline: file to runnable model
	tc, err := AgricultureTopoCfg()
	require.NoError(t, err)
	_, err = CreateSimulation(tc, read, AgriculturePlacementCfg())
	assert.NoError(t, err)
}

func TestReadTopoCfgValidates(t *testing.T) {
	bad := []byte(`
name: broken
devices:
  - name: cloud
    tier: 0
    mips: 0
    ram: 100
    upbndwdth: 10
    downbndwdth: 10
`)
	_, err := ReadTopoCfg("", true, bad)
	assert.Error(t, err)
}

func TestReadAppCfgRejectsBadEnums(t *testing.T) {
	ac := AgricultureAppCfg()
	ac.Edges[0].Direction = "sideways"

	filename := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, ac.WriteToFile(filename))

	_, err := ReadAppCfg(filename, true, nil)
	assert.Error(t, err)
}

func TestReadCfgMissingFile(t *testing.T) {
	_, err := ReadTopoCfg(filepath.Join(t.TempDir(), "absent.yaml"), true, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlacementCfgFileRoundTrip(t *testing.T) {
	pc := AgriculturePlacementCfg()

	filename := filepath.Join(t.TempDir(), "placement.yaml")
	require.NoError(t, pc.WriteToFile(filename))

	read, err := ReadPlacementCfg(filename, true, nil)
	require.NoError(t, err)
	assert.Equal(t, pc, read)
}
