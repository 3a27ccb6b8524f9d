package wiring_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoard/internal/adapters/config"
	"go.trai.ch/hoard/internal/app"
	_ "go.trai.ch/hoard/internal/wiring"
)

func TestExecuteFor_BuildsComponents(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfgPath := filepath.Join(dir, "hoard.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
hot:
  - kind: totals
    tenant_id: t1
    entity_id: invoices
`), 0o600))
	t.Setenv(config.EnvPath, cfgPath)

	components, _, err := graft.ExecuteFor[*app.Components](t.Context())
	require.NoError(t, err)
	require.NotNil(t, components)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
	t.Cleanup(func() { assert.NoError(t, components.App.Close()) })

	assert.ElementsMatch(t, []string{app.KindTotals, app.KindRollup}, components.App.Engine().Kinds())
	assert.FileExists(t, filepath.Join(dir, "hoard.db"))
	assert.FileExists(t, filepath.Join(dir, "hoard-telemetry.db"))
}
