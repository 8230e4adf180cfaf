package special_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/special"
)

const specialsYAML = `
specials:
  - id: cleave
    name: Cleave
    stamina_cost: 4
  - id: hex
    name: Hex
    mana_cost: 5
  - id: fizzle
    name: Fizzle
  - id: broken
    name: Broken
  - id: ghost
    name: Ghost
`

func TestParseCatalog(t *testing.T) {
	cat, err := special.ParseCatalog([]byte(specialsYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "cleave", "fizzle", "ghost", "hex"}, cat.IDs())

	a, ok := cat.Attack("cleave")
	require.True(t, ok)
	assert.Equal(t, 4, a.StaminaCost)
	assert.Equal(t, "special_cleave", a.Hook())
}

func TestParseCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "specials:\n  - id: a\n    name: A\n    power: 9\n",
		"missing name":  "specials:\n  - id: a\n",
		"negative cost": "specials:\n  - id: a\n    name: A\n    mana_cost: -1\n",
		"duplicate":     "specials:\n  - id: a\n    name: A\n  - id: a\n    name: B\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := special.ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(specialsYAML), 0o644))
	cat, err := special.LoadCatalog(path)
	require.NoError(t, err)
	_, ok := cat.Attack("hex")
	assert.True(t, ok)

	_, err = special.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
