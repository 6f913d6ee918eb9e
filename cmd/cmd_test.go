package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestIsPrimeCommand(t *testing.T) {
	out, err := execute(t, "isprime", "257")
	require.NoError(t, err)
	assert.Contains(t, out, "257: probable prime = true")

	out, err = execute(t, "isprime", "0x103")
	require.NoError(t, err)
	assert.Contains(t, out, "259: probable prime = false")

	_, err = execute(t, "isprime", "nope")
	assert.Error(t, err)
}

func TestMineThenVerifyPersistedChain(t *testing.T) {
	datadir := filepath.Join(t.TempDir(), "chain")

	out, err := execute(t, "mine", "--blocks", "2", "--persist", "--datadir", datadir, "--initial_payload_len", "4", "--rounds", "20")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3) // genesis + 2 blok
	assert.Contains(t, lines[0], "number=0")
	assert.Contains(t, lines[2], "number=2")

	out, err = execute(t, "verify", "--persist", "--datadir", datadir)
	require.NoError(t, err)
	assert.Contains(t, out, "chain valid: 3 blocks")

	// chain dilanjutkan dari tip yang tersimpan
	out, err = execute(t, "mine", "--blocks", "1", "--persist", "--datadir", datadir, "--initial_payload_len", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "number=3")
}
