package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/rs/zerolog"

	"bookkeeper/pkg/models"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	err := Setup(LogConfig{Level: "DEBUG", Format: "json", Output: "discard"})
	assert.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	err = Setup(LogConfig{Level: "loud", Output: "discard"})
	assert.Error(t, err)
}

func TestSetupFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookkeeper.log")
	assert.NoError(t, Setup(LogConfig{Level: "info", Format: "json", Output: path}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, Setup(LogConfig{Level: "info", Output: "discard"}))
}

func TestWithAccount(t *testing.T) {
	var buf bytes.Buffer
	l := WithAccount(zerolog.New(&buf), models.AccountKey{ID: "7", Type: models.AccountTypeWallet})
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"account_id":"7"`)
	assert.Contains(t, buf.String(), `"account_type":"wallet"`)
}
