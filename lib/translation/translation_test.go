package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigureStripsEncoding(t *testing.T) {
	Configure(t.TempDir(), "de_DE.UTF-8")
	assert.Equal(t, "de_DE", GetLanguage())

	Configure(t.TempDir(), "C")
	assert.Equal(t, "en", GetLanguage())

	Configure(t.TempDir(), "posix")
	assert.Equal(t, "en", GetLanguage())
}

func TestTranslateFallsBackToMessageID(t *testing.T) {
	Configure(t.TempDir(), "en")
	assert.Equal(t, "No alert found for AAPL.", Translate("No alert found for %s.", "AAPL"))
	assert.Equal(t, "You have no active alerts.", Translate("You have no active alerts."))
}
