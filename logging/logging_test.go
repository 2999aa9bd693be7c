package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Debug: true, JSON: true, UID: true, Service: "dhub", Version: "v1", Output: &buf})
	log.Debug("hello", "k", "v")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "dhub", rec["service"])
	assert.Equal(t, "v1", rec["version"])
	assert.NotEmpty(t, rec["uid"])
	assert.Equal(t, "v", rec["k"])
}

func TestSetupDefaultLevelHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Options{Output: &buf})
	log.Debug("quiet")
	log.Info("quiet too")
	assert.Empty(t, buf.String())

	log.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}
