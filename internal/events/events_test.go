package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmake/internal/config"
)

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := NewPublisher(&config.EventsConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, pub)

	pub, err = NewPublisher(nil)
	require.NoError(t, err)
	assert.Nil(t, pub)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var pub *Publisher
	pub.Publish(BuildEvent{Type: TypeBuildStarted, Target: "html"})
	pub.Close()
}

func TestBuildEventWireFormat(t *testing.T) {
	event := BuildEvent{
		Type:      TypeBuildFinished,
		BuildID:   "0194e9a2",
		Target:    "linkcheck",
		ExitCode:  1,
		Duration:  1500,
		Commit:    "abc123def456",
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "build.finished", decoded["type"])
	assert.Equal(t, "linkcheck", decoded["target"])
	assert.Equal(t, float64(1), decoded["exit_code"])
	assert.Equal(t, float64(1500), decoded["duration_ms"])
	assert.Equal(t, "abc123def456", decoded["commit"])
}
