package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_DefaultsAndSet(t *testing.T) {
	require.Equal(t, Info{Version: "N/A", Date: "N/A", Commit: "N/A"}, New("", "", ""))
	require.Equal(t, Info{Version: "v1", Date: "2025-09-06", Commit: "deadbeef"}, New("v1", "2025-09-06", "deadbeef"))
}

func TestInfo_Log(t *testing.T) {
	core, obs := observer.New(zap.InfoLevel)
	New("v1", "", "abc").Log(zap.New(core).Sugar())

	entries := obs.FilterMessage("build info").All()
	require.Len(t, entries, 1)
	require.Equal(t, map[string]any{"version": "v1", "date": "N/A", "commit": "abc"}, entries[0].ContextMap())
}
