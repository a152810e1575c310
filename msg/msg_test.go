package msg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	require.Equal(t, "cmd", KindCmd.String())
	require.Equal(t, "data", KindData.String())
	require.Equal(t, "video_frame", KindVideoFrame.String())
	require.Equal(t, "audio_frame", KindAudioFrame.String())
	require.Equal(t, "unknown", Kind(99).String())
}
