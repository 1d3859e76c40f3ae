package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaps(t *testing.T) {
	caps, err := ParseCaps(`audio/x-raw, format=(string)S16LE, layout=(string)interleaved, rate=(int)44100, channels=(int)2, channel-mask=(bitmask)0x0000000000000003`)
	require.NoError(t, err)
	require.Len(t, caps, 1)

	st := caps[0]
	assert.Equal(t, "audio/x-raw", st.Name)
	assert.Equal(t, "S16LE", st.Fields["format"])

	rate, ok := st.Int("rate")
	require.True(t, ok)
	assert.Equal(t, 44100, rate)

	channels, ok := st.Int("channels")
	require.True(t, ok)
	assert.Equal(t, 2, channels)
}

func TestParseCaps_VideoFractions(t *testing.T) {
	caps, err := ParseCaps(`video/x-raw(memory:SystemMemory), format=(string)I420, width=(int)1280, height=(int)720, pixel-aspect-ratio=(fraction)4/3, framerate=(fraction)30000/1001`)
	require.NoError(t, err)
	require.Len(t, caps, 1)

	st := caps[0]
	assert.Equal(t, "video/x-raw", st.Name)

	n, d, ok := st.Fraction("framerate")
	require.True(t, ok)
	assert.Equal(t, 30000, n)
	assert.Equal(t, 1001, d)

	n, d, ok = st.Fraction("pixel-aspect-ratio")
	require.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Equal(t, 3, d)

	_, _, ok = st.Fraction("missing")
	assert.False(t, ok)
}

func TestParseCaps_ListsAndMultipleStructures(t *testing.T) {
	caps, err := ParseCaps(`audio/x-raw, channels=(int){ 1, 2 }, format=S16LE; audio/x-raw, channels=(int)[ 1, 8 ]`)
	require.NoError(t, err)
	require.Len(t, caps, 2)

	assert.Equal(t, []string{"1", "2"}, caps[0].Values("channels"))
	assert.Equal(t, "[ 1, 8 ]", caps[1].Fields["channels"])
}

func TestParseCaps_AnyAndEmpty(t *testing.T) {
	for _, s := range []string{"", "ANY", "EMPTY", "  "} {
		caps, err := ParseCaps(s)
		require.NoError(t, err, s)
		assert.Nil(t, caps, s)
	}
}

func TestParseCaps_Malformed(t *testing.T) {
	_, err := ParseCaps("audio/mpeg, mpegversion")
	assert.Error(t, err)

	_, err = ParseCaps(", rate=1")
	assert.Error(t, err)
}

func TestCanHandleContainerCaps(t *testing.T) {
	testCases := []struct {
		caps string
		want bool
	}{
		{"video/quicktime, variant=(string)iso", true},
		{"audio/x-m4a", true},
		{"audio/mpeg, mpegversion=(int)1, layer=(int)3", true},
		{"audio/mpeg, mpegversion=(int)4, stream-format=(string)adts", false},
		{"video/webm", false},
		{"application/ogg", false},
		{"video/x-matroska", false},
		{"ANY", false},
	}

	for _, tc := range testCases {
		t.Run(tc.caps, func(t *testing.T) {
			assert.Equal(t, tc.want, CanHandleContainerCaps(tc.caps))
		})
	}
}

func TestCanHandleCodecCaps(t *testing.T) {
	testCases := []struct {
		caps string
		want bool
	}{
		{"video/x-h264, stream-format=(string)avc, alignment=(string)au", true},
		{"video/3gpp", true},
		{"audio/mpeg, mpegversion=(int)4, stream-format=(string)raw", true},
		{"audio/mpeg, mpegversion=(int)1, layer=(int)3, rate=(int)44100", true},
		{"video/x-vp8", false},
		{"audio/x-vorbis", false},
		{"video/x-h265", false},
	}

	for _, tc := range testCases {
		t.Run(tc.caps, func(t *testing.T) {
			assert.Equal(t, tc.want, CanHandleCodecCaps(tc.caps))
		})
	}
}

func TestShouldAutoplug(t *testing.T) {
	testCases := []struct {
		name    string
		factory string
		klass   string
		caps    string
		want    bool
	}{
		{"blacklisted parser", "h264parse", "Codec/Parser/Converter/Video", "video/x-h264", false},
		{"blacklisted decoder", "flump3dec", "Codec/Decoder/Audio", "audio/mpeg, mpegversion=(int)1", false},
		{"allowed demuxer", "qtdemux", "Codec/Demuxer", "video/quicktime", true},
		{"rejected demuxer", "matroskademux", "Codec/Demuxer", "video/x-matroska", false},
		{"metadata demuxer passes", "id3demux", "Codec/Demuxer/Metadata", "application/x-id3", true},
		{"allowed decoder", "avdec_h264", "Codec/Decoder/Video", "video/x-h264", true},
		{"rejected decoder", "vp8dec", "Codec/Decoder/Video", "video/x-vp8", false},
		{"generic decoder passes", "decodebin", "Generic/Bin/Decoder", "video/x-vp8", true},
		{"converter passes", "audioconvert", "Filter/Converter/Audio", "audio/x-raw", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldAutoplug(tc.factory, tc.klass, tc.caps))
		})
	}
}

func TestCapsForContentType(t *testing.T) {
	assert.Equal(t, "video/quicktime", CapsForContentType("video/mp4"))
	assert.Equal(t, "video/quicktime", CapsForContentType("VIDEO/MP4; codecs=\"avc1.42E01E\""))
	assert.Equal(t, "audio/x-m4a", CapsForContentType("audio/mp4"))
	assert.Equal(t, "audio/mpeg, mpegversion=(int)1", CapsForContentType("audio/mpeg"))
	assert.Empty(t, CapsForContentType("video/webm"))

	// every announced caps is itself accepted by the container allow-list
	for ct, caps := range contentTypeCaps {
		assert.True(t, CanHandleContainerCaps(caps), ct)
	}
}

func TestIsMP3(t *testing.T) {
	assert.True(t, IsMP3("audio/mpeg"))
	assert.True(t, IsMP3("audio/mp3"))
	assert.True(t, IsMP3("Audio/MPEG; charset=binary"))
	assert.False(t, IsMP3("audio/mp4"))
}

func TestAllowlist_DelegatesToTables(t *testing.T) {
	var a Allowlist
	assert.True(t, a.CanHandleContainerCaps("video/quicktime, variant=(string)iso"))
	assert.False(t, a.CanHandleContainerCaps("video/x-matroska"))
	assert.True(t, a.CanHandleCodecCaps("video/x-h264, stream-format=(string)avc"))
	assert.False(t, a.CanHandleCodecCaps("video/x-vp8"))
	assert.False(t, a.ShouldAutoplug("h264parse", "Codec/Parser/Converter/Video", "video/x-h264"))
}
