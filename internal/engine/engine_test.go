package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSegment_ToStreamTime(t *testing.T) {
	tests := []struct {
		name     string
		seg      Segment
		position time.Duration
		want     time.Duration
		wantOK   bool
	}{
		{
			name:     "default segment is identity",
			seg:      DefaultSegment(),
			position: 3 * time.Second,
			want:     3 * time.Second,
			wantOK:   true,
		},
		{
			name:     "after seek",
			seg:      Segment{Rate: 1, AppliedRate: 1, Start: 10 * time.Second, Stop: -1, Time: 10 * time.Second},
			position: 12 * time.Second,
			want:     12 * time.Second,
			wantOK:   true,
		},
		{
			name:     "start and time differ",
			seg:      Segment{Rate: 1, AppliedRate: 1, Start: 2 * time.Second, Stop: -1, Time: 0},
			position: 5 * time.Second,
			want:     3 * time.Second,
			wantOK:   true,
		},
		{
			name:     "before start",
			seg:      Segment{Rate: 1, AppliedRate: 1, Start: 10 * time.Second, Stop: -1, Time: 10 * time.Second},
			position: 9 * time.Second,
			want:     -1,
			wantOK:   false,
		},
		{
			name:     "after stop",
			seg:      Segment{Rate: 1, AppliedRate: 1, Start: 0, Stop: 5 * time.Second},
			position: 6 * time.Second,
			want:     -1,
			wantOK:   false,
		},
		{
			name:     "unknown position",
			seg:      DefaultSegment(),
			position: -1,
			want:     -1,
			wantOK:   false,
		},
		{
			name:     "applied rate",
			seg:      Segment{Rate: 1, AppliedRate: 2, Start: 0, Stop: -1, Time: time.Second},
			position: 2 * time.Second,
			want:     5 * time.Second,
			wantOK:   true,
		},
		{
			name:     "zero applied rate treated as normal",
			seg:      Segment{Rate: 1, Start: 0, Stop: -1},
			position: time.Second,
			want:     time.Second,
			wantOK:   true,
		},
		{
			name:     "reverse",
			seg:      Segment{Rate: -1, AppliedRate: -1, Start: 0, Stop: -1, Time: 10 * time.Second},
			position: 4 * time.Second,
			want:     6 * time.Second,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.seg.ToStreamTime(tt.position)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		message string
		debug   string
		want    ErrorCategory
	}{
		{"Could not determine type of stream.", "gsttypefindelement.c", ErrCategoryFormat},
		{"Internal data stream error.", "qtdemux.c: streaming stopped", ErrCategoryFormat},
		{"No decoder available for type 'video/x-h265'.", "", ErrCategoryCodec},
		{"Internal data stream error.", "reason not-negotiated", ErrCategoryCodec},
		{"Could not read from resource.", "appsrc0", ErrCategoryResource},
		{"Something odd happened", "", ErrCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.message, tt.debug))
		})
	}
}

func TestErrorCategory_String(t *testing.T) {
	assert.Equal(t, "resource", ErrCategoryResource.String())
	assert.Equal(t, "codec", ErrCategoryCodec.String())
	assert.Equal(t, "format", ErrCategoryFormat.String())
	assert.Equal(t, "unknown", ErrCategoryUnknown.String())
}

func TestStreamKind(t *testing.T) {
	assert.Equal(t, StreamVideo, StreamAudio.Other())
	assert.Equal(t, StreamAudio, StreamVideo.Other())
	assert.Equal(t, StreamAny, StreamAny.Other())
	assert.True(t, StreamAny&StreamAudio != 0)
	assert.True(t, StreamAny&StreamVideo != 0)
	assert.Equal(t, "video", StreamVideo.String())
}
