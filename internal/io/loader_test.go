package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupportedImageFormat(t *testing.T) {
	fl := &FrameLoader{}
	tests := []struct {
		path string
		want bool
	}{
		{"frame.jpg", true},
		{"frame.JPEG", true},
		{"dir/frame.png", true},
		{"frame.tif", true},
		{"clip.mp4", false},
		{"noextension", false},
		{"dir.with.dots/noextension", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fl.isSupportedImageFormat(tt.path), tt.path)
	}
}
