package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotatedName(t *testing.T) {
	assert.Equal(t, "clip_annotated.mp4", annotatedName("clip.mp4"))
	assert.Equal(t, "frames/road_annotated.jpg", annotatedName("frames/road.jpg"))
	assert.Equal(t, "noext_annotated", annotatedName("noext"))
}
