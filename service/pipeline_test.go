package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoName(t *testing.T) {
	assert.Equal(t, "clip.mov", videoName("clip.mov", "video/mp4"))
	assert.Equal(t, "clip.mp4", videoName("clip", "video/mp4"))
	assert.Equal(t, "clip.webm", videoName("clip", "video/webm"))
	assert.Equal(t, "clip.bin", videoName("clip", "video/x-unknown-thing"))
}

func TestBaseMime(t *testing.T) {
	assert.Equal(t, "image/png", baseMime("image/png"))
	assert.Equal(t, "video/mp4", baseMime(" Video/MP4; codecs=avc1"))
	assert.Equal(t, "", baseMime(""))
}
