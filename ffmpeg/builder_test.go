package ffmpeg

import (
	"strings"
	"testing"

	"batchspoof/clips"
	"batchspoof/config"
	"batchspoof/effects"
	"batchspoof/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(config.Default())
	require.NoError(t, err)
	return b
}

var fixedParams = effects.Params{
	Rotation:   3,
	Brightness: -6,
	Contrast:   105,
	Saturation: 98,
	Hue:        -4.5,
	Scale:      1.3,
}

// indexOf returns the position of flag in args, or -1.
func indexOf(args []string, flag string) int {
	for i, a := range args {
		if a == flag {
			return i
		}
	}
	return -1
}

func TestSpoofFilter_Order(t *testing.T) {
	f := SpoofFilter(fixedParams)
	parts := strings.Split(f, ",")
	require.Len(t, parts, 5)

	assert.Equal(t, "scale=trunc(iw*1.3000/2)*2:trunc(ih*1.3000/2)*2", parts[0])
	assert.Equal(t, "rotate=0.052360:fillcolor=black", parts[1])
	assert.Equal(t, "crop=trunc(iw*0.85/2)*2:trunc(ih*0.85/2)*2", parts[2])
	assert.Equal(t, "eq=brightness=-0.0600:contrast=1.0500:saturation=0.9800", parts[3])
	assert.Equal(t, "hue=h=-4.5000", parts[4])
}

func TestBuilder_SpoofVideo(t *testing.T) {
	b := testBuilder(t)
	args := b.Spoof("/in/a.mp4", "/out/clip_1.mp4", media.KindVideo, fixedParams, false)

	assert.Equal(t, "/out/clip_1.mp4", args[len(args)-1])
	assert.Equal(t, "/in/a.mp4", args[indexOf(args, "-i")+1])
	assert.Equal(t, SpoofFilter(fixedParams), args[indexOf(args, "-vf")+1])
	assert.Equal(t, "-1", args[indexOf(args, "-map_metadata")+1])
	assert.Equal(t, "aac", args[indexOf(args, "-c:a")+1])
	assert.Equal(t, "128k", args[indexOf(args, "-b:a")+1])
	assert.Equal(t, -1, indexOf(args, "-an"))
	assert.Contains(t, args, "-y")
}

func TestBuilder_SpoofVideoWithoutAudio(t *testing.T) {
	b := testBuilder(t)
	args := b.Spoof("/in/a.mp4", "/out/b.mp4", media.KindVideo, fixedParams, true)

	assert.NotEqual(t, -1, indexOf(args, "-an"))
	assert.Equal(t, -1, indexOf(args, "-c:a"))
}

func TestBuilder_SpoofImage(t *testing.T) {
	b := testBuilder(t)
	args := b.Spoof("/in/a.jpg", "/out/photo.jpg", media.KindImage, fixedParams, false)

	assert.Equal(t, "1", args[indexOf(args, "-frames:v")+1])
	assert.Equal(t, -1, indexOf(args, "-c:v"))
	assert.Equal(t, -1, indexOf(args, "-c:a"))
	assert.Equal(t, "-1", args[indexOf(args, "-map_metadata")+1])
}

func TestBuilder_SpoofClipSeeksBeforeInput(t *testing.T) {
	b := testBuilder(t)
	c := clips.Clip{Start: 16, Duration: 7.25, Number: 3}
	args := b.SpoofClip("/in/a.mp4", "/out/c.mp4", c, fixedParams, false)

	ss, in := indexOf(args, "-ss"), indexOf(args, "-i")
	require.NotEqual(t, -1, ss)
	assert.Less(t, ss, in)
	assert.Equal(t, "16.000", args[ss+1])
	assert.Equal(t, "7.250", args[indexOf(args, "-t")+1])
}

func TestBuilder_CopyClip(t *testing.T) {
	b := testBuilder(t)
	c := clips.Clip{Start: 8, Duration: 8, Number: 2}
	args := b.CopyClip("/in/a.mp4", "/out/c.mp4", c)

	assert.Equal(t, "copy", args[indexOf(args, "-c")+1])
	assert.Equal(t, "-1", args[indexOf(args, "-map_metadata")+1])
	assert.Equal(t, -1, indexOf(args, "-vf"))
	assert.Equal(t, -1, indexOf(args, "-an"))
	assert.Equal(t, "8.000", args[indexOf(args, "-ss")+1])
}

func TestBuilder_ConvertHasNoFilter(t *testing.T) {
	b := testBuilder(t)
	args := b.Convert("/in/a.mov", "/out/a.mp4", media.KindVideo, false)

	assert.Equal(t, -1, indexOf(args, "-vf"))
	assert.Equal(t, "libx264", args[indexOf(args, "-c:v")+1])
	assert.Equal(t, "/out/a.mp4", args[len(args)-1])
}

func TestBuilder_CodecsFollowContainer(t *testing.T) {
	b := testBuilder(t)

	cases := []struct {
		out, video, audio string
		preset            bool
		crf               string
	}{
		{"/out/a.mp4", "libx264", "aac", true, "23"},
		{"/out/a.mov", "libx264", "aac", true, "23"},
		{"/out/a.mkv", "libx264", "aac", true, "23"},
		{"/out/a.webm", "libvpx-vp9", "libopus", false, "28"},
		{"/out/a.WEBM", "libvpx-vp9", "libopus", false, "28"},
		{"/out/a.wmv", "wmv2", "wmav2", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.out, func(t *testing.T) {
			args := b.Convert("/in/a.mp4", tc.out, media.KindVideo, false)
			assert.Equal(t, tc.video, args[indexOf(args, "-c:v")+1])
			assert.Equal(t, tc.audio, args[indexOf(args, "-c:a")+1])
			assert.Equal(t, tc.preset, indexOf(args, "-preset") != -1)
			if tc.crf == "" {
				assert.Equal(t, -1, indexOf(args, "-crf"))
			} else {
				assert.Equal(t, tc.crf, args[indexOf(args, "-crf")+1])
			}
			assert.Equal(t, tc.out, args[len(args)-1])
		})
	}

	t.Run("spoofed clip into webm", func(t *testing.T) {
		c := clips.Clip{Start: 0, Duration: 6, Number: 1}
		args := b.SpoofClip("/in/a.mp4", "/out/c.webm", c, fixedParams, false)
		assert.Equal(t, "libvpx-vp9", args[indexOf(args, "-c:v")+1])
		assert.Equal(t, "0", args[indexOf(args, "-b:v")+1])
		assert.Equal(t, "libopus", args[indexOf(args, "-c:a")+1])
	})

	t.Run("webm without audio", func(t *testing.T) {
		args := b.Spoof("/in/a.mp4", "/out/a.webm", media.KindVideo, fixedParams, true)
		assert.NotEqual(t, -1, indexOf(args, "-an"))
		assert.Equal(t, -1, indexOf(args, "-c:a"))
	})
}

func TestBuilder_ExtraArgsPrecedeOutput(t *testing.T) {
	cfg := config.Default()
	cfg.ExtraArgs = "-threads 2"
	b, err := NewBuilder(cfg)
	require.NoError(t, err)

	args := b.Convert("/in/a.png", "/out/a.jpg", media.KindImage, false)
	n := len(args)
	assert.Equal(t, []string{"-threads", "2", "/out/a.jpg"}, args[n-3:])
}

func TestNewBuilder_RejectsBadExtraArgs(t *testing.T) {
	cfg := config.Default()
	cfg.ExtraArgs = "-i evil.mp4"
	_, err := NewBuilder(cfg)
	assert.Error(t, err)
}
