package ffmpeg

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"batchspoof/clips"
	"batchspoof/config"
	"batchspoof/effects"
	"batchspoof/media"
)

// CropRatio is the share of each dimension kept after rotation, enough to
// cut away the corners a rotation of up to 5 degrees leaves behind.
const CropRatio = 0.85

// filterChain assembles a comma-joined filter graph.
type filterChain struct {
	filters []string
}

func (fc *filterChain) add(format string, a ...interface{}) *filterChain {
	fc.filters = append(fc.filters, fmt.Sprintf(format, a...))
	return fc
}

func (fc *filterChain) String() string {
	return strings.Join(fc.filters, ",")
}

// SpoofFilter renders p as a filter graph: scale, rotate, center crop,
// equalization, hue. Percentages become the tool's decimal convention.
// Output dimensions are kept even so every video encoder accepts them.
func SpoofFilter(p effects.Params) string {
	fc := &filterChain{}
	fc.add("scale=trunc(iw*%.4f/2)*2:trunc(ih*%.4f/2)*2", p.Scale, p.Scale).
		add("rotate=%.6f:fillcolor=black", p.Rotation*math.Pi/180).
		add("crop=trunc(iw*%.2f/2)*2:trunc(ih*%.2f/2)*2", CropRatio, CropRatio).
		add("eq=brightness=%.4f:contrast=%.4f:saturation=%.4f", p.Brightness/100, p.Contrast/100, p.Saturation/100).
		add("hue=h=%.4f", p.Hue)
	return fc.String()
}

// containerCodecs replaces the configured encoders for containers whose
// muxer rejects H.264 or AAC. A non-zero maxCRF rescales the configured
// x264 CRF (0-51) onto the encoder's own range.
var containerCodecs = map[string]struct {
	video  []string
	audio  string
	maxCRF int
}{
	".webm": {video: []string{"-c:v", "libvpx-vp9", "-b:v", "0", "-row-mt", "1"}, audio: "libopus", maxCRF: 63},
	".wmv":  {video: []string{"-c:v", "wmv2", "-q:v", "3"}, audio: "wmav2"},
}

// Builder produces argument lists for every operation the executor runs.
type Builder struct {
	VideoCodec   string
	VideoPreset  string
	VideoCRF     int
	AudioCodec   string
	AudioBitrate string
	Extra        []string
}

func NewBuilder(cfg *config.Config) (*Builder, error) {
	extra, err := ParseExtraArgs(cfg.ExtraArgs)
	if err != nil {
		return nil, err
	}
	return &Builder{
		VideoCodec:   cfg.VideoCodec,
		VideoPreset:  cfg.VideoPreset,
		VideoCRF:     cfg.VideoCRF,
		AudioCodec:   cfg.AudioCodec,
		AudioBitrate: cfg.AudioBitrate,
		Extra:        extra,
	}, nil
}

func preamble() []string {
	return []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
}

// Spoof applies p to a whole image or video.
func (b *Builder) Spoof(in, out string, kind media.Kind, p effects.Params, removeAudio bool) []string {
	args := append(preamble(), "-i", in)
	return b.finishEncode(args, out, kind, SpoofFilter(p), removeAudio)
}

// SpoofClip applies p to one planned clip of a video.
func (b *Builder) SpoofClip(in, out string, c clips.Clip, p effects.Params, removeAudio bool) []string {
	args := append(preamble(),
		"-ss", seconds(c.Start),
		"-t", seconds(c.Duration),
		"-i", in,
	)
	return b.finishEncode(args, out, media.KindVideo, SpoofFilter(p), removeAudio)
}

// CopyClip extracts one clip by stream copy. Audio passes through as is;
// only metadata is stripped.
func (b *Builder) CopyClip(in, out string, c clips.Clip) []string {
	args := append(preamble(),
		"-ss", seconds(c.Start),
		"-i", in,
		"-t", seconds(c.Duration),
		"-map", "0",
		"-c", "copy",
		"-map_metadata", "-1",
		"-avoid_negative_ts", "make_zero",
	)
	args = append(args, b.Extra...)
	return append(args, out)
}

// Convert re-encodes in into the container implied by out, without effects.
func (b *Builder) Convert(in, out string, kind media.Kind, removeAudio bool) []string {
	args := append(preamble(), "-i", in)
	return b.finishEncode(args, out, kind, "", removeAudio)
}

func (b *Builder) finishEncode(args []string, out string, kind media.Kind, filter string, removeAudio bool) []string {
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-map_metadata", "-1")

	if kind == media.KindImage {
		args = append(args, "-frames:v", "1")
	} else {
		audio := b.AudioCodec
		if cc, ok := containerCodecs[strings.ToLower(filepath.Ext(out))]; ok {
			args = append(args, cc.video...)
			if cc.maxCRF > 0 {
				args = append(args, "-crf", strconv.Itoa(scaleCRF(b.VideoCRF, cc.maxCRF)))
			}
			audio = cc.audio
		} else {
			args = append(args,
				"-c:v", b.VideoCodec,
				"-preset", b.VideoPreset,
				"-crf", strconv.Itoa(b.VideoCRF),
			)
		}
		args = append(args, "-pix_fmt", "yuv420p")
		if removeAudio {
			args = append(args, "-an")
		} else {
			args = append(args, "-c:a", audio, "-b:a", b.AudioBitrate)
		}
	}

	args = append(args, b.Extra...)
	return append(args, out)
}

func scaleCRF(crf, limit int) int {
	v := int(math.Round(float64(crf) * float64(limit) / 51))
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// ProbeArgs asks ffprobe for the container duration as a bare float.
func ProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
