package task

import (
	"fmt"
	"strings"

	"batchspoof/clips"
	"batchspoof/effects"
	"batchspoof/media"
	"batchspoof/naming"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Mode picks the strategy the executor runs for every unit.
type Mode string

const (
	ModeSpoofSplit  Mode = "spoof-split"
	ModeSpoofOnly   Mode = "spoof-only"
	ModeSplitOnly   Mode = "split-only"
	ModeConvertOnly Mode = "convert-only"
)

// Settings is the configuration snapshot a job runs with.
type Settings struct {
	Mode          Mode              `json:"mode" yaml:"mode"`
	Intensity     effects.Intensity `json:"intensity" yaml:"intensity"`
	Duplicates    int               `json:"duplicates" yaml:"duplicates"`
	RemoveAudio   bool              `json:"removeAudio" yaml:"remove_audio"`
	ClipLength    clips.Policy      `json:"clipLength" yaml:"clip_length"`
	NamingPattern string            `json:"namingPattern" yaml:"naming_pattern"`
	ImageFormat   string            `json:"imageFormat,omitempty" yaml:"image_format"`
	VideoFormat   string            `json:"videoFormat,omitempty" yaml:"video_format"`
}

// Normalize fills defaults and validates s. Unknown intensities fall back to
// medium; convert-only always runs a single batch.
func (s Settings) Normalize() (Settings, error) {
	if s.Mode == "" {
		s.Mode = ModeSpoofSplit
	}
	if _, ok := strategies[s.Mode]; !ok {
		return s, fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.Mode)
	}

	s.Intensity = s.Intensity.Normalize()

	if s.ClipLength == "" {
		s.ClipLength = clips.Policy6to8
	}
	if !s.ClipLength.Valid() {
		return s, fmt.Errorf("%w: unknown clip length %q", ErrInvalidSettings, s.ClipLength)
	}

	if s.Duplicates < 1 || s.Mode == ModeConvertOnly {
		s.Duplicates = 1
	}

	if strings.TrimSpace(s.NamingPattern) == "" {
		s.NamingPattern = naming.DefaultPattern
	}
	// Outputs must land directly in the output root.
	if strings.ContainsAny(s.NamingPattern, `/\`) || strings.Contains(s.NamingPattern, "..") {
		return s, fmt.Errorf("%w: naming pattern %q must not contain path separators or ..", ErrInvalidSettings, s.NamingPattern)
	}

	for kind, format := range map[media.Kind]string{media.KindImage: s.ImageFormat, media.KindVideo: s.VideoFormat} {
		if format == "" {
			continue
		}
		if media.KindOf("x"+naming.Extension("", format)) != kind {
			return s, fmt.Errorf("%w: %q is not a %s format", ErrInvalidSettings, format, kind)
		}
	}
	return s, nil
}

// Batches is the number of passes over the file list.
func (s Settings) Batches() int {
	if s.Duplicates < 1 || s.Mode == ModeConvertOnly {
		return 1
	}
	return s.Duplicates
}

// FormatFor returns the output format override for kind, if any.
func (s Settings) FormatFor(kind media.Kind) string {
	switch kind {
	case media.KindImage:
		return s.ImageFormat
	case media.KindVideo:
		return s.VideoFormat
	}
	return ""
}

// LoadSettings reads a YAML settings file. The result is not normalized.
func LoadSettings(fs afero.Fs, path string) (Settings, error) {
	var s Settings
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return s, &FSError{Op: "read", Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}
	return s, nil
}
