// Package media classifies source files and lists media under a directory.
package media

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Kind is the media family derived from a file extension.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindUnknown Kind = "unknown"
)

// Supported extensions (lowercase, with leading dot).
var extensions = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".m4v":  KindVideo,
	".mkv":  KindVideo,
	".avi":  KindVideo,
	".webm": KindVideo,
	".wmv":  KindVideo,
	".flv":  KindVideo,
}

// KindOf classifies path by its extension.
func KindOf(path string) Kind {
	if k, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return KindUnknown
}

// Word is the {word} substitution for the kind.
func (k Kind) Word() string {
	if k == KindImage {
		return "photo"
	}
	return "clip"
}

// Discover walks dir on fs and returns every recognized media file, sorted
// for a stable processing order. Hidden files and directories are skipped.
func Discover(fs afero.Fs, dir string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if KindOf(path) != KindUnknown {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			files = append(files, abs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
