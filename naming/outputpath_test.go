package naming

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"batchspoof/media"

	"github.com/stretchr/testify/assert"
)

func fixedResolver(numbers ...string) *Resolver {
	i := 0
	return &Resolver{
		now: func() time.Time { return time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC) },
		number: func() string {
			n := numbers[i%len(numbers)]
			i++
			return n
		},
	}
}

func TestResolve_NumberWithoutBatchSuffix(t *testing.T) {
	r := NewResolver()
	out := r.Resolve(Request{
		Source:    "/in/a.jpg",
		Kind:      media.KindImage,
		OutputDir: "/out",
		Pattern:   "photo_{number}",
		Sequence:  1,
		Batch:     1,
		Batches:   1,
	})

	assert.Equal(t, filepath.Join("/out"), filepath.Dir(out))
	assert.Regexp(t, regexp.MustCompile(`^photo_\d{12}\.jpg$`), filepath.Base(out))
	assert.NotContains(t, out, "_batch")
}

func TestResolve_SequenceSuffixWhenNoNumber(t *testing.T) {
	r := fixedResolver("000000000001")
	out := r.Resolve(Request{
		Source:    "/in/a.png",
		Kind:      media.KindImage,
		OutputDir: "/out",
		Pattern:   "img",
		Sequence:  7,
		Batches:   1,
	})

	name := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	assert.True(t, strings.HasSuffix(name, "_007"), name)
	assert.Equal(t, "img_007.png", filepath.Base(out))
}

func TestResolve_Original(t *testing.T) {
	r := fixedResolver("123456789012")
	out := r.Resolve(Request{
		Source:    "/videos/vacation.mp4",
		Kind:      media.KindVideo,
		OutputDir: "/out",
		Pattern:   "{original}_{word}_{number}",
		Batches:   1,
	})
	assert.Equal(t, "vacation_clip_123456789012.mp4", filepath.Base(out))
}

func TestResolve_DateBatchAndFormat(t *testing.T) {
	r := fixedResolver("999999999999")
	out := r.Resolve(Request{
		Source:    "/in/shot.HEIC.jpg",
		Kind:      media.KindImage,
		OutputDir: "/out",
		Pattern:   "{date}-{word}",
		Sequence:  12,
		Batch:     3,
		Batches:   4,
		Format:    ".PNG",
	})
	assert.Equal(t, "2026-03-09-photo_012_batch3.png", filepath.Base(out))
}

func TestResolve_UnknownTokensPassThrough(t *testing.T) {
	r := fixedResolver("000000000042")
	out := r.Resolve(Request{
		Source:    "/in/a.mp4",
		Kind:      media.KindVideo,
		OutputDir: "/out",
		Pattern:   "{brand}_{number}",
		Batches:   1,
	})
	assert.Equal(t, "{brand}_000000000042.mp4", filepath.Base(out))
}

func TestResolve_EachNumberTokenDrawnSeparately(t *testing.T) {
	r := fixedResolver("111111111111", "222222222222")
	out := r.Resolve(Request{
		Source:  "/in/a.mp4",
		Kind:    media.KindVideo,
		Pattern: "{number}-{number}",
		Batches: 1,
	})
	assert.Equal(t, "111111111111-222222222222.mp4", filepath.Base(out))
}

func TestResolve_FreshNumberPerCall(t *testing.T) {
	r := NewResolver()
	req := Request{
		Source:    "/in/a.jpg",
		Kind:      media.KindImage,
		OutputDir: "/out",
		Pattern:   "{word}_{number}",
		Batches:   1,
	}
	format := regexp.MustCompile(`^photo_\d{12}\.jpg$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := filepath.Base(r.Resolve(req))
		assert.Regexp(t, format, name)
		seen[name] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestResolve_DistinctAcrossBatchesAndSequences(t *testing.T) {
	r := NewResolver()
	seen := map[string]bool{}
	for batch := 1; batch <= 3; batch++ {
		seq := &Sequence{}
		for _, src := range []string{"/in/a.jpg", "/in/b.jpg", "/in/a.mp4"} {
			out := r.Resolve(Request{
				Source:   src,
				Kind:     media.KindOf(src),
				Pattern:  "{original}",
				Sequence: seq.Next(),
				Batch:    batch,
				Batches:  3,
			})
			assert.False(t, seen[out], "duplicate %s", out)
			seen[out] = true
		}
	}
	assert.Len(t, seen, 9)
}

func TestSequence_Next(t *testing.T) {
	var s Sequence
	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.Next())
}
