// Package naming derives output file names from a user pattern.
//
// Patterns may contain the tokens {word}, {number}, {date} and {original};
// any other brace text is left as written. A pattern without {number} gets a
// zero-padded sequence suffix, and multi-batch jobs get a _batchN suffix, so
// names within one job stay distinct without collision checks.
package naming

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"batchspoof/media"
)

const (
	TokenWord     = "{word}"
	TokenNumber   = "{number}"
	TokenDate     = "{date}"
	TokenOriginal = "{original}"

	// DefaultPattern is used when a job does not name one.
	DefaultPattern = TokenWord + "_" + TokenNumber
)

// Request carries everything that identifies one output.
type Request struct {
	Source    string
	Kind      media.Kind
	OutputDir string
	Pattern   string
	Sequence  int
	Batch     int
	Batches   int
	// Format replaces the source extension when set ("png" or ".png").
	Format string
}

// Resolver turns a Request into an output path. The zero value is not usable;
// call NewResolver.
type Resolver struct {
	now    func() time.Time
	number func() string
}

// NewResolver returns a Resolver using the wall clock and a random 12-digit
// numeral for {number}.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now, number: RandomNumber}
}

// RandomNumber returns a uniformly drawn 12-digit numeral.
func RandomNumber() string {
	return fmt.Sprintf("%012d", rand.Int64N(1_000_000_000_000))
}

// Resolve returns the output path for req.
func (r *Resolver) Resolve(req Request) string {
	pattern := req.Pattern
	hasNumber := strings.Contains(pattern, TokenNumber)

	name := strings.ReplaceAll(pattern, TokenWord, req.Kind.Word())
	for strings.Contains(name, TokenNumber) {
		name = strings.Replace(name, TokenNumber, r.number(), 1)
	}
	name = strings.ReplaceAll(name, TokenDate, r.now().Format("2006-01-02"))
	name = strings.ReplaceAll(name, TokenOriginal, Original(req.Source))

	if !hasNumber {
		name += fmt.Sprintf("_%03d", req.Sequence)
	}
	if req.Batches > 1 {
		name += fmt.Sprintf("_batch%d", req.Batch)
	}

	return filepath.Join(req.OutputDir, name+Extension(req.Source, req.Format))
}

// Original is the source base name without its extension.
func Original(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extension returns the output extension with a leading dot: the override
// when set, the source extension otherwise.
func Extension(source, override string) string {
	override = strings.TrimSpace(override)
	if override == "" {
		return filepath.Ext(source)
	}
	return "." + strings.ToLower(strings.TrimPrefix(override, "."))
}

// Sequence hands out the per-batch output counter, starting at 1.
type Sequence struct {
	n int
}

// Next returns the next sequence number.
func (s *Sequence) Next() int {
	s.n++
	return s.n
}
