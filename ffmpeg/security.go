package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// ParseExtraArgs splits the configured extra output options without a shell
// and rejects anything that could add inputs or smuggle shell syntax.
func ParseExtraArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("invalid extra args syntax: %w", err)
	}

	for _, arg := range args {
		switch {
		case arg == "-i":
			return nil, fmt.Errorf("extra args must not add inputs")
		case strings.ContainsAny(arg, "|&;`$()<>"):
			return nil, fmt.Errorf("disallowed character found in argument: %s", arg)
		}
	}
	return args, nil
}
