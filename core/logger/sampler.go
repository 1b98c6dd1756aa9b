package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets through keep out of every window events.
type sampler struct {
	keep   atomic.Uint64
	window atomic.Uint64
	n      atomic.Uint64
}

func newSampler(keep, window int) *sampler {
	s := &sampler{}
	s.set(keep, window)
	return s
}

// set changes the ratio; a non-positive part disables sampling.
func (s *sampler) set(keep, window int) {
	if keep <= 0 || window <= 0 {
		keep, window = 0, 0
	}
	s.keep.Store(uint64(min(keep, window)))
	s.window.Store(uint64(window))
	s.n.Store(0)
}

func (s *sampler) allow() bool {
	window := s.window.Load()
	if window == 0 {
		return true
	}
	return (s.n.Add(1)-1)%window < s.keep.Load()
}

// parseRatio reads "1/50" or "50" (one in fifty). Invalid input and
// non-positive values yield 0, 0.
func parseRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if left, right, ok := strings.Cut(spec, "/"); ok {
		keep, err1 := strconv.Atoi(strings.TrimSpace(left))
		window, err2 := strconv.Atoi(strings.TrimSpace(right))
		if err1 != nil || err2 != nil || keep <= 0 || window <= 0 {
			return 0, 0
		}
		return keep, window
	}
	window, err := strconv.Atoi(spec)
	if err != nil || window <= 0 {
		return 0, 0
	}
	return 1, window
}
