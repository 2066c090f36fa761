package chat

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/samber/lo"
)

// DefaultPalette holds background colors that keep white text readable.
var DefaultPalette = []string{
	"#B91C1C", "#B45309", "#047857", "#1D4ED8", "#6D28D9", "#BE185D",
	"#15803D", "#991B1B", "#9A3412", "#065F46", "#1E40AF", "#5B21B6",
	"#9D174D", "#4338CA", "#008080", "#800080", "#C53030", "#2C5282",
}

// ErrInvalidColor is returned by ParsePalette for entries that are not hex colors.
var ErrInvalidColor = errors.New("invalid palette color")

// ColorAllocator hands out display colors from a fixed palette and takes them
// back when participants leave. Once the palette is exhausted it synthesizes
// fallback colors that are never pooled.
type ColorAllocator struct {
	mu        sync.Mutex
	palette   map[string]struct{}
	available []string
	rng       *rand.Rand
}

// NewColorAllocator builds an allocator whose pool starts with every palette
// color. Colors are kept in upper-case #RRGGBB form.
func NewColorAllocator(palette []string) *ColorAllocator {
	a := &ColorAllocator{
		palette:   make(map[string]struct{}, len(palette)),
		available: make([]string, 0, len(palette)),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, raw := range palette {
		c := normalizeColor(raw)
		if c == "" {
			continue
		}
		if _, dup := a.palette[c]; dup {
			continue
		}
		a.palette[c] = struct{}{}
		a.available = append(a.available, c)
	}
	return a
}

// Acquire removes a random color from the pool, or returns a fallback color
// when the pool is empty.
func (a *ColorAllocator) Acquire() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.available); n > 0 {
		i := a.rng.Intn(n)
		c := a.available[i]
		a.available[i] = a.available[n-1]
		a.available = a.available[:n-1]
		return c
	}
	return a.fallbackLocked()
}

// Release returns a palette color to the pool. Fallback colors and colors
// already in the pool are ignored.
func (a *ColorAllocator) Release(c string) {
	c = normalizeColor(c)
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.palette[c]; !ok {
		return
	}
	if lo.Contains(a.available, c) {
		return
	}
	a.available = append(a.available, c)
}

// Available reports how many palette colors are currently unassigned.
func (a *ColorAllocator) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.available)
}

// InPalette reports whether c belongs to the fixed palette.
func (a *ColorAllocator) InPalette(c string) bool {
	c = normalizeColor(c)
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.palette[c]
	return ok
}

func (a *ColorAllocator) fallbackLocked() string {
	for {
		c := fmt.Sprintf("#%06X", a.rng.Intn(0x1000000))
		if _, taken := a.palette[c]; !taken {
			return c
		}
	}
}

func normalizeColor(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

// ParsePalette turns a comma separated list of hex colors into a palette.
// An empty value yields DefaultPalette.
func ParsePalette(raw string) ([]string, error) {
	entries := lo.Compact(lo.Map(strings.Split(raw, ","), func(item string, _ int) string {
		return normalizeColor(item)
	}))
	if len(entries) == 0 {
		return append([]string(nil), DefaultPalette...), nil
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry, "#") || len(color.HexToRgb(entry)) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, entry)
		}
	}
	return lo.Uniq(entries), nil
}
