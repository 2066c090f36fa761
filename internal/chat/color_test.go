package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestColorAllocatorAcquireExhaustsPalette verifies that every palette color is
// handed out exactly once before fallback colors appear.
func TestColorAllocatorAcquireExhaustsPalette(t *testing.T) {
	req := require.New(t)
	palette := []string{"#111111", "#222222", "#333333"}
	a := NewColorAllocator(palette)

	seen := map[string]bool{}
	for range palette {
		c := a.Acquire()
		req.True(a.InPalette(c))
		req.False(seen[c], "color %s handed out twice", c)
		seen[c] = true
	}
	req.Zero(a.Available())

	fallback := a.Acquire()
	req.Regexp(`^#[0-9A-F]{6}$`, fallback)
	req.False(a.InPalette(fallback))
	req.Zero(a.Available())
}

// TestColorAllocatorRelease checks that only held palette colors return to the pool.
func TestColorAllocatorRelease(t *testing.T) {
	t.Run("should return a palette color once", func(t *testing.T) {
		req := require.New(t)
		a := NewColorAllocator([]string{"#111111", "#222222"})

		c := a.Acquire()
		req.Equal(1, a.Available())

		a.Release(c)
		req.Equal(2, a.Available())

		// Second release of the same color is ignored
		a.Release(c)
		req.Equal(2, a.Available())
	})

	t.Run("should ignore fallback and unknown colors", func(t *testing.T) {
		req := require.New(t)
		a := NewColorAllocator([]string{"#111111"})
		a.Acquire()
		fallback := a.Acquire()

		a.Release(fallback)
		a.Release("#ABCDEF")
		req.Zero(a.Available())
	})
}

// TestColorAllocatorNeverExceedsPalette runs an acquire/release sequence and
// checks the pool never grows past the palette or holds a live color.
func TestColorAllocatorNeverExceedsPalette(t *testing.T) {
	req := require.New(t)
	a := NewColorAllocator(DefaultPalette)

	held := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		held = append(held, a.Acquire())
	}
	for i, c := range held {
		if i%2 == 0 {
			a.Release(c)
		}
		req.LessOrEqual(a.Available(), len(DefaultPalette))
	}

	// Every still-held palette color must be absent from the pool
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range held {
		if _, ok := a.palette[c]; ok && i%2 == 1 {
			req.NotContains(a.available, c)
		}
	}
}

// TestNewColorAllocatorDedupes verifies duplicate palette entries are pooled once.
func TestNewColorAllocatorDedupes(t *testing.T) {
	req := require.New(t)
	a := NewColorAllocator([]string{"#111111", "#111111", "#222222"})
	req.Equal(2, a.Available())
}

// TestNewColorAllocatorNormalizesCase verifies lower-case palette entries are
// pooled in upper case and still recognized on release.
func TestNewColorAllocatorNormalizesCase(t *testing.T) {
	req := require.New(t)
	a := NewColorAllocator([]string{"#aa0000", " #AA0000 ", "", "#00aa00"})
	req.Equal(2, a.Available())
	req.True(a.InPalette("#AA0000"))
	req.True(a.InPalette("#aa0000"))

	c := a.Acquire()
	req.Equal(strings.ToUpper(c), c)

	a.Release(strings.ToLower(c))
	req.Equal(2, a.Available())
}

// TestColorAllocatorFallbackSkipsLowerCasePalette forces the first fallback
// draw onto a palette color given in lower case and checks it is redrawn.
func TestColorAllocatorFallbackSkipsLowerCasePalette(t *testing.T) {
	req := require.New(t)
	const seed = 42
	first := fmt.Sprintf("#%06X", rand.New(rand.NewSource(seed)).Intn(0x1000000))

	a := NewColorAllocator([]string{strings.ToLower(first)})
	req.Equal(first, a.Acquire())

	a.rng = rand.New(rand.NewSource(seed))
	fallback := a.Acquire()
	req.NotEqual(first, fallback)
	req.False(a.InPalette(fallback))
	req.Regexp(`^#[0-9A-F]{6}$`, fallback)
}

func TestParsePalette(t *testing.T) {
	t.Run("should default when empty", func(t *testing.T) {
		req := require.New(t)
		palette, err := ParsePalette("  ")
		req.NoError(err)
		req.Equal(DefaultPalette, palette)

		// The result is a copy
		palette[0] = "#000000"
		req.NotEqual("#000000", DefaultPalette[0])
	})

	t.Run("should normalize and dedupe entries", func(t *testing.T) {
		req := require.New(t)
		palette, err := ParsePalette("#b91c1c, #B91C1C,,#abc")
		req.NoError(err)
		req.Equal([]string{"#B91C1C", "#ABC"}, palette)
	})

	t.Run("should reject entries that are not hex colors", func(t *testing.T) {
		req := require.New(t)
		for _, raw := range []string{"red", "#12345G", "B91C1C", "#1234"} {
			_, err := ParsePalette(raw)
			req.ErrorIs(err, ErrInvalidColor, raw)
		}
	})
}
