package extractor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureDoesNotWaitOutSlowBrowserStart(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var launches atomic.Int32
	s := NewRodScreenshotter(BrowserConfig{}, time.Second)
	s.launch = func(context.Context) (*rod.Browser, *launcher.Launcher, error) {
		launches.Add(1)
		<-release
		return nil, nil, errors.New("no browser")
	}

	results := make(chan error, 2)
	for range 2 {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err := s.Capture(ctx, "https://example.com")
			results <- err
		}()
	}
	for range 2 {
		select {
		case err := <-results:
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		case <-time.After(2 * time.Second):
			t.Fatal("capture blocked on browser start")
		}
	}
	assert.Equal(t, int32(1), launches.Load(), "concurrent captures share one launch")

	close(release)
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.starting == nil
	}, time.Second, 10*time.Millisecond)

	// A failed start is retried by the next capture.
	_, err := s.Capture(context.Background(), "https://example.com")
	require.EqualError(t, err, "no browser")
	assert.Equal(t, int32(2), launches.Load())
}

func TestCaptureAfterClose(t *testing.T) {
	t.Parallel()

	s := NewRodScreenshotter(BrowserConfig{}, time.Second)
	s.launch = func(context.Context) (*rod.Browser, *launcher.Launcher, error) {
		t.Error("browser launched after Close")
		return nil, nil, errors.New("unreachable")
	}
	require.NoError(t, s.Close())

	_, err := s.Capture(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, errScreenshotterClosed)
}
