package services

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ScanDebouncer drops repeated kiosk scans of the same token inside a short window.
// It only smooths out a reader firing twice; the attendance index still guards correctness.
type ScanDebouncer struct {
	window time.Duration
	cache  *gocache.Cache
}

// NewScanDebouncer returns a debouncer; a non-positive window disables it.
func NewScanDebouncer(window time.Duration) *ScanDebouncer {
	d := &ScanDebouncer{window: window}
	if window > 0 {
		d.cache = gocache.New(window, 2*window)
	}
	return d
}

// Seen records token and reports whether it was already recorded within the window.
func (d *ScanDebouncer) Seen(token string) bool {
	if d == nil || d.cache == nil {
		return false
	}
	key := strings.TrimSpace(token)
	return d.cache.Add(key, struct{}{}, gocache.DefaultExpiration) != nil
}

// Forget clears token so the next scan is evaluated.
func (d *ScanDebouncer) Forget(token string) {
	if d == nil || d.cache == nil {
		return
	}
	d.cache.Delete(strings.TrimSpace(token))
}
