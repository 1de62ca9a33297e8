package session

import (
	"sync"
	"time"

	"github.com/joeycumines/go-browsersession/delegate"
	"github.com/joeycumines/go-browsersession/engine"
)

// Media tracks one media element of a page. It attaches itself as the
// element's delegate, and forwards element events to its listeners.
type Media struct {
	element   engine.MediaElement
	listeners *delegate.Multiplexer[engine.MediaElementDelegate]
	now       func() time.Time

	mu         sync.Mutex
	playback   engine.MediaPlaybackState
	ready      engine.MediaReadyState
	metadata   engine.MediaMetadata
	position   time.Duration
	volume     float64
	muted      bool
	fullscreen bool
	played     bool
	lastUpdate time.Time
	errorCode  int
	unloaded   bool
}

var _ engine.MediaElementDelegate = (*Media)(nil)

func newMedia(element engine.MediaElement, now func() time.Time) *Media {
	x := &Media{
		element: element,
		now:     now,
		volume:  1,
	}
	x.listeners = delegate.NewMultiplexer[engine.MediaElementDelegate](nil)
	element.SetDelegate(x)
	return x
}

// Element returns the underlying engine media element.
func (x *Media) Element() engine.MediaElement { return x.element }

// AddListener registers a receiver of element events, reporting false for
// duplicates.
func (x *Media) AddListener(l engine.MediaElementDelegate) bool { return x.listeners.Add(l) }

// RemoveListener is idempotent.
func (x *Media) RemoveListener(l engine.MediaElementDelegate) bool { return x.listeners.Remove(l) }

func (x *Media) Play() { x.element.Play() }

func (x *Media) Pause() { x.element.Pause() }

func (x *Media) Seek(t time.Duration) { x.element.Seek(t) }

func (x *Media) SetMuted(muted bool) { x.element.SetMuted(muted) }

func (x *Media) SetVolume(volume float64) { x.element.SetVolume(volume) }

// IsFullscreen reports whether the element is displayed full screen.
func (x *Media) IsFullscreen() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.fullscreen
}

// IsPlaying reports whether playback is in progress.
func (x *Media) IsPlaying() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.playback == engine.MediaPlaybackPlay || x.playback == engine.MediaPlaybackPlaying
}

// IsPlayed reports whether playback ever started.
func (x *Media) IsPlayed() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.played
}

// IsEnded reports whether playback reached the end.
func (x *Media) IsEnded() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.playback == engine.MediaPlaybackEnded
}

// IsUnloaded reports whether the element was removed from the page.
func (x *Media) IsUnloaded() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.unloaded
}

func (x *Media) PlaybackState() engine.MediaPlaybackState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.playback
}

func (x *Media) ReadyState() engine.MediaReadyState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ready
}

func (x *Media) Metadata() engine.MediaMetadata {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.metadata
}

// Position returns the last reported playback position.
func (x *Media) Position() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.position
}

// Volume returns the last reported volume and muted state.
func (x *Media) Volume() (float64, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.volume, x.muted
}

// LastStateUpdate returns when the playback state last changed.
func (x *Media) LastStateUpdate() time.Time {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.lastUpdate
}

// ErrorCode returns the last reported error code, zero if none.
func (x *Media) ErrorCode() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.errorCode
}

// unload detaches from the element and drops the listeners.
func (x *Media) unload() {
	x.mu.Lock()
	x.unloaded = true
	x.mu.Unlock()
	x.element.SetDelegate(nil)
	x.listeners.Clear()
}

func (x *Media) OnPlaybackStateChange(element engine.MediaElement, state engine.MediaPlaybackState) {
	x.mu.Lock()
	x.playback = state
	if state == engine.MediaPlaybackPlaying {
		x.played = true
	}
	x.lastUpdate = x.now()
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnPlaybackStateChange(element, state) })
}

func (x *Media) OnReadyStateChange(element engine.MediaElement, state engine.MediaReadyState) {
	x.mu.Lock()
	x.ready = state
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnReadyStateChange(element, state) })
}

func (x *Media) OnMetadataChange(element engine.MediaElement, metadata engine.MediaMetadata) {
	x.mu.Lock()
	x.metadata = metadata
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnMetadataChange(element, metadata) })
}

func (x *Media) OnTimeChange(element engine.MediaElement, t time.Duration) {
	x.mu.Lock()
	x.position = t
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnTimeChange(element, t) })
}

func (x *Media) OnVolumeChange(element engine.MediaElement, volume float64, muted bool) {
	x.mu.Lock()
	x.volume, x.muted = volume, muted
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnVolumeChange(element, volume, muted) })
}

func (x *Media) OnFullscreenChange(element engine.MediaElement, fullscreen bool) {
	x.mu.Lock()
	x.fullscreen = fullscreen
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnFullscreenChange(element, fullscreen) })
}

func (x *Media) OnError(element engine.MediaElement, code int) {
	x.mu.Lock()
	x.errorCode = code
	x.mu.Unlock()
	x.listeners.Dispatch(func(l engine.MediaElementDelegate) { l.OnError(element, code) })
}
