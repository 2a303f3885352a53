// Package notice implements the board's single transient message area.
//
// A message replaces whatever was shown before and hides itself after a
// delay. Every Show stamps a new generation; a pending hide only applies to
// the generation that armed it, so an older message's timer can never hide a
// newer message.
package notice

import (
	"sync"
	"time"
)

// DefaultTimeout is how long a message stays visible.
const DefaultTimeout = 4 * time.Second

// Kind is the category of a message, used as its CSS class.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is the content of the message area.
type Message struct {
	Text    string `json:"text"`
	Kind    Kind   `json:"kind"`
	Visible bool   `json:"visible"`
	// Generation increases with every Show.
	Generation uint64 `json:"generation"`
}

// Class returns the CSS class list of the message element.
func (m Message) Class() string {
	class := "message"
	if m.Kind != "" {
		class += " " + string(m.Kind)
	}
	if !m.Visible {
		class += " hidden"
	}
	return class
}

// Timer is the subset of *time.Timer the Board uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Board holds the current message. It is safe for concurrent use.
type Board struct {
	timeout   time.Duration
	afterFunc AfterFunc

	mu      sync.Mutex
	current Message
	timer   Timer
}

// Option configures a Board.
type Option func(*Board)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithAfterFunc replaces the timer implementation, for tests.
func WithAfterFunc(f AfterFunc) Option {
	return func(b *Board) {
		b.afterFunc = f
	}
}

// New creates an empty Board.
func New(opts ...Option) *Board {
	b := &Board{
		timeout:   DefaultTimeout,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Show replaces the current message and arms its auto-hide.
func (b *Board) Show(text string, kind Kind) Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}

	gen := b.current.Generation + 1
	b.current = Message{
		Text:       text,
		Kind:       kind,
		Visible:    true,
		Generation: gen,
	}
	b.timer = b.afterFunc(b.timeout, func() { b.hide(gen) })
	return b.current
}

// hide hides the current message if it is still generation gen.
func (b *Board) hide(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current.Generation != gen {
		return
	}
	b.current.Visible = false
	b.timer = nil
}

// Current returns the message area state.
func (b *Board) Current() Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
