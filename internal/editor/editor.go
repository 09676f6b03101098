// Package editor defines the rich-text editor a page drives and an in-memory
// implementation of it.
package editor

import (
	"slices"
	"sync"

	"github.com/allgemeinbildung/abubox/internal/autosave"
	"github.com/allgemeinbildung/abubox/internal/markup"
)

// Editor is one text slot of a page.
type Editor interface {
	// PlainText is the visible text without markup.
	PlainText() string
	// Markup is the current content as HTML.
	Markup() string
	// SetMarkup replaces the content and notifies listeners with origin.
	SetMarkup(html string, origin autosave.Origin)
	// OnChange registers fn to be called after every observed change.
	OnChange(fn func(origin autosave.Origin))
}

// Buffer is an Editor held in memory. Listeners run synchronously on the
// goroutine that called SetMarkup, after the buffer lock is released.
type Buffer struct {
	mu        sync.RWMutex
	html      string
	listeners []func(autosave.Origin)
}

var _ Editor = (*Buffer)(nil)

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Markup() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.html
}

func (b *Buffer) PlainText() string {
	return markup.PlainText(b.Markup())
}

// SetMarkup stores html. Silent changes are not reported to listeners.
func (b *Buffer) SetMarkup(html string, origin autosave.Origin) {
	b.mu.Lock()
	b.html = html
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	if origin == autosave.OriginSilent {
		return
	}
	for _, fn := range listeners {
		fn(origin)
	}
}

func (b *Buffer) OnChange(fn func(origin autosave.Origin)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}
