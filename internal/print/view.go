// Package print hands rendered drafts to a print facility and keeps track of
// which view is showing while a job runs.
package print

import "sync"

// Mode is what the page is currently showing.
type Mode string

const (
	ModeNormal      Mode = "normal"
	ModePrintSingle Mode = "print-single"
	ModePrintAll    Mode = "print-all"
)

// View holds the current view mode and the markup a print mode shows.
type View struct {
	mu      sync.Mutex
	mode    Mode
	content string
}

func NewView() *View {
	return &View{mode: ModeNormal}
}

func (v *View) Mode() Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *View) Content() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

// Prepare switches to mode with content and returns the function that puts
// the previous view back. The restore function is safe to call more than once.
func (v *View) Prepare(mode Mode, content string) (restore func()) {
	v.mu.Lock()
	prevMode, prevContent := v.mode, v.content
	v.mode, v.content = mode, content
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			v.mode, v.content = prevMode, prevContent
			v.mu.Unlock()
		})
	}
}
