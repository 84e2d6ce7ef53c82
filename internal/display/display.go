// Package display shows short status messages on the board's LED matrix,
// or on a terminal when the board has none.
package display

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Display shows short messages
type Display interface {
	ShowMessage(ctx context.Context, msg string) error
	Clear() error
}

// Terminal renders messages as a framed LED-style banner
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	style lipgloss.Style
	width int
}

// NewTerminal writes banners to w
func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:     w,
		width: 24,
		style: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Padding(0, 1),
	}
}

func (t *Terminal) ShowMessage(ctx context.Context, msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, t.style.Width(t.width).Render(msg))
	return err
}

// Clear prints an empty frame
func (t *Terminal) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.w, t.style.Width(t.width).Render(""))
	return err
}
