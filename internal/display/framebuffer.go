package display

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

const (
	// DefaultFramebuffer is where the Sense HAT matrix usually appears
	DefaultFramebuffer = "/dev/fb1"

	matrixPixels = 8 * 8
	bytesPerPix  = 2 // RGB565
)

// Framebuffer drives the Sense HAT 8x8 LED matrix. Scrolling text is left
// to the vendor tooling: a message lights the matrix for Hold and is logged.
type Framebuffer struct {
	mu     sync.Mutex
	f      *os.File
	Colour uint16 // RGB565
	Hold   time.Duration
}

// OpenFramebuffer opens the matrix device for writing
func OpenFramebuffer(path string) (*Framebuffer, error) {
	if path == "" {
		path = DefaultFramebuffer
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open LED matrix %s: %w", path, err)
	}
	return &Framebuffer{f: f, Colour: RGB565(255, 0, 0), Hold: time.Second}, nil
}

// RGB565 packs an 8-bit colour into the matrix pixel format
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func (fb *Framebuffer) ShowMessage(ctx context.Context, msg string) error {
	log.Printf("Display: %s", msg)
	if err := fb.fill(fb.Colour); err != nil {
		return err
	}
	if fb.Hold > 0 {
		t := time.NewTimer(fb.Hold)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	return fb.fill(0)
}

// Clear turns every pixel off
func (fb *Framebuffer) Clear() error {
	return fb.fill(0)
}

// Close clears the matrix and releases the device
func (fb *Framebuffer) Close() error {
	clearErr := fb.Clear()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if err := fb.f.Close(); err != nil {
		return err
	}
	return clearErr
}

func (fb *Framebuffer) fill(colour uint16) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	buf := make([]byte, matrixPixels*bytesPerPix)
	for i := 0; i < matrixPixels; i++ {
		binary.LittleEndian.PutUint16(buf[i*bytesPerPix:], colour)
	}
	if _, err := fb.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("failed to write LED matrix: %w", err)
	}
	return nil
}
