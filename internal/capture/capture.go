// Package capture defines the collaborator that supplies page state for each
// recorded step, plus a few stand-in implementations for runs without a
// browser.
package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
)

// BlankLocator is the page locator reported by Blank.
const BlankLocator = "about:blank"

// Capturer returns the current page locator and a screenshot on request.
// Both calls are made once per recorded step.
type Capturer interface {
	CurrentPageLocator(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// PageSourceCapturer is implemented by capturers that can also return the
// page markup.
type PageSourceCapturer interface {
	PageSource(ctx context.Context) (string, error)
}

// ErrUnsupported is returned by Funcs for an unset function.
var ErrUnsupported = errors.New("capture not supported")

// Funcs adapts plain functions to Capturer and PageSourceCapturer. A nil
// function returns ErrUnsupported.
type Funcs struct {
	Locator    func(ctx context.Context) (string, error)
	Shot       func(ctx context.Context) ([]byte, error)
	SourceFunc func(ctx context.Context) (string, error)
}

// CurrentPageLocator implements Capturer.
func (f Funcs) CurrentPageLocator(ctx context.Context) (string, error) {
	if f.Locator == nil {
		return "", ErrUnsupported
	}
	return f.Locator(ctx)
}

// Screenshot implements Capturer.
func (f Funcs) Screenshot(ctx context.Context) ([]byte, error) {
	if f.Shot == nil {
		return nil, ErrUnsupported
	}
	return f.Shot(ctx)
}

// PageSource implements PageSourceCapturer.
func (f Funcs) PageSource(ctx context.Context) (string, error) {
	if f.SourceFunc == nil {
		return "", ErrUnsupported
	}
	return f.SourceFunc(ctx)
}

// Static always reports the same page and image.
type Static struct {
	Locator string
	PNG     []byte
	Source  string
}

// CurrentPageLocator implements Capturer.
func (s Static) CurrentPageLocator(context.Context) (string, error) {
	return s.Locator, nil
}

// Screenshot implements Capturer.
func (s Static) Screenshot(context.Context) ([]byte, error) {
	return bytes.Clone(s.PNG), nil
}

// PageSource implements PageSourceCapturer.
func (s Static) PageSource(context.Context) (string, error) {
	return s.Source, nil
}

// Blank is a Capturer for runs with no browser: it reports about:blank and a
// 1x1 transparent PNG.
type Blank struct{}

// CurrentPageLocator implements Capturer.
func (Blank) CurrentPageLocator(context.Context) (string, error) {
	return BlankLocator, nil
}

// Screenshot implements Capturer.
func (Blank) Screenshot(context.Context) ([]byte, error) {
	return BlankPNG(), nil
}

var blankPNG = sync.OnceValue(func() []byte {
	var buf bytes.Buffer
	// Encoding an in-memory 1x1 image cannot fail.
	_ = png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	return buf.Bytes()
})

// BlankPNG returns a fresh copy of a 1x1 transparent PNG.
func BlankPNG() []byte {
	return bytes.Clone(blankPNG())
}
