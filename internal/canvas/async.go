package canvas

import (
	"context"
	"errors"

	"github.com/dedbin/rimo/internal/board"
)

// spawn runs network work off the interaction path. work returns the
// completion to run back on the engine goroutine, or nil.
func (e *Engine) spawn(work func(ctx context.Context) func()) {
	go func() {
		done := work(e.ctx)
		if done == nil {
			return
		}
		select {
		case e.completions <- done:
		case <-e.ctx.Done():
		}
	}()
}

// RunPending applies finished async work. Call it from the engine goroutine,
// typically once per frame. It returns how many completions ran.
func (e *Engine) RunPending() int {
	n := 0
	for {
		select {
		case done := <-e.completions:
			done()
			n++
		default:
			return n
		}
	}
}

// WaitPending blocks until one async completion is available and runs it.
func (e *Engine) WaitPending(ctx context.Context) error {
	select {
	case done := <-e.completions:
		done()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return errors.New("engine closed")
	}
}

func (e *Engine) networkFailure(err *NetworkError, message string) {
	e.log.Warn("canvas network request failed", "op", err.Op, "error", err.Err)
	e.notify(NoticeError, message)
}

func (e *Engine) fetchPreview(url string, at board.Point) {
	if e.previews == nil {
		e.networkFailure(&NetworkError{Op: "fetch preview", Err: errors.New("no preview fetcher configured")}, "could not load the link preview")
		return
	}
	e.spawn(func(ctx context.Context) func() {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.PreviewTimeout)
		defer cancel()

		meta, err := e.previews.Fetch(ctx, url)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return func() {
				e.networkFailure(&NetworkError{Op: "fetch preview", Err: err}, "could not load the link preview")
			}
		}
		return func() {
			_, _ = e.InsertLinkPreview(url, at, meta)
		}
	})
}

func (e *Engine) uploadImage(data []byte, mime string, at board.Point) {
	if e.uploader == nil {
		e.networkFailure(&NetworkError{Op: "upload image", Err: errors.New("no uploader configured")}, "could not upload the image")
		return
	}
	e.spawn(func(ctx context.Context) func() {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.UploadTimeout)
		defer cancel()

		url, err := e.uploader.Upload(ctx, data, mime)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return func() {
				e.networkFailure(&NetworkError{Op: "upload image", Err: err}, "could not upload the image")
			}
		}
		return func() {
			_, _ = e.InsertImage(url, at)
		}
	})
}

// UploadImage uploads binary image data and places it at a world position
// once the upload finishes.
func (e *Engine) UploadImage(data []byte, mime string, at board.Point) {
	e.uploadImage(data, mime, at)
}
