package render

import (
	"vast/config"
	"vast/env"

	"github.com/rs/zerolog/log"
)

type Renderer interface {
	// Render is called once per environment step
	Render(e env.Environment)
	Close() error
}

// NewRenderer returns a text renderer when rendering is enabled, otherwise a
// renderer that does nothing.
func NewRenderer(params config.Params) Renderer {
	if !params.Render {
		return NewNoopRenderer()
	}
	return NewTextRenderer(params.RenderEvery)
}

type noopRenderer struct{}

func NewNoopRenderer() Renderer {
	return noopRenderer{}
}

func (noopRenderer) Render(env.Environment) {}
func (noopRenderer) Close() error           { return nil }

// TextRenderer logs a text frame of the environment every n calls to Render.
// Environments that cannot draw themselves are skipped.
type TextRenderer struct {
	every  int
	calls  int
	frames int
}

func NewTextRenderer(every int) *TextRenderer {
	if every < 1 {
		every = 1
	}
	return &TextRenderer{every: every}
}

func (r *TextRenderer) Render(e env.Environment) {
	r.calls++
	if (r.calls-1)%r.every != 0 {
		return
	}
	framer, ok := e.(env.Framer)
	if !ok {
		return
	}
	r.frames++
	log.Debug().Int("frame", r.frames).Msg("\n" + framer.Frame())
}

// Frames reports how many frames were drawn.
func (r *TextRenderer) Frames() int {
	return r.frames
}

func (r *TextRenderer) Close() error {
	log.Debug().Msgf("renderer closed after %d frames", r.frames)
	return nil
}
