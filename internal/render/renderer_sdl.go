//go:build sdl

package render

import (
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

type sdlState struct {
	initialized bool
	window      *sdl.Window
	renderer    *sdl.Renderer
	texture     *sdl.Texture
	pixelBuffer []byte
	width       int
	height      int
	pitch       int
	windowTitle string
}

func (r *Renderer) initSDL(width, height int) error {
	if r.sdl != nil {
		r.mode = backendSDL
		r.useANSI = false
		return nil
	}
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return err
	}
	r.sdl = &sdlState{
		initialized: true,
	}
	r.mode = backendSDL
	r.useANSI = false
	return nil
}

func (r *Renderer) ensureSDLResources() error {
	if r.sdl == nil {
		return fmt.Errorf("SDL backend not initialized")
	}
	state := r.sdl
	if !state.initialized {
		if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
			return err
		}
		state.initialized = true
	}
	if state.window == nil {
		window, err := sdl.CreateWindow(
			"bassync spectrogram",
			sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
			int32(r.width), int32(r.height),
			sdl.WINDOW_SHOWN,
		)
		if err != nil {
			return err
		}
		state.window = window
	}
	if state.renderer == nil {
		renderer, err := sdl.CreateRenderer(state.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
		if err != nil {
			return err
		}
		state.renderer = renderer
		_ = renderer.SetLogicalSize(int32(r.width), int32(r.height))
	}
	if state.texture == nil || state.width != r.width || state.height != r.height {
		if state.texture != nil {
			state.texture.Destroy()
			state.texture = nil
		}
		tex, err := state.renderer.CreateTexture(
			sdl.PIXELFORMAT_ABGR8888,
			sdl.TEXTUREACCESS_STREAMING,
			int32(r.width), int32(r.height),
		)
		if err != nil {
			return err
		}
		state.texture = tex
		state.width = r.width
		state.height = r.height
		state.pitch = r.width * 4
		state.pixelBuffer = make([]byte, state.pitch*r.height)
	} else if len(state.pixelBuffer) != state.pitch*r.height {
		state.pixelBuffer = make([]byte, state.pitch*r.height)
	}
	return nil
}

// renderSDL paints one pixel per (column, row) of the waterfall, newest row
// on top, with a meter strip along the bottom.
func (r *Renderer) renderSDL(v View) Frame {
	if err := r.ensureSDLResources(); err != nil {
		return Frame{
			Status: fmt.Sprintf("SDL init error: %v", err),
			Present: func(string) error {
				return err
			},
		}
	}
	state := r.sdl
	width := r.width
	height := r.height
	pitch := state.pitch

	meterRows := height / 16
	if meterRows < 2 {
		meterRows = 2
	}
	specRows := height - meterRows
	level := v.State.Energy
	top := math.Max(v.State.Config.ThresholdHigh*1.5, level)
	fill := 0
	if top > 0 {
		fill = int(level / top * float64(width))
	}

	for y := 0; y < height; y++ {
		rowOffset := y * pitch
		var row []float64
		if idx := len(v.Rows) - 1 - y*len(v.Rows)/max(specRows, 1); y < specRows && idx >= 0 && idx < len(v.Rows) {
			row = v.Rows[idx]
		}
		for x := 0; x < width; x++ {
			var h, s, val float64
			switch {
			case y >= specRows:
				h, s = levelHue(v.State.Level), 0.9
				if x < fill {
					val = 1
				} else {
					val = 0.08
				}
			case len(row) == 0:
			default:
				bin := r.binAt(x, len(row))
				h, s, val = r.cellColor(bin, intensity(row[bin]), v)
				val *= intensity(row[bin])
			}
			rr, gg, bb := hsvToRGB(h, s, val)
			offset := rowOffset + x*4
			state.pixelBuffer[offset+0] = byte(clampFloat(rr*255, 0, 255))
			state.pixelBuffer[offset+1] = byte(clampFloat(gg*255, 0, 255))
			state.pixelBuffer[offset+2] = byte(clampFloat(bb*255, 0, 255))
			state.pixelBuffer[offset+3] = 255
		}
	}

	status := fmt.Sprintf("bassync | %s energy %.3f | events %d peaks %d",
		v.State.Level, v.State.Energy, v.State.EventCount, v.State.PeakCount)

	return Frame{
		Status: status,
		Present: func(status string) error {
			if status != "" && status != state.windowTitle && state.window != nil {
				state.window.SetTitle(status)
				state.windowTitle = status
			}
			if err := state.texture.Update(nil, state.pixelBuffer, state.pitch); err != nil {
				return err
			}
			if err := state.renderer.Clear(); err != nil {
				return err
			}
			if err := state.renderer.Copy(state.texture, nil, nil); err != nil {
				return err
			}
			state.renderer.Present()
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch event.(type) {
				case *sdl.QuitEvent:
					return ErrRendererQuit
				}
			}
			return nil
		},
	}
}

func (r *Renderer) resizeSDL() {
	if r.sdl == nil {
		return
	}
	r.sdl.width = 0
	r.sdl.height = 0
}

func (r *Renderer) closeSDL() error {
	if r.sdl == nil {
		return nil
	}
	if r.sdl.texture != nil {
		r.sdl.texture.Destroy()
		r.sdl.texture = nil
	}
	if r.sdl.renderer != nil {
		r.sdl.renderer.Destroy()
		r.sdl.renderer = nil
	}
	if r.sdl.window != nil {
		r.sdl.window.Destroy()
		r.sdl.window = nil
	}
	r.sdl.pixelBuffer = nil
	if r.sdl.initialized {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		r.sdl.initialized = false
	}
	r.sdl = nil
	r.mode = backendANSI
	return nil
}

func SupportsSDL() bool { return true }
