package app

import (
	"context"
	"sync"
	"unicode"

	"github.com/eiannone/keyboard"

	"github.com/guidoenr/bassync/internal/config"
)

const (
	thresholdStep = 0.01
	peakStep      = 0.05
)

type keyAction int

const (
	actionNudge keyAction = iota
	actionTogglePeak
	actionSave
	actionQuit
)

// binding is what one key does to the session.
type binding struct {
	action keyAction
	field  config.Field
	delta  float64
}

var keyBindings = map[rune]binding{
	'a': {action: actionNudge, field: config.FieldLow, delta: thresholdStep},
	'z': {action: actionNudge, field: config.FieldLow, delta: -thresholdStep},
	's': {action: actionNudge, field: config.FieldMedium, delta: thresholdStep},
	'x': {action: actionNudge, field: config.FieldMedium, delta: -thresholdStep},
	'd': {action: actionNudge, field: config.FieldHigh, delta: thresholdStep},
	'c': {action: actionNudge, field: config.FieldHigh, delta: -thresholdStep},
	']': {action: actionNudge, field: config.FieldPeakThreshold, delta: peakStep},
	'[': {action: actionNudge, field: config.FieldPeakThreshold, delta: -peakStep},
	'p': {action: actionTogglePeak},
	'w': {action: actionSave},
	'q': {action: actionQuit},
}

func lookupKey(char rune, key keyboard.Key) (binding, bool) {
	if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC {
		return binding{action: actionQuit}, true
	}
	b, ok := keyBindings[unicode.ToLower(char)]
	return b, ok
}

// startInputListener turns key presses into controls for the frame loop.
func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return
	}

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			b, ok := lookupKey(char, key)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case a.controls <- a.bindingControl(b):
			}
			if b.action == actionQuit {
				return
			}
		}
	}()
}

// bindingControl builds the frame-loop closure for a key binding.
func (a *App) bindingControl(b binding) control {
	switch b.action {
	case actionQuit:
		return func() error { return errQuit }
	case actionSave:
		return func() error {
			path, err := a.SaveConfig()
			if err != nil {
				return err
			}
			a.log.Printf("config saved to %s", path)
			return nil
		}
	case actionTogglePeak:
		return a.configControl(func(c *config.BassConfig) { c.TogglePeak() })
	default:
		return a.configControl(func(c *config.BassConfig) { c.Nudge(b.field, b.delta) })
	}
}
