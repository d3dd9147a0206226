package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	hostMu   sync.Mutex
	hostRefs int
)

// Acquire initializes PortAudio on first use and returns a release func that
// terminates it once every capture and playback stream has let go.
func Acquire() (release func(), err error) {
	hostMu.Lock()
	defer hostMu.Unlock()

	if hostRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("initialize portaudio: %w", err)
		}
	}
	hostRefs++

	var once sync.Once
	return func() {
		once.Do(func() {
			hostMu.Lock()
			defer hostMu.Unlock()
			hostRefs--
			if hostRefs == 0 {
				_ = portaudio.Terminate()
			}
		})
	}, nil
}
