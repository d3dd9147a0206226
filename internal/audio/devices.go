package audio

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/gordonklaus/portaudio"
)

// Device describes a PortAudio device for listing.
type Device struct {
	Name            string
	HostAPI         string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	IsDefaultInput  bool
	IsDefaultOutput bool
}

// ListDevices returns every device across host APIs sorted by host then name.
// Acquire must have been called.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}
	return describe(hosts, defaultInputIndex()), nil
}

func describe(hosts []*portaudio.HostApiInfo, defaultInput int) []Device {
	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, Device{
				Name:            d.Name,
				HostAPI:         host.Name,
				MaxInput:        d.MaxInputChannels,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				IsDefaultInput:  d.Index == defaultInput,
				IsDefaultOutput: host.DefaultOutputDevice != nil && d.Index == host.DefaultOutputDevice.Index,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
	return devices
}

// WriteDevices prints a device table, marking defaults with '*'.
func WriteDevices(w io.Writer, devices []Device) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tDEVICE\tIN\tOUT\tRATE")
	for _, d := range devices {
		in := fmt.Sprint(d.MaxInput)
		if d.IsDefaultInput {
			in += "*"
		}
		out := fmt.Sprint(d.MaxOutput)
		if d.IsDefaultOutput {
			out += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\n", d.HostAPI, d.Name, in, out, d.DefaultSampleHz)
	}
	return tw.Flush()
}
