package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device describes one host audio device in a form the CLI and the
// TUI picker can render without touching PortAudio types.
type Device struct {
	ID                      int
	Name                    string
	MaxInputChannels        int
	MaxOutputChannels       int
	DefaultSampleRate       float64
	DefaultLowInputLatency  time.Duration
	DefaultHighInputLatency time.Duration

	info *portaudio.DeviceInfo
}

// IsInput reports whether the device can capture.
func (d Device) IsInput() bool { return d.MaxInputChannels > 0 }

// Kind returns "Input", "Output" or "Input/Output".
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// Library seams, swapped out in tests so device logic is testable
// without audio hardware.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
)

// paDevicesFunc sits above paLibDevicesFunc so higher-level failures
// can be injected independently of the raw library call.
var paDevicesFunc = paDevices

// Initialize sets up the PortAudio subsystem. Must be called before
// any capture operation and paired with Terminate.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// paDevices returns all PortAudio devices, never nil on success.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}

// HostDevices enumerates the host's audio devices. IDs are positional
// and stable for the lifetime of the PortAudio session.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = deviceFromInfo(i, info)
	}
	return devices, nil
}

// InputDevice resolves deviceID to a capture-capable device. An ID of
// -1 selects the system default input device.
func InputDevice(deviceID int) (Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return Device{}, err
	}

	if deviceID == -1 {
		info, err := paLibDefaultInputDeviceFunc()
		if err != nil {
			return Device{}, err
		}
		for i, candidate := range infos {
			if candidate == info || candidate.Name == info.Name {
				return deviceFromInfo(i, info), nil
			}
		}
		return deviceFromInfo(-1, info), nil
	}

	if deviceID < 0 || deviceID >= len(infos) {
		return Device{}, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	dev := deviceFromInfo(deviceID, infos[deviceID])
	if !dev.IsInput() {
		return Device{}, fmt.Errorf("device %d (%s) does not support input", deviceID, dev.Name)
	}
	return dev, nil
}

// ListDevices prints all host devices with their capabilities, used
// by the list subcommand.
func ListDevices() error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Printf("\nAvailable Audio Devices\n\n")

	for _, d := range devices {
		fmt.Printf("[%d] %s (%s)\n", d.ID, d.Name, d.Kind())
		fmt.Printf("    Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Printf("    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Printf("    Latency: Low=%.2fms, High=%.2fms\n",
			d.DefaultLowInputLatency.Seconds()*1000,
			d.DefaultHighInputLatency.Seconds()*1000)
		fmt.Println()
	}

	return nil
}

func deviceFromInfo(id int, info *portaudio.DeviceInfo) Device {
	return Device{
		ID:                      id,
		Name:                    info.Name,
		MaxInputChannels:        info.MaxInputChannels,
		MaxOutputChannels:       info.MaxOutputChannels,
		DefaultSampleRate:       info.DefaultSampleRate,
		DefaultLowInputLatency:  info.DefaultLowInputLatency,
		DefaultHighInputLatency: info.DefaultHighInputLatency,
		info:                    info,
	}
}
