// internal/browser/devices.go
package browser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chromedp/chromedp/device"
)

// emulatedDevices maps friendly names to chromedp device profiles.
var emulatedDevices = map[string]device.Info{
	"iphone 7":  device.IPhone7.Device(),
	"iphone x":  device.IPhoneX.Device(),
	"ipad":      device.IPad.Device(),
	"pixel 2":   device.Pixel2.Device(),
	"galaxy s5": device.GalaxyS5.Device(),
}

// LookupDevice resolves a device name (case-insensitive) to its profile.
func LookupDevice(name string) (device.Info, error) {
	d, ok := emulatedDevices[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return device.Info{}, fmt.Errorf("unknown device %q, available: %s", name, strings.Join(DeviceNames(), ", "))
	}
	return d, nil
}

// DeviceNames lists the supported emulation profiles.
func DeviceNames() []string {
	names := make([]string, 0, len(emulatedDevices))
	for name := range emulatedDevices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
