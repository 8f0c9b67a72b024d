package utils

import (
	"fmt"

	"github.com/avct/uasurfer"
)

type UserAgentInfo struct {
	Device  string
	OS      string
	Browser string
}

// ParseUserAgent classifies a User-Agent string for event metadata.
// Returns nil for user agents with an unrecognizable device class, which
// is itself a weak bot signal.
func ParseUserAgent(uaString string) *UserAgentInfo {
	ua := uasurfer.Parse(uaString)

	device := ""
	switch ua.DeviceType {
	case uasurfer.DeviceComputer:
		device = "Computer"
	case uasurfer.DeviceTablet:
		device = "Tablet"
	case uasurfer.DevicePhone:
		device = "Phone"
	case uasurfer.DeviceConsole:
		device = "Console"
	case uasurfer.DeviceWearable:
		device = "Wearable"
	case uasurfer.DeviceTV:
		device = "TV"
	default:
		return nil
	}

	return &UserAgentInfo{
		Device:  device,
		OS:      fmt.Sprintf("%s %d.%d", ua.OS.Name.String(), ua.OS.Version.Major, ua.OS.Version.Minor),
		Browser: fmt.Sprintf("%s %d.%d", ua.Browser.Name.String(), ua.Browser.Version.Major, ua.Browser.Version.Minor),
	}
}
