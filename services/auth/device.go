package auth

import (
	"github.com/mileusna/useragent"
	"github.com/tech-arch1tect/backoffice/services/account"
)

// DeviceMetadata describes the client from its User-Agent, then overlays
// whatever the client reported about itself.
func DeviceMetadata(userAgent string, reported map[string]any) account.Metadata {
	metadata := account.Metadata{
		"browser":     "Unknown Browser",
		"os":          "Unknown OS",
		"device_type": "Unknown",
	}

	if userAgent != "" {
		ua := useragent.Parse(userAgent)

		if ua.Name != "" {
			metadata["browser"] = joinVersion(ua.Name, ua.Version)
		}
		if ua.OS != "" {
			metadata["os"] = joinVersion(ua.OS, ua.OSVersion)
		}

		switch {
		case ua.Bot:
			metadata["device_type"] = "Bot"
		case ua.Mobile:
			metadata["device_type"] = "Mobile"
		case ua.Tablet:
			metadata["device_type"] = "Tablet"
		default:
			metadata["device_type"] = "Desktop"
		}

		if ua.Device != "" {
			metadata["device"] = ua.Device
		}
	}

	for key, value := range reported {
		metadata[key] = value
	}

	return metadata
}

func joinVersion(name, version string) string {
	if version == "" {
		return name
	}
	return name + " " + version
}
