package link

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortDescriptor identifies a candidate serial device. Only Device is
// meaningful to the driver; the other fields are human-readable context from
// the OS enumeration.
type PortDescriptor struct {
	// Device is the OS path, e.g. /dev/ttyACM0 or /dev/cu.usbmodem1301
	Device string

	// Description is the OS-reported product description
	Description string

	// Manufacturer is the vendor name, derived from the USB vendor ID when
	// the OS does not report one directly
	Manufacturer string
}

// USB vendor IDs (lowercase hex) for boards that ship MicroPython.
var knownVendors = map[string]string{
	"2e8a": "Raspberry Pi",
	"f055": "MicroPython",
}

// Keyword heuristics for recognizing MicroPython boards among enumerated
// ports. Matching is best-effort; a generic USB serial adapter can match.
var (
	descriptionKeywords  = []string{"micropython", "pico", "rp2040", "usb serial"}
	manufacturerKeywords = []string{"raspberry", "pico", "micropython"}
	deviceKeywords       = []string{"usbmodem", "usbserial", "ttyacm"}
)

// FindPicoPorts enumerates serial ports and returns those that look like a
// MicroPython board, judged by description, manufacturer, or device name.
func FindPicoPorts() ([]PortDescriptor, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	candidates := make([]PortDescriptor, 0, len(details))
	for _, d := range details {
		candidates = append(candidates, PortDescriptor{
			Device:       d.Name,
			Description:  d.Product,
			Manufacturer: vendorName(d.VID),
		})
	}
	return filterPicoPorts(candidates), nil
}

// vendorName maps a USB vendor ID to a vendor name, falling back to the raw
// ID for unknown vendors.
func vendorName(vid string) string {
	if name, ok := knownVendors[strings.ToLower(vid)]; ok {
		return name
	}
	return vid
}

// filterPicoPorts keeps descriptors matching the board heuristics.
func filterPicoPorts(all []PortDescriptor) []PortDescriptor {
	var matched []PortDescriptor
	for _, p := range all {
		if matchesPico(p) {
			matched = append(matched, p)
		}
	}
	return matched
}

func matchesPico(p PortDescriptor) bool {
	desc := strings.ToLower(p.Description)
	for _, kw := range descriptionKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}

	manu := strings.ToLower(p.Manufacturer)
	for _, kw := range manufacturerKeywords {
		if strings.Contains(manu, kw) {
			return true
		}
	}

	dev := strings.ToLower(p.Device)
	for _, kw := range deviceKeywords {
		if strings.Contains(dev, kw) {
			return true
		}
	}
	return false
}
