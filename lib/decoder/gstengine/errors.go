package gstengine

import "strings"

// Category is reported as the subcode of decoder errors
type Category int

const (
	CategoryUnknown Category = iota
	CategoryResource
	CategoryCodec
)

func (c Category) String() string {
	switch c {
	case CategoryResource:
		return "resource"
	case CategoryCodec:
		return "codec"
	default:
		return "unknown"
	}
}

var (
	codecKeywords = []string{
		"decode",
		"codec",
		"caps",
		"negotiat",
		"format",
		"demux",
		"no suitable plugins",
	}
	resourceKeywords = []string{
		"not found",
		"could not open",
		"could not read",
		"permission denied",
		"resource",
	}
)

// Classify sorts a GStreamer error message into a Category.
// go-gst does not expose the GError domain, so this goes by keywords.
func Classify(message, debug string) Category {
	combined := strings.ToLower(message + " " + debug)
	for _, kw := range codecKeywords {
		if strings.Contains(combined, kw) {
			return CategoryCodec
		}
	}
	for _, kw := range resourceKeywords {
		if strings.Contains(combined, kw) {
			return CategoryResource
		}
	}
	return CategoryUnknown
}
