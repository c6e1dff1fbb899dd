package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
)

// Summary is the boolean-flag and attribute projection of a mark set,
// layered over document-style defaults.
type Summary struct {
	Bold      bool `json:"bold"`
	Italic    bool `json:"italic"`
	Underline bool `json:"underline"`
	Strike    bool `json:"strike"`

	// Color and Highlight are 6-digit lowercase hex without "#", or ""
	// when absent/unparseable.
	Color     string `json:"color,omitempty"`
	Highlight string `json:"highlight,omitempty"`

	FontFamily string `json:"font_family,omitempty"`

	// FontSize is in whole points. Run-level sources carry half-points
	// and are normalized on the way in.
	FontSize float64 `json:"font_size,omitempty"`
}

// Summarize projects a mark set into a Summary. Run-level textStyle
// attributes take precedence over docDefaults; run-level font sizes
// arrive as half-points (attr "sz") while docDefaults carry whole
// points (key "fontSize").
func Summarize(marks []doc.Mark, docDefaults map[string]any) Summary {
	var s Summary
	for _, m := range marks {
		switch m.Type {
		case "bold":
			s.Bold = true
		case "italic":
			s.Italic = true
		case "underline":
			s.Underline = true
		case "strike":
			s.Strike = true
		}
	}

	runAttrs := map[string]any{}
	for _, m := range marks {
		if m.Type == "textStyle" {
			for k, v := range m.Attrs {
				runAttrs[k] = v
			}
		}
	}

	s.Color = layerColor(runAttrs["color"], docDefaults["color"])
	s.Highlight = layerColor(runAttrs["highlight"], docDefaults["highlight"])

	if f, ok := runAttrs["fontFamily"].(string); ok && f != "" {
		s.FontFamily = f
	} else if f, ok := docDefaults["fontFamily"].(string); ok {
		s.FontFamily = f
	}

	// Half-point run size beats whole-point document size.
	if half, ok := toFloat(runAttrs["sz"]); ok {
		s.FontSize = half / 2
	} else if pts, ok := toFloat(docDefaults["fontSize"]); ok {
		s.FontSize = pts
	}
	return s
}

// layerColor prefers the run-level source over the document-style
// source; unparseable values fall through to the next source, and a
// fully unparseable stack is omitted.
func layerColor(runVal, docVal any) string {
	if sv, ok := runVal.(string); ok {
		if hex, ok := NormalizeColor(sv); ok {
			return hex
		}
	}
	if sv, ok := docVal.(string); ok {
		if hex, ok := NormalizeColor(sv); ok {
			return hex
		}
	}
	return ""
}

// namedColors is the fixed lookup table for color keywords.
var namedColors = map[string]string{
	"black":   "000000",
	"white":   "ffffff",
	"red":     "ff0000",
	"green":   "008000",
	"blue":    "0000ff",
	"yellow":  "ffff00",
	"cyan":    "00ffff",
	"magenta": "ff00ff",
	"gray":    "808080",
	"grey":    "808080",
	"orange":  "ffa500",
	"purple":  "800080",
}

// NormalizeColor normalizes a color value to 6-digit lowercase hex
// without the leading "#". Accepted inputs: "#rrggbb", "#rgb",
// bare hex of either length, "rgb(r,g,b)" with channels in 0..255,
// and a fixed set of color names. Unparseable input returns ok=false
// and is omitted rather than defaulted.
func NormalizeColor(input string) (string, bool) {
	v := strings.TrimSpace(strings.ToLower(input))
	if v == "" {
		return "", false
	}
	if hex, ok := namedColors[v]; ok {
		return hex, true
	}
	if strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")") {
		return normalizeRGB(v[4 : len(v)-1])
	}
	v = strings.TrimPrefix(v, "#")
	switch len(v) {
	case 6:
		if isHex(v) {
			return v, true
		}
	case 3:
		if isHex(v) {
			return string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]}), true
		}
	}
	return "", false
}

func normalizeRGB(body string) (string, bool) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return "", false
	}
	var channels [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return "", false
		}
		channels[i] = n
	}
	return fmt.Sprintf("%02x%02x%02x", channels[0], channels[1], channels[2]), true
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
