// Package classify turns a raw tag map into what a person should look at:
// a short list of labelled, risk-rated fields and the full tag table.
//
// Classification is a pure function of its input.
package classify

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
)

// DateLayout renders time values.
const DateLayout = "2006-01-02 15:04:05"

// Field categories.
const (
	CatLocation = "location"
	CatTime     = "time"
	CatDevice   = "device"
	CatCamera   = "camera"
	CatOther    = "other"
)

// Classification is the display projection of one tag map.
type Classification struct {
	Fields  []core.MetaField `json:"fields"`
	All     []core.TagRow    `json:"all"`
	ShowAll bool             `json:"show_all"`
}

var orientations = map[int]string{
	1: "Normal",
	2: "Mirrored",
	3: "Rotated 180°",
	4: "Mirrored + 180°",
	5: "Mirrored + 90° CW",
	6: "Rotated 90° CW",
	7: "Mirrored + 90° CCW",
	8: "Rotated 90° CCW",
}

// Classify builds curated fields and the exhaustive tag table from tags.
// A nil map yields an empty classification.
func Classify(tags core.Tags) Classification {
	all := AllTags(tags)
	return Classification{
		Fields:  Fields(tags),
		All:     all,
		ShowAll: len(all) > 0,
	}
}

// Fields returns the curated fields present in tags, in display order.
func Fields(t core.Tags) []core.MetaField {
	out := []core.MetaField{}
	add := func(label, value, category string, risk core.Risk) {
		out = append(out, core.MetaField{Label: label, Value: value, Category: category, Risk: risk})
	}

	// Presence, not truthiness: 0° is a real coordinate.
	lat, latOK := number(t["latitude"])
	lon, lonOK := number(t["longitude"])
	if latOK && lonOK {
		add("GPS Location", FormatGPS(lat, str(t["GPSLatitudeRef"]), lon, str(t["GPSLongitudeRef"])), CatLocation, core.RiskHigh)
	}

	switch {
	case truthy(t["DateTimeOriginal"]):
		add("Date Taken", FormatValue(t["DateTimeOriginal"]), CatTime, core.RiskHigh)
	case truthy(t["CreateDate"]):
		add("Date Created", FormatValue(t["CreateDate"]), CatTime, core.RiskHigh)
	}
	if truthy(t["ModifyDate"]) && FormatValue(t["ModifyDate"]) != FormatValue(t["DateTimeOriginal"]) {
		add("Last Modified", FormatValue(t["ModifyDate"]), CatTime, core.RiskMedium)
	}

	var device []string
	for _, k := range []string{"Make", "Model"} {
		if truthy(t[k]) {
			device = append(device, FormatValue(t[k]))
		}
	}
	if len(device) > 0 {
		add("Camera/Device", strings.Join(device, " "), CatDevice, core.RiskMedium)
	}
	if truthy(t["Software"]) {
		add("Software", FormatValue(t["Software"]), CatDevice, core.RiskLow)
	}

	switch {
	case truthy(t["Artist"]):
		add("Author", FormatValue(t["Artist"]), CatOther, core.RiskHigh)
	case truthy(t["Author"]):
		add("Author", FormatValue(t["Author"]), CatOther, core.RiskHigh)
	}
	if truthy(t["Copyright"]) {
		add("Copyright", FormatValue(t["Copyright"]), CatOther, core.RiskMedium)
	}

	if v, ok := number(t["ExposureTime"]); ok && v != 0 {
		add("Shutter Speed", FormatExposure(v), CatCamera, core.RiskLow)
	}
	if v, ok := number(t["FNumber"]); ok && v != 0 {
		add("Aperture", "f/"+plain(v), CatCamera, core.RiskLow)
	}
	if truthy(t["ISO"]) {
		add("ISO", FormatValue(t["ISO"]), CatCamera, core.RiskLow)
	}
	if v, ok := number(t["FocalLength"]); ok && v != 0 {
		add("Focal Length", plain(v)+"mm", CatCamera, core.RiskLow)
	}

	switch {
	case truthy(t["ImageWidth"]) && truthy(t["ImageHeight"]):
		add("Dimensions", dims(t["ImageWidth"], t["ImageHeight"]), CatOther, core.RiskLow)
	case truthy(t["ExifImageWidth"]) && truthy(t["ExifImageHeight"]):
		add("Dimensions", dims(t["ExifImageWidth"], t["ExifImageHeight"]), CatOther, core.RiskLow)
	}

	if cs := t["ColorSpace"]; truthy(cs) {
		value := FormatValue(cs)
		if n, ok := number(cs); ok && n == 1 {
			value = "sRGB"
		}
		add("Color Space", value, CatOther, core.RiskLow)
	}

	if o := t["Orientation"]; truthy(o) {
		value := FormatValue(o)
		if n, ok := number(o); ok && n == math.Trunc(n) {
			if s, ok := orientations[int(n)]; ok {
				value = s
			}
		}
		add("Orientation", value, CatOther, core.RiskLow)
	}
	return out
}

// AllTags returns every non-nil tag as a display row, sorted by key.
func AllTags(t core.Tags) []core.TagRow {
	rows := make([]core.TagRow, 0, len(t))
	for k, v := range t {
		if v == nil {
			continue
		}
		rows = append(rows, core.TagRow{Key: k, Value: FormatValue(v)})
	}
	slices.SortFunc(rows, func(a, b core.TagRow) int {
		if c := strings.Compare(strings.ToLower(a.Key), strings.ToLower(b.Key)); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return rows
}

// FormatGPS renders absolute coordinates with hemisphere letters. Missing
// or unrecognised references default to N and E.
func FormatGPS(lat float64, latRef string, lon float64, lonRef string) string {
	latDir, lonDir := "N", "E"
	if strings.EqualFold(strings.TrimSpace(latRef), "S") {
		latDir = "S"
	}
	if strings.EqualFold(strings.TrimSpace(lonRef), "W") {
		lonDir = "W"
	}
	return fmt.Sprintf("%.4f° %s, %.4f° %s", math.Abs(lat), latDir, math.Abs(lon), lonDir)
}

// FormatExposure renders seconds as "2s" or a reciprocal "1/1180s". The
// denominator is truncated after absorbing float noise, so 0.000847 reads
// 1/1180 and 0.008 reads 1/125.
func FormatExposure(v float64) string {
	if v >= 1 {
		return plain(v) + "s"
	}
	return fmt.Sprintf("1/%ds", int64(math.Floor(1/v+1e-6)))
}

// FormatValue renders any tag value: integers as-is, other numbers to two
// decimals, lists comma-joined, times with DateLayout.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(DateLayout)
	case []string:
		return strings.Join(x, ", ")
	case []int:
		return joinAny(x)
	case []float64:
		return joinAny(x)
	case []any:
		return joinAny(x)
	}
	if n, ok := number(v); ok {
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return strconv.FormatFloat(n, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}

func joinAny[T any](xs []T) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = FormatValue(x)
	}
	return strings.Join(parts, ", ")
}

func dims(w, h any) string {
	return FormatValue(w) + " × " + FormatValue(h)
}

// plain renders a number the shortest way that round-trips ("2.8", "50").
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	}
	return 0, false
}

// truthy reports whether v counts as present: not nil, not zero, not empty.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case time.Time:
		return !x.IsZero()
	}
	if n, ok := number(v); ok {
		return n != 0
	}
	return true
}
