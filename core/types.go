// Package core defines the shared types, option keys, format registry and
// error values for picscrub.
package core

import "sort"

// OptionKey names one of the fixed "preserve" toggles understood by the
// cleaning engine.
type OptionKey string

const (
	PreserveColorProfile OptionKey = "preserveColorProfile"
	PreserveOrientation  OptionKey = "preserveOrientation"
	PreserveCopyright    OptionKey = "preserveCopyright"
	PreserveTitle        OptionKey = "preserveTitle"
	PreserveDescription  OptionKey = "preserveDescription"
)

// OptionKeys lists every known option in display order.
var OptionKeys = []OptionKey{
	PreserveColorProfile,
	PreserveOrientation,
	PreserveCopyright,
	PreserveTitle,
	PreserveDescription,
}

// OptionLabels holds the human label for each option.
var OptionLabels = map[OptionKey]string{
	PreserveColorProfile: "Keep color profile",
	PreserveOrientation:  "Keep orientation",
	PreserveCopyright:    "Keep copyright",
	PreserveTitle:        "Keep SVG title",
	PreserveDescription:  "Keep SVG description",
}

// ParseOptionKey returns the OptionKey for s, or false if s is not one of
// the known keys.
func ParseOptionKey(s string) (OptionKey, bool) {
	for _, k := range OptionKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Options maps option keys to the user's intent. Absent keys mean false.
type Options map[OptionKey]bool

// Enabled reports whether k is set to true.
func (o Options) Enabled(k OptionKey) bool { return o[k] }

// Clone returns an independent copy of o.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Sanitize returns a copy holding only known keys that are enabled.
func (o Options) Sanitize() Options {
	out := Options{}
	for _, k := range OptionKeys {
		if o[k] {
			out[k] = true
		}
	}
	return out
}

// OptionSet is an unordered set of option keys.
type OptionSet map[OptionKey]struct{}

// NewOptionSet builds a set from keys.
func NewOptionSet(keys ...OptionKey) OptionSet {
	s := OptionSet{}
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set.
func (s OptionSet) Has(k OptionKey) bool {
	_, ok := s[k]
	return ok
}

// Keys returns the members of s in OptionKeys order.
func (s OptionSet) Keys() []OptionKey {
	var out []OptionKey
	for _, k := range OptionKeys {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Tags is the flat tag-name → value mapping produced by metadata extraction.
// Values are string, int, float64, time.Time or slices of those.
type Tags map[string]any

// Keys returns the tag names sorted.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SourceFile is the immutable description of one input file.
type SourceFile struct {
	Name string // base file name as supplied by the user
	MIME string // declared media type, may be empty
	Data []byte
}

// Size returns the byte size of the file.
func (f SourceFile) Size() int64 { return int64(len(f.Data)) }

// Result is what the cleaning engine reports for one successful run.
type Result struct {
	OriginalFormat FormatID `json:"original_format"`
	OutputFormat   FormatID `json:"output_format"`
	OriginalSize   int64    `json:"original_size"`
	CleanedSize    int64    `json:"cleaned_size"`
	Data           []byte   `json:"-"`
	Removed        []string `json:"removed"`
}

// Risk is the coarse sensitivity of a curated field.
type Risk string

const (
	RiskHigh   Risk = "high"
	RiskMedium Risk = "medium"
	RiskLow    Risk = "low"
)

// MetaField represents a single curated, human-meaningful metadata value.
type MetaField struct {
	Label    string `json:"label"`    // e.g. "GPS Location"
	Value    string `json:"value"`    // display string
	Category string `json:"category"` // location | time | device | camera | other
	Risk     Risk   `json:"risk"`
}

// TagRow is one entry of the exhaustive tag table.
type TagRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
