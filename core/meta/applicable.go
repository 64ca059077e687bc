package meta

import (
	"regexp"
	"strings"

	"github.com/ankit-chaubey/picscrub/core"
)

// ICCKeys are the tag names that indicate an embedded colour profile.
var ICCKeys = []string{
	"ProfileDescription",
	"ColorSpaceData",
	"ProfileClass",
	"ConnectionSpaceType",
	"RenderingIntent",
	"DeviceModelDesc",
	"DeviceMfgDesc",
}

// tagRule enables an option when the extracted tag map matches.
type tagRule struct {
	key   core.OptionKey
	match func(core.Tags) bool
}

// textRule enables an option when the raw file text matches.
type textRule struct {
	key core.OptionKey
	re  *regexp.Regexp
}

func hasAny(keys ...string) func(core.Tags) bool {
	return func(t core.Tags) bool {
		for _, k := range keys {
			if _, ok := t[k]; ok {
				return true
			}
		}
		return false
	}
}

var tagRules = []tagRule{
	{core.PreserveColorProfile, hasAny(ICCKeys...)},
	{core.PreserveOrientation, hasAny("Orientation")},
	{core.PreserveCopyright, hasAny("Copyright", "CopyrightNotice")},
}

var svgTextRules = []textRule{
	{core.PreserveTitle, regexp.MustCompile(`(?i)<title[\s>]`)},
	{core.PreserveDescription, regexp.MustCompile(`(?i)<desc[\s>]`)},
}

const svgMIME = "image/svg+xml"

// Applicable returns the preserve options that are meaningful for src.
// Tag rules look at the extracted map; SVG rules look at the raw text and
// only run when the declared media type is SVG.
func Applicable(tags core.Tags, src core.SourceFile) core.OptionSet {
	out := core.OptionSet{}
	if tags != nil {
		for _, r := range tagRules {
			if r.match(tags) {
				out[r.key] = struct{}{}
			}
		}
	}
	if strings.EqualFold(src.MIME, svgMIME) {
		text, ok := readText(src)
		if !ok {
			return out
		}
		for _, r := range svgTextRules {
			if r.re.MatchString(text) {
				out[r.key] = struct{}{}
			}
		}
	}
	return out
}

// readText decodes the file as text; an empty file counts as a failed read.
func readText(src core.SourceFile) (string, bool) {
	if len(src.Data) == 0 {
		return "", false
	}
	return strings.ToValidUTF8(string(src.Data), "�"), true
}

// Defaults enables every applicable option. Whether colour profiles should
// be kept by default is a product decision; every format currently keeps it.
func Defaults(applicable core.OptionSet) core.Options {
	out := core.Options{}
	for k := range applicable {
		out[k] = true
	}
	return out
}
