package image

import (
	"regexp"

	"github.com/ankit-chaubey/picscrub/core"
)

var (
	svgMetadataRe = regexp.MustCompile(`(?is)<metadata\b[^>]*/>|<metadata\b[^>]*>.*?</metadata\s*>`)
	svgCommentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	svgTitleRe    = regexp.MustCompile(`(?is)<title\b[^>]*/>|<title\b[^>]*>.*?</title\s*>`)
	svgDescRe     = regexp.MustCompile(`(?is)<desc\b[^>]*/>|<desc\b[^>]*>.*?</desc\s*>`)

	svgEditorElemRe = regexp.MustCompile(`(?is)<(?:sodipodi|inkscape):namedview\b[^>]*/>|<(?:sodipodi|inkscape):namedview\b.*?</(?:sodipodi|inkscape):namedview\s*>`)
	svgEditorAttrRe = regexp.MustCompile(`\s+(?:xmlns:)?(?:inkscape|sodipodi|sketch|serif)(?::[\w.-]+)?\s*=\s*(?:"[^"]*"|'[^']*')`)
)

type svgRule struct {
	re       *regexp.Regexp
	category string
	keep     core.OptionKey // empty: always removed
}

var svgRules = []svgRule{
	{re: svgMetadataRe, category: catMetadata},
	{re: svgCommentRe, category: catComments},
	{re: svgEditorElemRe, category: catEditor},
	{re: svgEditorAttrRe, category: catEditor},
	{re: svgTitleRe, category: catTitle, keep: core.PreserveTitle},
	{re: svgDescRe, category: catDescription, keep: core.PreserveDescription},
}

func cleanSVG(data []byte, opts core.Options, rm *removed) ([]byte, error) {
	out := data
	for _, r := range svgRules {
		if r.keep != "" && opts.Enabled(r.keep) {
			continue
		}
		if !r.re.Match(out) {
			continue
		}
		out = r.re.ReplaceAll(out, nil)
		rm.add(r.category)
	}
	return out, nil
}
