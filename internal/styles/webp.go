package styles

import (
	"regexp"
	"strings"
)

// WebPClass is the class the page root carries when the browser accepts WebP.
const WebPClass = ".webp"

var rasterURL = regexp.MustCompile(`(?i)url\(\s*(['"]?)([^'")]+?)\.(png|jpe?g)((?:[?#][^'")]*)?)(['"]?)\s*\)`)

// RewriteWebP adds, after every rule whose declarations reference a PNG or
// JPEG URL, a sibling rule scoped to WebPClass using the .webp URLs. The new
// rule is placed on the line of the closing brace so line numbers hold.
func RewriteWebP(src []byte) []byte {
	var ins []insertion
	for _, r := range scanRules(src) {
		if r.at || r.prelude == "" || strings.HasPrefix(r.prelude, WebPClass+" ") {
			continue
		}
		var decls []string
		for _, d := range r.decls {
			text := string(src[d.start:d.end])
			if !rasterURL.MatchString(text) {
				continue
			}
			decls = append(decls, oneLine(rasterURL.ReplaceAllString(text, "url(${1}${2}.webp${4}${5})")))
		}
		if len(decls) == 0 {
			continue
		}
		var sels []string
		for _, s := range splitSelectors(r.prelude) {
			switch {
			case !r.nested:
				sels = append(sels, WebPClass+" "+s)
			case strings.Contains(s, "&"):
				sels = append(sels, WebPClass+" "+s)
			default:
				sels = append(sels, WebPClass+" & "+s)
			}
		}
		ins = append(ins, insertion{
			at:   r.close + 1,
			text: " " + strings.Join(sels, ", ") + "{" + strings.Join(decls, ";") + "}",
		})
	}
	return applyInsertions(src, ins)
}
