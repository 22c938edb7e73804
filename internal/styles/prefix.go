package styles

import "strings"

var (
	webkit = "-webkit-"
	moz    = "-moz-"
	ms     = "-ms-"
)

// vendorPrefixes lists the properties that still need prefixed copies in the
// supported browsers.
var vendorPrefixes = map[string][]string{
	"user-select":          {webkit, moz, ms},
	"appearance":           {webkit, moz},
	"backdrop-filter":      {webkit},
	"text-size-adjust":     {webkit, moz, ms},
	"hyphens":              {webkit, ms},
	"clip-path":            {webkit},
	"box-decoration-break": {webkit},
	"tab-size":             {moz},
}

func prefixesFor(prop string) []string {
	if p, ok := vendorPrefixes[prop]; ok {
		return p
	}
	if prop == "mask" || strings.HasPrefix(prop, "mask-") {
		return []string{webkit}
	}
	return nil
}

// Prefix inserts vendor-prefixed copies before declarations that need them,
// on the same line. Copies already present in the block are not repeated, so
// prefixing is idempotent.
func Prefix(src []byte) []byte {
	var ins []insertion
	for _, r := range scanRules(src) {
		present := make(map[string]bool, len(r.decls))
		for _, d := range r.decls {
			present[d.prop] = true
			if d.prop == "position" && strings.HasPrefix(strings.ToLower(string(src[d.valueStart:d.end])), webkit+"sticky") {
				present["position:"+webkit+"sticky"] = true
			}
		}
		for _, d := range r.decls {
			text := string(src[d.start:d.end])
			for _, p := range prefixesFor(d.prop) {
				if present[p+d.prop] {
					continue
				}
				ins = append(ins, insertion{at: d.start, text: p + oneLine(text) + ";"})
			}
			if d.prop == "position" && !present["position:"+webkit+"sticky"] {
				value := strings.ToLower(string(src[d.valueStart:d.end]))
				if strings.HasPrefix(value, "sticky") {
					head := oneLine(string(src[d.start:d.valueStart]))
					ins = append(ins, insertion{at: d.start, text: head + " " + webkit + string(src[d.valueStart:d.end]) + ";"})
				}
			}
		}
	}
	return applyInsertions(src, ins)
}
