package markup

import (
	"bytes"
	"html"
	"path"
	"strings"

	xhtml "golang.org/x/net/html"
)

var webpSourceExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// RewriteWebP wraps every <img> whose src is a JPEG or PNG, and which is not
// already inside a <picture>, in a <picture> offering the .webp sibling first.
// Everything else is copied byte for byte.
func RewriteWebP(src []byte) []byte {
	z := xhtml.NewTokenizer(bytes.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))
	inPicture := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}
		// TagName lower-cases the tokenizer buffer in place; keep the original bytes.
		raw := append([]byte(nil), z.Raw()...)
		switch tt {
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "picture":
				if tt == xhtml.StartTagToken {
					inPicture++
				}
			case "img":
				if inPicture > 0 {
					break
				}
				if webp, ok := webpFor(imgSrc(z, hasAttr)); ok {
					out.WriteString(`<picture><source srcset="`)
					out.WriteString(html.EscapeString(webp))
					out.WriteString(`" type="image/webp">`)
					out.Write(raw)
					out.WriteString(`</picture>`)
					continue
				}
			}
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); string(name) == "picture" && inPicture > 0 {
				inPicture--
			}
		}
		out.Write(raw)
	}
	return out.Bytes()
}

func imgSrc(z *xhtml.Tokenizer, hasAttr bool) string {
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "src" {
			return string(val)
		}
	}
	return ""
}

// webpFor returns the .webp URL for a rewritable image URL, keeping any query
// or fragment.
func webpFor(src string) (string, bool) {
	if src == "" || strings.HasPrefix(src, "data:") {
		return "", false
	}
	base, suffix := src, ""
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		base, suffix = src[:i], src[i:]
	}
	ext := path.Ext(base)
	if !webpSourceExts[strings.ToLower(ext)] {
		return "", false
	}
	return strings.TrimSuffix(base, ext) + ".webp" + suffix, true
}
