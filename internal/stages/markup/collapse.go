package markup

import (
	"bytes"
	"errors"
	"io"
	"regexp"

	"golang.org/x/net/html"
)

var spaceRe = regexp.MustCompile(`\s+`)

// preserved elements keep their text byte for byte.
var preserved = map[string]bool{"pre": true, "textarea": true, "script": true, "style": true}

func isConditionalComment(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("<!--[if"))
}

// collapseTokens removes insignificant whitespace and comments by walking the token
// stream. Tags are emitted as written; only text and comments change.
func collapseTokens(doc []byte) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(doc))
	var out bytes.Buffer
	out.Grow(len(doc))
	depth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return bytes.TrimSpace(out.Bytes()), nil
			}
			return nil, z.Err()
		case html.TextToken:
			raw := z.Raw()
			if depth > 0 {
				out.Write(raw)
				continue
			}
			collapsed := spaceRe.ReplaceAll(raw, []byte(" "))
			if len(bytes.TrimSpace(collapsed)) == 0 {
				continue
			}
			out.Write(collapsed)
		case html.CommentToken:
			if raw := z.Raw(); isConditionalComment(raw) {
				out.Write(raw)
			}
		case html.StartTagToken:
			out.Write(z.Raw())
			if name, _ := z.TagName(); preserved[string(name)] {
				depth++
			}
		case html.EndTagToken:
			out.Write(z.Raw())
			if name, _ := z.TagName(); preserved[string(name)] && depth > 0 {
				depth--
			}
		default:
			out.Write(z.Raw())
		}
	}
}

var (
	commentRe     = regexp.MustCompile(`<!--[\s\S]*?-->`)
	betweenTagsRe = regexp.MustCompile(`>\s+<`)
	multiSpaceRe  = regexp.MustCompile(`\s{2,}`)
)

// collapsePatterns is the regex chain used by the fallback strategy. It does not know
// about pre or textarea.
func collapsePatterns(doc []byte) ([]byte, error) {
	doc = commentRe.ReplaceAllFunc(doc, func(c []byte) []byte {
		if isConditionalComment(c) {
			return c
		}
		return nil
	})
	doc = betweenTagsRe.ReplaceAll(doc, []byte("><"))
	doc = multiSpaceRe.ReplaceAll(doc, []byte(" "))
	return bytes.TrimSpace(doc), nil
}
