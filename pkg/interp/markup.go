package interp

import (
	"strings"

	"github.com/papercomputeco/kataru/pkg/line"
)

// ParseMarkup strips <tag>..</tag> spans and <tag/> markers from text. Each
// attribute records rune offsets into the stripped text: an open and close
// offset per span, a single offset per marker. Attributes are ordered by
// first appearance. Anything that does not parse as a tag stays as text.
func ParseMarkup(text string) (string, []line.Attribute) {
	if !strings.ContainsRune(text, '<') {
		return text, nil
	}

	var (
		out   strings.Builder
		attrs []line.Attribute
		index = make(map[string]int)
		pos   int
	)
	mark := func(name string) {
		i, ok := index[name]
		if !ok {
			i = len(attrs)
			index[name] = i
			attrs = append(attrs, line.Attribute{Name: name})
		}
		attrs[i].Positions = append(attrs[i].Positions, pos)
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '<' {
			if name, width, ok := tag(runes[i:]); ok {
				mark(name)
				i += width - 1
				continue
			}
		}
		out.WriteRune(r)
		pos++
	}
	return out.String(), attrs
}

// tag matches <name>, </name> or <name/> at the start of rs and returns the
// name and the rune width of the tag.
func tag(rs []rune) (string, int, bool) {
	end := -1
	for i := 1; i < len(rs); i++ {
		if rs[i] == '>' {
			end = i
			break
		}
		if rs[i] == '<' {
			return "", 0, false
		}
	}
	if end < 0 {
		return "", 0, false
	}

	body := string(rs[1:end])
	body = strings.TrimPrefix(body, "/")
	body = strings.TrimSuffix(body, "/")
	if body == "" {
		return "", 0, false
	}
	for _, r := range body {
		if !isNameRune(r) {
			return "", 0, false
		}
	}
	return body, end + 1, true
}

func isNameRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
