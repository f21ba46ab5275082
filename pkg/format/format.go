// Package format implements positional message templates of the form
// "{index[,alignment][:spec]}".
//
// Literal braces are written doubled ("{{" and "}}"). The alignment pads the
// rendered argument with spaces to the given width, on the left for positive
// values and on the right for negative ones. The spec is handed to arguments
// that implement Formattable (time.Time does) and is ignored otherwise.
//
//	s, err := format.Sprintf("{{{0}}}-{1}", 42, "hello") // "{42}-hello"
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Formattable is implemented by values that render themselves from a spec
// string, such as time.Time with a layout.
type Formattable interface {
	Format(spec string) string
}

// Error reports a malformed template or a placeholder that refers to a
// missing argument.
type Error struct {
	Template string
	Offset   int
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("format %q: %s at offset %d", e.Template, e.Reason, e.Offset)
}

type placeholder struct {
	index  int
	align  int
	spec   string
	offset int
}

// Sprintf substitutes args into template. Unused args are allowed; a
// placeholder whose index has no argument is an error.
func Sprintf(template string, args ...interface{}) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + 16*len(args))

	err := parse(template, func(literal string, p *placeholder) error {
		if p == nil {
			b.WriteString(literal)
			return nil
		}
		if p.index >= len(args) {
			return &Error{
				Template: template,
				Offset:   p.offset,
				Reason:   fmt.Sprintf("index %d out of range for %d argument(s)", p.index, len(args)),
			}
		}
		writeAligned(&b, render(args[p.index], p.spec), p.align)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Indices returns the distinct placeholder indices used by template in
// ascending order.
func Indices(template string) ([]int, error) {
	seen := make(map[int]struct{})
	err := parse(template, func(_ string, p *placeholder) error {
		if p != nil {
			seen[p.index] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// parse walks template and reports literal runs (p == nil) and placeholders
// in order.
func parse(template string, emit func(literal string, p *placeholder) error) error {
	var lit strings.Builder
	flush := func() error {
		if lit.Len() == 0 {
			return nil
		}
		s := lit.String()
		lit.Reset()
		return emit(s, nil)
	}

	n := len(template)
	for i := 0; i < n; i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < n && template[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return &Error{Template: template, Offset: i, Reason: "unterminated placeholder"}
			}
			p, reason := parsePlaceholder(template[i+1 : i+1+end])
			if reason != "" {
				return &Error{Template: template, Offset: i, Reason: reason}
			}
			p.offset = i
			if err := flush(); err != nil {
				return err
			}
			if err := emit("", &p); err != nil {
				return err
			}
			i += end + 1
		case '}':
			if i+1 < n && template[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return &Error{Template: template, Offset: i, Reason: "unescaped closing brace"}
		default:
			lit.WriteByte(c)
		}
	}
	return flush()
}

// MaxAlignment bounds the width a placeholder may pad its value to.
const MaxAlignment = 1000000

func parsePlaceholder(body string) (placeholder, string) {
	var p placeholder
	if strings.IndexByte(body, '{') >= 0 {
		return p, "nested opening brace"
	}
	if colon := strings.IndexByte(body, ':'); colon >= 0 {
		p.spec = body[colon+1:]
		body = body[:colon]
	}
	if comma := strings.IndexByte(body, ','); comma >= 0 {
		align, err := strconv.Atoi(strings.TrimSpace(body[comma+1:]))
		if err != nil {
			return p, "invalid alignment"
		}
		if align > MaxAlignment || align < -MaxAlignment {
			return p, "alignment out of range"
		}
		p.align = align
		body = body[:comma]
	}
	idx := strings.TrimSpace(body)
	if idx == "" {
		return p, "missing index"
	}
	for _, r := range idx {
		if r < '0' || r > '9' {
			return p, "invalid index"
		}
	}
	index, err := strconv.Atoi(idx)
	if err != nil {
		return p, "invalid index"
	}
	p.index = index
	return p, ""
}

func render(arg interface{}, spec string) string {
	if arg == nil {
		return ""
	}
	if spec != "" {
		if f, ok := arg.(Formattable); ok {
			return f.Format(spec)
		}
	}
	if s, ok := arg.(string); ok {
		return s
	}
	return fmt.Sprint(arg)
}

func writeAligned(b *strings.Builder, s string, align int) {
	width := align
	if width < 0 {
		width = -width
	}
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		b.WriteString(s)
		return
	}
	if align > 0 {
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(s)
		return
	}
	b.WriteString(s)
	b.WriteString(strings.Repeat(" ", pad))
}
