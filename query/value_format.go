package query

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the value for end users: numbers in shortest form, strings
// unquoted, lists bracketed.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindNumber:
		return formatNumber(v.data.(float64))
	case KindString:
		return v.data.(string)
	case KindList:
		elems := v.data.([]Value)
		parts := make([]string, len(elems))
		for i, e := range elems {
			if e.kind == KindString {
				parts[i] = strconv.Quote(e.data.(string))
				continue
			}
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindNative:
		return fmt.Sprintf("<native %s>", v.data.(*Builtin).name)
	default:
		return fmt.Sprintf("<%v>", v.kind)
	}
}

// Inspect renders a debug form that names every variant, e.g.
// List([Number(1), String("a")]). This is what the output sink receives.
func (v Value) Inspect() string {
	var b strings.Builder
	v.inspectInto(&b)
	return b.String()
}

func (v Value) inspectInto(b *strings.Builder) {
	switch v.kind {
	case KindNone:
		b.WriteString("None")
	case KindNumber:
		b.WriteString("Number(")
		b.WriteString(formatNumber(v.data.(float64)))
		b.WriteByte(')')
	case KindString:
		b.WriteString("String(")
		b.WriteString(strconv.Quote(v.data.(string)))
		b.WriteByte(')')
	case KindList:
		b.WriteString("List([")
		for i, e := range v.data.([]Value) {
			if i > 0 {
				b.WriteString(", ")
			}
			e.inspectInto(b)
		}
		b.WriteString("])")
	case KindNative:
		fmt.Fprintf(b, "NativeFunction(%s)", v.data.(*Builtin).name)
	default:
		fmt.Fprintf(b, "<%v>", v.kind)
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
