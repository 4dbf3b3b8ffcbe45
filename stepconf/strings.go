package stepconf

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	colorBlue  = "\x1b[34;1m"
	colorReset = "\x1b[0m"
	unsetValue = "<unset>"
)

// Print writes the fields of config to stdout, using the env tag names where present.
// Secret fields are masked and zero values are shown as <unset>.
func Print(config interface{}) {
	Fprint(os.Stdout, config)
}

// Fprint is Print with an explicit writer.
func Fprint(w io.Writer, config interface{}) {
	fmt.Fprint(w, toString(config))
}

func toString(config interface{}) string {
	v := reflect.ValueOf(config)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Sprintf("%v\n", config)
	}
	t := v.Type()

	var b strings.Builder
	b.WriteString(colorBlue + upperFirst(t.Name()) + ":\n" + colorReset)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("env"); ok {
			if n := strings.Split(tag, ",")[0]; n != "" {
				name = n
			}
		}

		value := valueString(v.Field(i))
		if value == "" || v.Field(i).IsZero() {
			value = unsetValue
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, value)
	}
	return b.String()
}

// valueString returns the printable form of v; nil pointers print as "".
func valueString(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if !v.CanInterface() {
		return ""
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
