package stepconf

// Secret is a string that is redacted when printed.
type Secret string

const secretMask = "*****"

// String implements fmt.Stringer.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretMask
}

// GoString keeps secrets out of %#v output as well.
func (s Secret) GoString() string {
	return s.String()
}

// Reveal returns the underlying value.
func (s Secret) Reveal() string {
	return string(s)
}
