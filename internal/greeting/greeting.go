// Package greeting formats the Get-HelloWorld greeting line.
package greeting

// DefaultName is used when the caller does not supply a name.
const DefaultName = "DEFAULT"

// Suffix is appended to every name.
const Suffix = ": Hello World!"

// Format returns name followed by ": Hello World!". The name is opaque text and
// is never trimmed, escaped or validated.
func Format(name string) string {
	return name + Suffix
}

// Resolve returns DefaultName when no name was supplied. An explicitly supplied
// empty string is kept as is.
func Resolve(name string, supplied bool) string {
	if !supplied {
		return DefaultName
	}
	return name
}
