package enums

import "fmt"

// LineItemKind distinguishes labor and part lines on an invoice snapshot.
type LineItemKind string

const (
	LineItemKindService LineItemKind = "service"
	LineItemKindPart    LineItemKind = "part"
)

var validLineItemKinds = []LineItemKind{
	LineItemKindService,
	LineItemKindPart,
}

func (k LineItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value matches the canonical line item kind enum.
func (k LineItemKind) IsValid() bool {
	for _, candidate := range validLineItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseLineItemKind converts the raw string to LineItemKind.
func ParseLineItemKind(value string) (LineItemKind, error) {
	for _, candidate := range validLineItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item kind %q", value)
}
