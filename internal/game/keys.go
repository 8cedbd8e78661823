package game

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Key is a Windows virtual-key code.
type Key uint16

const (
	KeyNone   Key = 0
	KeyShift  Key = 0x10
	KeyCtrl   Key = 0x11
	KeyAlt    Key = 0x12
	KeyEscape Key = 0x1B
	KeySpace  Key = 0x20
	KeyF1     Key = 0x70
)

var namedKeys = map[string]Key{
	"SHIFT": KeyShift,
	"CTRL":  KeyCtrl,
	"ALT":   KeyAlt,
	"ESC":   KeyEscape,
	"SPACE": KeySpace,
	"TAB":   0x09,
	"ENTER": 0x0D,
	"MINUS": 0xBD,
	"PLUS":  0xBB,
}

// ParseKey accepts single letters/digits ("T", "5"), function keys ("F4") and a few names
// ("SPACE", "SHIFT").
func ParseKey(s string) (Key, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "ESCAPE" {
		name = "ESC"
	}
	if name == "" {
		return KeyNone, nil
	}
	if k, ok := namedKeys[name]; ok {
		return k, nil
	}
	if len(name) == 1 {
		c := name[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return Key(c), nil
		}
	}
	var fn int
	if _, err := fmt.Sscanf(name, "F%d", &fn); err == nil && fn >= 1 && fn <= 12 {
		return KeyF1 + Key(fn-1), nil
	}

	return KeyNone, fmt.Errorf("unknown key %q", s)
}

func (k Key) String() string {
	for name, v := range namedKeys {
		if v == k {
			return name
		}
	}
	switch {
	case k == KeyNone:
		return ""
	case k >= KeyF1 && k < KeyF1+12:
		return fmt.Sprintf("F%d", int(k-KeyF1)+1)
	case (k >= 'A' && k <= 'Z') || (k >= '0' && k <= '9'):
		return string(rune(k))
	}
	return fmt.Sprintf("0x%02X", uint16(k))
}

func (k *Key) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseKey(value.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Key) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}
