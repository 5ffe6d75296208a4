package event

import (
	"strconv"
	"strings"
)

// KeyCode is a platform-neutral virtual key code
// Values follow the Windows virtual-key table so persisted configs stay portable
type KeyCode uint16

const (
	VKNone      KeyCode = 0x00
	VKBack      KeyCode = 0x08
	VKTab       KeyCode = 0x09
	VKReturn    KeyCode = 0x0D
	VKShift     KeyCode = 0x10
	VKControl   KeyCode = 0x11
	VKMenu      KeyCode = 0x12 // Alt
	VKPause     KeyCode = 0x13
	VKCapital   KeyCode = 0x14 // Caps lock
	VKEscape    KeyCode = 0x1B
	VKSpace     KeyCode = 0x20
	VKPrior     KeyCode = 0x21
	VKNext      KeyCode = 0x22
	VKEnd       KeyCode = 0x23
	VKHome      KeyCode = 0x24
	VKLeft      KeyCode = 0x25
	VKUp        KeyCode = 0x26
	VKRight     KeyCode = 0x27
	VKDown      KeyCode = 0x28
	VKInsert    KeyCode = 0x2D
	VKDelete    KeyCode = 0x2E
	VK0         KeyCode = 0x30
	VK9         KeyCode = 0x39
	VKA         KeyCode = 0x41
	VKZ         KeyCode = 0x5A
	VKLWin      KeyCode = 0x5B
	VKRWin      KeyCode = 0x5C
	VKApps      KeyCode = 0x5D
	VKF1        KeyCode = 0x70
	VKF12       KeyCode = 0x7B
	VKNumLock   KeyCode = 0x90
	VKScroll    KeyCode = 0x91
	VKLShift    KeyCode = 0xA0
	VKRShift    KeyCode = 0xA1
	VKOEM1      KeyCode = 0xBA // ;:
	VKOEMPlus   KeyCode = 0xBB // =+
	VKOEMComma  KeyCode = 0xBC // ,<
	VKOEMMinus  KeyCode = 0xBD // -_
	VKOEMPeriod KeyCode = 0xBE // .>
	VKOEM2      KeyCode = 0xBF // /?
	VKOEM3      KeyCode = 0xC0 // `~
	VKOEM4      KeyCode = 0xDB // [{
	VKOEM5      KeyCode = 0xDC // \|
	VKOEM6      KeyCode = 0xDD // ]}
	VKOEM7      KeyCode = 0xDE // '"
)

// keyNames maps config-facing names to key codes
var keyNames = map[string]KeyCode{
	"capslock":   VKCapital,
	"capital":    VKCapital,
	"return":     VKReturn,
	"enter":      VKReturn,
	"escape":     VKEscape,
	"esc":        VKEscape,
	"tab":        VKTab,
	"space":      VKSpace,
	"backspace":  VKBack,
	"back":       VKBack,
	"shift":      VKShift,
	"lshift":     VKLShift,
	"rshift":     VKRShift,
	"control":    VKControl,
	"ctrl":       VKControl,
	"alt":        VKMenu,
	"menu":       VKMenu,
	"pause":      VKPause,
	"insert":     VKInsert,
	"delete":     VKDelete,
	"home":       VKHome,
	"end":        VKEnd,
	"pageup":     VKPrior,
	"pagedown":   VKNext,
	"up":         VKUp,
	"down":       VKDown,
	"left":       VKLeft,
	"right":      VKRight,
	"numlock":    VKNumLock,
	"scrolllock": VKScroll,
	"lwin":       VKLWin,
	"rwin":       VKRWin,
	"apps":       VKApps,
}

// KeyByName resolves a config key name such as "caps-lock", "KEYCODE_RETURN" or "f5"
func KeyByName(name string) (KeyCode, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "keycode_")
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)

	if k, ok := keyNames[n]; ok {
		return k, true
	}
	if len(n) >= 2 && n[0] == 'f' {
		num := 0
		for _, c := range n[1:] {
			if c < '0' || c > '9' {
				return VKNone, false
			}
			num = num*10 + int(c-'0')
		}
		if num >= 1 && num <= 12 {
			return VKF1 + KeyCode(num-1), true
		}
		return VKNone, false
	}
	if len(n) == 1 {
		c := n[0]
		switch {
		case c >= 'a' && c <= 'z':
			return VKA + KeyCode(c-'a'), true
		case c >= '0' && c <= '9':
			return VK0 + KeyCode(c-'0'), true
		}
	}
	return VKNone, false
}

// IsShift reports whether the code is one of the shift modifiers
func (k KeyCode) IsShift() bool {
	return k == VKShift || k == VKLShift || k == VKRShift
}

// canonicalNames lists the preferred spelling per code for Name
var canonicalNames = []string{
	"capslock", "return", "escape", "tab", "space", "backspace", "shift", "lshift", "rshift",
	"control", "alt", "pause", "insert", "delete", "home", "end", "pageup", "pagedown",
	"up", "down", "left", "right", "numlock", "scrolllock", "lwin", "rwin", "apps",
}

// Name returns a spelling KeyByName resolves back to k
func (k KeyCode) Name() string {
	switch {
	case k >= VKA && k <= VKZ:
		return string(rune('a' + (k - VKA)))
	case k >= VK0 && k <= VK9:
		return string(rune('0' + (k - VK0)))
	case k >= VKF1 && k <= VKF12:
		return "f" + strconv.Itoa(int(k-VKF1)+1)
	}
	for _, name := range canonicalNames {
		if keyNames[name] == k {
			return name
		}
	}
	return strconv.Itoa(int(k))
}
