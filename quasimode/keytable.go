package quasimode

import "github.com/lixenwraith/enso/event"

// keyChar is the base and shifted character of a whitelisted key
type keyChar struct {
	base    rune
	shifted rune
}

// charKeys is the whitelist of virtual keys that type characters; anything else is ignored
var charKeys = func() map[event.KeyCode]keyChar {
	m := map[event.KeyCode]keyChar{
		event.VKSpace:     {' ', ' '},
		event.VKOEM1:      {';', ':'},
		event.VKOEMPlus:   {'=', '+'},
		event.VKOEMComma:  {',', '<'},
		event.VKOEMMinus:  {'-', '_'},
		event.VKOEMPeriod: {'.', '>'},
		event.VKOEM2:      {'/', '?'},
		event.VKOEM3:      {'`', '~'},
		event.VKOEM4:      {'[', '{'},
		event.VKOEM5:      {'\\', '|'},
		event.VKOEM6:      {']', '}'},
		event.VKOEM7:      {'\'', '"'},
	}
	for c := event.VKA; c <= event.VKZ; c++ {
		r := rune('a' + (c - event.VKA))
		m[c] = keyChar{base: r, shifted: r - 'a' + 'A'}
	}
	shiftedDigits := []rune(")!@#$%^&*(")
	for c := event.VK0; c <= event.VK9; c++ {
		i := int(c - event.VK0)
		m[c] = keyChar{base: rune('0' + i), shifted: shiftedDigits[i]}
	}
	return m
}()

// charFor returns the typed character of code under the shift state
func charFor(code event.KeyCode, shift bool) (rune, bool) {
	kc, ok := charKeys[code]
	if !ok {
		return 0, false
	}
	if shift {
		return kc.shifted, true
	}
	return kc.base, true
}

// KeyForRune returns the virtual key and shift state that type r, for input providers
// that receive characters rather than key codes
func KeyForRune(r rune) (event.KeyCode, bool, bool) {
	for code, kc := range charKeys {
		switch r {
		case kc.base:
			return code, false, true
		case kc.shifted:
			return code, true, true
		}
	}
	return event.VKNone, false, false
}
