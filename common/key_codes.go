package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32  // Spacebar (ASCII)
	KeyP     = 80  // P key (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)

	Key0 = 48 // 0 key (ASCII)
	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
	Key4 = 52 // 4 key (ASCII)
	Key5 = 53 // 5 key (ASCII)
	Key6 = 54 // 6 key (ASCII)
	Key7 = 55 // 7 key (ASCII)
	Key8 = 56 // 8 key (ASCII)
	Key9 = 57 // 9 key (ASCII)
)

// DigitKeyIndex maps the number row keys 1..9 to a zero-based slot index.
//
// Parameters:
//   - keyCode: the virtual key code
//
// Returns:
//   - int: the slot index (Key1 -> 0)
//   - bool: false when the key is not one of Key1..Key9
func DigitKeyIndex(keyCode uint32) (int, bool) {
	if keyCode < Key1 || keyCode > Key9 {
		return 0, false
	}
	return int(keyCode - Key1), true
}
