package platform

// ConcealMode selects how view windows are taken off screen by the
// visibility toggle.
type ConcealMode string

const (
	ConcealMinimize ConcealMode = "minimize"
	ConcealHide     ConcealMode = "hide"
)

// Conceal takes v off screen using mode.
func Conceal(v View, mode ConcealMode) error {
	if mode == ConcealHide {
		return v.Hide()
	}
	return v.Minimize()
}
