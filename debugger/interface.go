package debugger

import "github.com/carp-lang/carp/service"

// RunTUI runs the terminal debugger and blocks until the user quits.
func RunTUI(sess *service.Session) error {
	t := NewTUI(sess)
	return t.Run()
}
