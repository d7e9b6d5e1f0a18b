package diagnostic

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

type posErr struct{ msg string }

func (e posErr) Error() string   { return "1:2: " + e.msg }
func (e posErr) Message() string { return e.msg }

func TestDiagnosticsCollect(t *testing.T) {
	d := New()
	be.True(t, !d.HasErrors())
	be.Err(t, d.Err(), nil)

	d.Warningf(1, 1, "unused %s", "x")
	be.True(t, !d.HasErrors())

	d.Errorf(2, 5, "name '%s' is not defined", "y")
	d.Add(3, 1, posErr{msg: "bad call"})
	be.Equal(t, d.ErrorCount(), 2)
	be.Equal(t, len(d.All()), 3)
	be.Equal(t, d.All()[2].Message, "bad call")
}

func TestDiagnosticsErrKeepsUnderlying(t *testing.T) {
	sentinel := errors.New("sentinel")
	d := New()
	d.Add(4, 2, sentinel)
	d.Errorf(5, 1, "other")
	err := d.Err()
	be.Err(t, err, sentinel)
	be.Err(t, err, "5:1: other")
}

func TestDiagnosticsFormat(t *testing.T) {
	d := New()
	d.Errorf(3, 10, "name 'x' is not defined")
	d.Warningf(4, 1, "global string dropped")
	want := "error[blink.py:3:10]: name 'x' is not defined\n" +
		"warning[blink.py:4:1]: global string dropped"
	be.Equal(t, d.Format("blink.py"), want)
}
