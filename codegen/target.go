package codegen

import (
	"fmt"
	"sort"
)

// avrDataLayout is the 8-bit AVR layout: 16-bit pointers in program
// address space 1, everything byte aligned.
const avrDataLayout = "e-P1-p:16:8-i8:8-i16:8-i32:8-i64:8-f32:8-f64:8-n8-a:8"

// Target describes the board a unit is compiled for.
type Target struct {
	Board      string
	CPU        string
	Triple     string
	DataLayout string
}

var boards = map[string]Target{
	"uno":      {Board: "uno", CPU: "atmega328p", Triple: "avr", DataLayout: avrDataLayout},
	"nano":     {Board: "nano", CPU: "atmega328p", Triple: "avr", DataLayout: avrDataLayout},
	"mega":     {Board: "mega", CPU: "atmega2560", Triple: "avr", DataLayout: avrDataLayout},
	"leonardo": {Board: "leonardo", CPU: "atmega32u4", Triple: "avr", DataLayout: avrDataLayout},
}

// DefaultTarget is the Arduino Uno.
var DefaultTarget = boards["uno"]

// LookupBoard returns the target for a board name.
func LookupBoard(name string) (Target, error) {
	t, ok := boards[name]
	if !ok {
		return Target{}, fmt.Errorf("unknown board %q (known: %v)", name, BoardNames())
	}
	return t, nil
}

func BoardNames() []string {
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
