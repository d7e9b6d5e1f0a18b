package toolchain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/rheehot/dsp/codegen"
)

type call struct {
	name string
	args []string
}

// fakeTools records invocations and answers from a canned output.
type fakeTools struct {
	calls []call
	out   map[string]string
	fail  map[string]bool
}

func (f *fakeTools) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.fail[name] {
		return []byte(f.out[name]), errors.New("exit status 1")
	}
	return []byte(f.out[name]), nil
}

func testConfig(f *fakeTools) Config {
	return Config{
		ArduinoDir: "/opt/arduino",
		LLC:        "llc",
		Builder:    "builder",
		Flasher:    "flasher",
		Target:     codegen.DefaultTarget,
		Optimize:   true,
		run:        f.run,
	}
}

const llcVersion = `LLVM (http://llvm.org/):
  LLVM version 15.0.7
  Optimized build.

  Registered Targets:
    avr    - Atmel AVR Microcontroller
    x86-64 - 64-bit X86: EM64T and AMD64
`

func TestParseLLCVersion(t *testing.T) {
	v, err := ParseLLCVersion(llcVersion)
	be.Err(t, err, nil)
	be.Equal(t, v.String(), "15.0.7")

	v, err = ParseLLCVersion("Ubuntu LLVM version 14.0")
	be.Err(t, err, nil)
	be.Equal(t, v.Major(), uint64(14))

	_, err = ParseLLCVersion("llc: command not found")
	be.Err(t, err, "no LLVM version")
}

func TestCheckLLC(t *testing.T) {
	f := &fakeTools{out: map[string]string{"llc": llcVersion}}
	v, err := testConfig(f).CheckLLC(context.Background())
	be.Err(t, err, nil)
	be.Equal(t, v.Minor(), uint64(0))
	be.Equal(t, f.calls[0].args, []string{"--version"})

	f.out["llc"] = "LLVM version 11.1.0\n  Registered Targets:\n    avr\n"
	_, err = testConfig(f).CheckLLC(context.Background())
	be.Err(t, err, "too old")

	f.out["llc"] = "LLVM version 16.0.0\n  Registered Targets:\n    x86-64\n"
	_, err = testConfig(f).CheckLLC(context.Background())
	be.Err(t, err, "without the AVR target")
}

func TestCompileArguments(t *testing.T) {
	f := &fakeTools{}
	cfg := testConfig(f)
	obj, err := cfg.Compile(context.Background(), "blink.py.ll")
	be.Err(t, err, nil)
	be.Equal(t, obj, "blink.py.o")
	be.Equal(t, f.calls[0].args, []string{
		"-march=avr", "-mcpu=atmega328p", "-filetype=obj", "-O2", "blink.py.ll", "-o", "blink.py.o",
	})

	cfg.Optimize = false
	_, err = cfg.Compile(context.Background(), "blink.py.ll")
	be.Err(t, err, nil)
	be.Equal(t, f.calls[1].args[3], "-O0")
}

func TestBuildRunsBuilder(t *testing.T) {
	f := &fakeTools{}
	hex, err := testConfig(f).Build(context.Background(), "blink.py.ll")
	be.Err(t, err, nil)
	be.Equal(t, hex, "blink.py.hex")
	be.Equal(t, len(f.calls), 2)
	be.Equal(t, f.calls[1].name, "builder")
	be.Equal(t, f.calls[1].args, []string{"/opt/arduino", "uno", "blink.py.o", "blink.py.hex"})
}

func TestBuildReportsToolOutput(t *testing.T) {
	f := &fakeTools{
		out:  map[string]string{"llc": "error: invalid IR"},
		fail: map[string]bool{"llc": true},
	}
	_, err := testConfig(f).Build(context.Background(), "bad.ll")
	be.Err(t, err, "invalid IR")
	be.Equal(t, len(f.calls), 1)
}

func TestBuildNeedsArduinoDir(t *testing.T) {
	cfg := testConfig(&fakeTools{})
	cfg.ArduinoDir = ""
	_, err := cfg.Build(context.Background(), "blink.py.ll")
	be.Err(t, err, ErrNoArduinoDir)
	be.Err(t, cfg.Flash(context.Background(), "blink.py.hex", "/dev/ttyUSB0"), ErrNoArduinoDir)
}

func TestFlash(t *testing.T) {
	f := &fakeTools{}
	cfg := testConfig(f)
	be.Err(t, cfg.Flash(context.Background(), "blink.py.hex", ""), "serial port")
	be.Equal(t, len(f.calls), 0)

	be.Err(t, cfg.Flash(context.Background(), "blink.py.hex", "/dev/ttyUSB0"), nil)
	be.Equal(t, f.calls[0].args, []string{"/opt/arduino", "atmega328p", "blink.py.hex", "/dev/ttyUSB0"})

	f.fail = map[string]bool{"flasher": true}
	err := cfg.Flash(context.Background(), "blink.py.hex", "/dev/ttyUSB0")
	be.Err(t, err, "upload failed")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ARDUINO_DIR", "/usr/share/arduino")
	t.Setenv("DSP_LLC", "llc-15")
	t.Setenv("DSP_BUILDER", "")
	mega, err := codegen.LookupBoard("mega")
	be.Err(t, err, nil)

	cfg := ConfigFromEnv(mega)
	be.Equal(t, cfg.ArduinoDir, "/usr/share/arduino")
	be.Equal(t, cfg.LLC, "llc-15")
	be.Equal(t, cfg.Builder, "dsp-builder")
	be.Equal(t, cfg.Target.CPU, "atmega2560")
	be.True(t, cfg.Optimize)
	be.True(t, strings.HasPrefix(cfg.Flasher, "dsp-"))
}
