// Package toolchain drives the external tools that turn emitted LLVM IR
// into a flashed board: llc, the Arduino core builder and the uploader.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rheehot/dsp/codegen"
)

// MinLLC is the oldest llc release with a usable AVR backend.
const MinLLC = ">= 13.0.0"

var ErrNoArduinoDir = errors.New("ARDUINO_DIR is not set; point it at your Arduino software location")

// Config locates the tools and selects the board. Zero tool paths fall
// back to the binaries on PATH.
type Config struct {
	ArduinoDir string
	LLC        string
	Builder    string
	Flasher    string
	Target     codegen.Target
	Optimize   bool

	run runFunc
}

// runFunc executes a tool and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// ConfigFromEnv reads ARDUINO_DIR and the DSP_* tool overrides.
func ConfigFromEnv(target codegen.Target) Config {
	return Config{
		ArduinoDir: os.Getenv("ARDUINO_DIR"),
		LLC:        envOr("DSP_LLC", "llc"),
		Builder:    envOr("DSP_BUILDER", "dsp-builder"),
		Flasher:    envOr("DSP_FLASHER", "dsp-flash"),
		Target:     target,
		Optimize:   true,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c Config) runner() runFunc {
	if c.run != nil {
		return c.run
	}
	return execRun
}

func (c Config) tool(ctx context.Context, name string, args ...string) error {
	out, err := c.runner()(ctx, name, args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w\n%s", name, err, msg)
	}
	return nil
}

var versionRE = regexp.MustCompile(`LLVM version (\d+\.\d+(?:\.\d+)?)`)

// ParseLLCVersion extracts the LLVM release from `llc --version` output.
func ParseLLCVersion(out string) (*semver.Version, error) {
	m := versionRE.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("no LLVM version in llc output")
	}
	return semver.NewVersion(m[1])
}

// CheckLLC verifies that llc is present, new enough and built with AVR.
func (c Config) CheckLLC(ctx context.Context) (*semver.Version, error) {
	out, err := c.runner()(ctx, c.LLC, "--version")
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", c.LLC, err)
	}
	v, err := ParseLLCVersion(string(out))
	if err != nil {
		return nil, err
	}
	constraint, err := semver.NewConstraint(MinLLC)
	if err != nil {
		return nil, fmt.Errorf("invalid constraint: %w", err)
	}
	if !constraint.Check(v) {
		return v, fmt.Errorf("llc %s is too old, need %s", v, MinLLC)
	}
	if !strings.Contains(string(out), "avr") {
		return v, fmt.Errorf("llc %s was built without the AVR target", v)
	}
	return v, nil
}

// Compile lowers an .ll file to an AVR object next to it.
func (c Config) Compile(ctx context.Context, ll string) (string, error) {
	obj := strings.TrimSuffix(ll, ".ll") + ".o"
	opt := "-O0"
	if c.Optimize {
		opt = "-O2"
	}
	args := []string{"-march=avr", "-mcpu=" + c.Target.CPU, "-filetype=obj", opt, ll, "-o", obj}
	if err := c.tool(ctx, c.LLC, args...); err != nil {
		return "", err
	}
	return obj, nil
}

// Build compiles ll and links it against the Arduino core, returning the
// path of the resulting hex image.
func (c Config) Build(ctx context.Context, ll string) (string, error) {
	if c.ArduinoDir == "" {
		return "", ErrNoArduinoDir
	}
	obj, err := c.Compile(ctx, ll)
	if err != nil {
		return "", err
	}
	defer os.Remove(obj)

	hex := strings.TrimSuffix(ll, ".ll") + ".hex"
	if err := c.tool(ctx, c.Builder, c.ArduinoDir, c.Target.Board, obj, hex); err != nil {
		return "", fmt.Errorf("builder failed: %w", err)
	}
	return hex, nil
}

// Flash uploads a hex image through the serial port.
func (c Config) Flash(ctx context.Context, hex, port string) error {
	if c.ArduinoDir == "" {
		return ErrNoArduinoDir
	}
	if port == "" {
		return errors.New("flash needs a serial port (-p)")
	}
	if err := c.tool(ctx, c.Flasher, c.ArduinoDir, c.Target.CPU, hex, port); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}
