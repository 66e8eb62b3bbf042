// Package convert rewrites Arduino-dialect sketches into MicroPython
// programs suitable for paste-mode upload to a Pico.
//
// The conversion is deliberately shallow: it targets the pin-toggle/delay
// subset of Arduino that block-based editors generate (pinMode,
// digitalWrite, delay, Serial.print), not arbitrary C++. Input outside that
// subset is dropped rather than mistranslated. The output always has the
// same canonical shape:
//
//	from machine import Pin
//	import time
//
//	led = Pin("LED", Pin.OUT)
//
//	while True:
//	    ...loop body...
package convert

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	includeRe     = regexp.MustCompile(`#include\s*<[^>]+>`)
	lineCommentRe = regexp.MustCompile(`(?m)//.*$`)

	ledBuiltinRe = regexp.MustCompile(`int\s+(\w+)\s*=\s*LED_BUILTIN`)
	intVarRe     = regexp.MustCompile(`int\s+(\w+)\s*=\s*(\d+)`)
	pinModeOutRe = regexp.MustCompile(`pinMode\s*\(\s*(\w+)\s*,\s*OUTPUT\s*\)`)
	pinModeInRe  = regexp.MustCompile(`pinMode\s*\(\s*(\w+)\s*,\s*INPUT\s*\)`)

	valuePairRe = regexp.MustCompile(`led\.value\(\s*"?\w+"?\s*,\s*(\d+)\s*\)`)
	sleepMsRe   = regexp.MustCompile(`time\.sleep\(\s*(\d+)\s*\)`)
)

// textual rewrites applied in order; earlier entries must not produce text a
// later entry would corrupt.
var rewrites = []struct{ from, to string }{
	{"void setup()", "def setup():"},
	{"void loop()", "def loop():"},
	{"digitalWrite(", "led.value("},
	{"digitalRead(", "pin.read("},
	{"analogWrite(", "pin.duty("},
	{"analogRead(", "pin.read_analog("},
	{"delay(", "time.sleep("},
	{"Serial.println(", "print("},
	{"Serial.print(", "print("},
	{"LED_BUILTIN", `"LED"`},
	{"true", "True"},
	{"false", "False"},
	{"HIGH", "1"},
	{"LOW", "0"},
	{";", ""},
	{"{", ""},
	{"}", ""},
}

// ArduinoToMicroPython converts an Arduino-dialect sketch into a MicroPython
// program. The loop() body becomes the body of a `while True:` loop; setup()
// is reduced to the canonical LED pin initialization.
func ArduinoToMicroPython(sketch string) string {
	src := includeRe.ReplaceAllString(sketch, "")
	src = lineCommentRe.ReplaceAllString(src, "")

	src = ledBuiltinRe.ReplaceAllString(src, `$1 = "LED"`)
	src = intVarRe.ReplaceAllString(src, "$1 = $2")
	src = pinModeOutRe.ReplaceAllString(src, "$1 = Pin($1, Pin.OUT)")
	src = pinModeInRe.ReplaceAllString(src, "$1 = Pin($1, Pin.IN)")

	for _, r := range rewrites {
		src = strings.ReplaceAll(src, r.from, r.to)
	}

	out := []string{
		"from machine import Pin",
		"import time",
		"",
		`led = Pin("LED", Pin.OUT)`,
		"",
		"while True:",
	}

	inLoop := false
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "def loop():") {
			inLoop = true
			continue
		}
		if !inLoop {
			continue
		}

		switch {
		case strings.Contains(line, "led.value("):
			out = append(out, "    "+convertValueCall(line))
		case strings.Contains(line, "time.sleep("):
			out = append(out, "    "+convertSleepCall(line))
		case strings.HasPrefix(line, "print("):
			out = append(out, "    "+line)
		}
	}

	return strings.Join(out, "\n")
}

// convertValueCall rewrites the two-argument Arduino form
// led.value(pin, level) into MicroPython's led.value(level).
func convertValueCall(line string) string {
	if m := valuePairRe.FindStringSubmatch(line); m != nil {
		return "led.value(" + m[1] + ")"
	}
	return line
}

// convertSleepCall rewrites millisecond delays into seconds.
func convertSleepCall(line string) string {
	m := sleepMsRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	ms, err := strconv.Atoi(m[1])
	if err != nil {
		return line
	}
	secs := strconv.FormatFloat(float64(ms)/1000, 'g', -1, 64)
	return "time.sleep(" + secs + ")"
}
