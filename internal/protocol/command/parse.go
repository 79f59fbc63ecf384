package command

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrUnrecognized    = errors.New("command: unrecognized")
	ErrInvalidArgument = errors.New("command: invalid argument")
)

// ParseError reports a line that could not be turned into a Command.
type ParseError struct {
	Line   string
	Err    error
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Line)
	}
	return fmt.Sprintf("%v: %s (%q)", e.Err, e.Detail, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type rule struct {
	pattern *regexp.Regexp
	build   func(m []string) (Command, error)
}

// rawPattern matches the line with only leading whitespace removed, so raw
// text keeps its trailing whitespace.
var rawPattern = regexp.MustCompile(`^r\s+(\S.*)$`)

func fixed(kind Kind) func([]string) (Command, error) {
	return func([]string) (Command, error) {
		return Command{Kind: kind}, nil
	}
}

func withText(kind Kind) func([]string) (Command, error) {
	return func(m []string) (Command, error) {
		return Command{Kind: kind, Text: m[1]}, nil
	}
}

func withSwitch(kind Kind) func([]string) (Command, error) {
	return func(m []string) (Command, error) {
		return Command{Kind: kind, On: m[1] == "on"}, nil
	}
}

func withValue(kind Kind) func([]string) (Command, error) {
	return func(m []string) (Command, error) {
		v, err := parseNumber(m[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Value: v}, nil
	}
}

var shipKinds = map[string]Kind{
	"position": KindShipPosition,
	"velocity": KindShipVelocity,
	"heading":  KindShipHeading,
	"power":    KindShipPower,
}

// Evaluated in order. The first matching pattern decides the outcome; a
// matched pattern with a bad argument is never retried against later ones.
var rules = []rule{
	{regexp.MustCompile(`^help$`), fixed(KindHelp)},
	{regexp.MustCompile(`^connect\s+(\S+)$`), func(m []string) (Command, error) {
		return Command{Kind: KindConnect, Address: m[1]}, nil
	}},
	{regexp.MustCompile(`^disconnect$`), fixed(KindDisconnect)},
	{rawPattern, withText(KindRaw)},
	{regexp.MustCompile(`^echo\s+(.+)$`), withText(KindEcho)},
	{regexp.MustCompile(`^generator(?:\s+get)?$`), fixed(KindGeneratorGet)},
	{regexp.MustCompile(`^generator\s+set\s+(\S+)$`), withValue(KindGeneratorSet)},
	{regexp.MustCompile(`^radar\s+scan$`), fixed(KindRadarScan)},
	{regexp.MustCompile(`^radar\s+sector$`), fixed(KindRadarSector)},
	{regexp.MustCompile(`^radar\s+(on|off)$`), withSwitch(KindRadarOn)},
	{regexp.MustCompile(`^radar\s+identify\s+(\S+)$`), withText(KindRadarIdentify)},
	{regexp.MustCompile(`^crew(?:\s+list)?$`), fixed(KindCrewList)},
	{regexp.MustCompile(`^ship\s+(position|velocity|heading|power)$`), func(m []string) (Command, error) {
		return Command{Kind: shipKinds[m[1]]}, nil
	}},
	{regexp.MustCompile(`^radio(?:\s+get)?$`), fixed(KindRadioGet)},
	{regexp.MustCompile(`^radio\s+(on|off)$`), withSwitch(KindRadioOn)},
	{regexp.MustCompile(`^radio\s+set\s+(\S+)$`), withValue(KindRadioSet)},
	{regexp.MustCompile(`^rudder((?:\s+\S+\s+\S+)+)$`), parseRudder},
	{regexp.MustCompile(`^thruster((?:\s+\S+\s+\S+)+)$`), parseThruster},
	{regexp.MustCompile(`^log\s+write\s+(.+)$`), withText(KindLogWrite)},
	{regexp.MustCompile(`^log\s+read$`), fixed(KindLogRead)},
	{regexp.MustCompile(`^log\s+clear$`), fixed(KindLogClear)},
	{regexp.MustCompile(`^time$`), fixed(KindTime)},
}

// Parse turns one typed line into a Command. Surrounding whitespace is
// ignored, except that raw text is kept as typed after its separator. Parse
// has no side effects.
func Parse(line string) (Command, error) {
	text := strings.TrimSpace(line)
	leading := strings.TrimLeft(line, " \t")
	for _, r := range rules {
		in := text
		if r.pattern == rawPattern {
			in = leading
		}
		m := r.pattern.FindStringSubmatch(in)
		if m == nil {
			continue
		}
		cmd, err := r.build(m)
		if err != nil {
			return Command{}, &ParseError{Line: line, Err: ErrInvalidArgument, Detail: err.Error()}
		}
		return cmd, nil
	}
	return Command{}, &ParseError{Line: line, Err: ErrUnrecognized}
}

func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

// parseAxes reads "name value" pairs restricted to the allowed axis names.
func parseAxes(raw string, allowed ...string) (map[string]float64, error) {
	fields := strings.Fields(raw)
	out := make(map[string]float64, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		name := fields[i]
		known := false
		for _, a := range allowed {
			if a == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown axis %q", name)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("axis %q given twice", name)
		}
		v, err := parseNumber(fields[i+1])
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func axis(axes map[string]float64, name string) *float64 {
	v, ok := axes[name]
	if !ok {
		return nil
	}
	return &v
}

func parseRudder(m []string) (Command, error) {
	axes, err := parseAxes(m[1], "yaw", "pitch", "roll")
	if err != nil {
		return Command{}, err
	}
	return Command{
		Kind:  KindRudder,
		Yaw:   axis(axes, "yaw"),
		Pitch: axis(axes, "pitch"),
		Roll:  axis(axes, "roll"),
	}, nil
}

func parseThruster(m []string) (Command, error) {
	axes, err := parseAxes(m[1], "x", "y")
	if err != nil {
		return Command{}, err
	}
	return Command{
		Kind: KindThruster,
		X:    axis(axes, "x"),
		Y:    axis(axes, "y"),
	}, nil
}

// Usage lists the accepted command forms, one per line.
func Usage() string {
	return strings.Join([]string{
		"connect <host:port|target>  open a session",
		"disconnect                  close the session",
		"r <text>                    send text verbatim",
		"echo <text>",
		"generator [get] | generator set <factor>",
		"radar scan | radar sector | radar on|off | radar identify <id>",
		"crew [list]",
		"ship position|velocity|heading|power",
		"radio [get] | radio on|off | radio set <freq>",
		"rudder [yaw <v>] [pitch <v>] [roll <v>]",
		"thruster [x <v>] [y <v>]",
		"log write <text> | log read | log clear",
		"time",
		"help",
	}, "\n")
}
