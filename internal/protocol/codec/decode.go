package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/danmuck/vostok/internal/protocol"
	"github.com/danmuck/vostok/internal/protocol/command"
)

const number = `[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`

var (
	errorPattern     = regexp.MustCompile(`\A\s*Error[ \t]*(?:\n|\z)`)
	generatorPattern = regexp.MustCompile(`Reactor is set to (` + number + `) and generates (` + number + `) kW of power\.`)
	radioOffPattern  = regexp.MustCompile(`the radio is off`)
	radarPattern     = regexp.MustCompile(`(?i)range\s*[:=]?\s*(` + number + `)[^\n]*?elevation\s*[:=]?\s*(` + number + `)[^\n]*?azimuth\s*[:=]?\s*(` + number + `)`)
	numberPattern    = regexp.MustCompile(number)
)

// Decode interprets a framed reply body for the command that produced it. A
// body whose first line (after any echoed command) is Error is a server error.
// Extraction failures return protocol.ErrMalformedResponse; they never panic.
func Decode(cmd command.Command, body string) (Response, error) {
	if cmd.Kind == command.KindRaw {
		return Response{Kind: ResponseRaw, Text: body}, nil
	}

	text := stripEcho(cmd, body)
	if loc := errorPattern.FindStringIndex(text); loc != nil && !freeText(cmd.Kind) {
		msg := strings.TrimSpace(text[loc[1]:])
		if msg == "" {
			msg = fmt.Sprintf("%s command error", cmd.Kind)
		}
		return Response{Kind: ResponseError, Text: msg}, nil
	}

	switch cmd.Kind {
	case command.KindEcho:
		return Response{Kind: ResponseEcho, Text: strings.TrimRight(text, "\n")}, nil
	case command.KindLogRead:
		return Response{Kind: ResponseLogRead, Text: strings.TrimRight(text, "\n")}, nil
	case command.KindGeneratorGet:
		return decodeGenerator(text)
	case command.KindRadioGet:
		return Response{Kind: ResponseRadio, RadioOn: !radioOffPattern.MatchString(text)}, nil
	case command.KindRadarScan:
		return decodeRadarScan(text)
	case command.KindRadarSector:
		v, err := firstNumbers(text, 1, "radar sector")
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: ResponseRadarSector, Angle: v[0]}, nil
	case command.KindCrewList:
		return decodeCrew(text), nil
	case command.KindShipPosition, command.KindShipVelocity, command.KindShipHeading:
		v, err := firstNumbers(text, 3, cmd.Kind.String())
		if err != nil {
			return Response{}, err
		}
		vec := &Vector3{X: v[0], Y: v[1], Z: v[2]}
		out := Response{Kind: ResponseShipState}
		switch cmd.Kind {
		case command.KindShipPosition:
			out.Ship.Position = vec
		case command.KindShipVelocity:
			out.Ship.Velocity = vec
		default:
			out.Ship.Heading = vec
		}
		return out, nil
	case command.KindShipPower:
		v, err := firstNumbers(text, 2, cmd.Kind.String())
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: ResponseShipState, Ship: ShipState{Power: &PowerReading{Output: v[0], Capacity: v[1]}}}, nil
	case command.KindTime:
		v, err := firstNumbers(text, 1, "time")
		if err != nil {
			return Response{}, err
		}
		return Response{Kind: ResponseTime, Time: v[0]}, nil
	default:
		return Response{Kind: ResponseOk}, nil
	}
}

// freeText reports kinds whose reply body is user or log text, where a line
// reading Error is content rather than a failure marker.
func freeText(kind command.Kind) bool {
	return kind == command.KindEcho || kind == command.KindLogRead
}

// stripEcho drops a leading copy of the command line when the server echoes
// input back before answering.
func stripEcho(cmd command.Command, body string) string {
	line, err := Line(cmd)
	if err != nil || line == "" {
		return body
	}
	first, rest, found := strings.Cut(body, "\n")
	if strings.TrimSpace(first) == line {
		if !found {
			return ""
		}
		return rest
	}
	return body
}

func decodeGenerator(text string) (Response, error) {
	m := generatorPattern.FindStringSubmatch(text)
	if m == nil {
		return Response{}, fmt.Errorf("%w: generator reply does not match %q", protocol.ErrMalformedResponse, snippet(text))
	}
	factor, err := parseFloat(m[1], "generator factor")
	if err != nil {
		return Response{}, err
	}
	output, err := parseFloat(m[2], "generator output")
	if err != nil {
		return Response{}, err
	}
	return Response{Kind: ResponseGeneratorGet, Factor: factor, OutputKW: output}, nil
}

func decodeRadarScan(text string) (Response, error) {
	matches := radarPattern.FindAllStringSubmatch(text, -1)
	objects := make([]RadarObject, 0, len(matches))
	for _, m := range matches {
		rng, err := parseFloat(m[1], "radar range")
		if err != nil {
			return Response{}, err
		}
		elev, err := parseFloat(m[2], "radar elevation")
		if err != nil {
			return Response{}, err
		}
		az, err := parseFloat(m[3], "radar azimuth")
		if err != nil {
			return Response{}, err
		}
		objects = append(objects, RadarObject{Range: rng, Elevation: elev, Azimuth: az})
	}
	return Response{Kind: ResponseRadarScan, Objects: objects}, nil
}

func decodeCrew(text string) Response {
	crew := make([]CrewMember, 0)
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if name == "" {
			continue
		}
		crew = append(crew, CrewMember{Name: name})
	}
	return Response{Kind: ResponseCrew, Crew: crew}
}

func firstNumbers(text string, n int, what string) ([]float64, error) {
	raw := numberPattern.FindAllString(text, n)
	if len(raw) < n {
		return nil, fmt.Errorf("%w: %s reply has %d of %d numbers in %q", protocol.ErrMalformedResponse, what, len(raw), n, snippet(text))
	}
	out := make([]float64, n)
	for i, r := range raw {
		v, err := parseFloat(r, what)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFloat(raw, what string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", protocol.ErrMalformedResponse, what, raw)
	}
	return v, nil
}

func snippet(text string) string {
	const max = 80
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
