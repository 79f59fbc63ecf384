package client

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/danmuck/vostok/internal/protocol/codec"
)

// FormatResponse maps a decoded reply onto its display template.
func FormatResponse(resp codec.Response) DisplayMessage {
	switch resp.Kind {
	case codec.ResponseOk:
		return LogLine("ok")
	case codec.ResponseError:
		return LogLine("Error: " + resp.Text)
	case codec.ResponseGeneratorGet:
		return LogLine(fmt.Sprintf("Generator is set to %s%% and power output is %s kW.",
			number(resp.Factor*100), number(resp.OutputKW)))
	case codec.ResponseRadarScan:
		return LogLine(formatRadar(resp.Objects))
	case codec.ResponseRadarSector:
		return LogLine(fmt.Sprintf("Radar sector is set to %s degrees.", number(resp.Angle)))
	case codec.ResponseEcho:
		return LogLine(resp.Text)
	case codec.ResponseLogRead:
		if strings.TrimSpace(resp.Text) == "" {
			return LogLine("Ship log is empty.")
		}
		return LogLine("Ship log:\n" + resp.Text)
	case codec.ResponseCrew:
		if len(resp.Crew) == 0 {
			return LogLine("No crew aboard.")
		}
		names := make([]string, len(resp.Crew))
		for i, c := range resp.Crew {
			names[i] = c.Name
		}
		return LogLine("Crew: " + strings.Join(names, ", "))
	case codec.ResponseShipState:
		return LogLine(formatShip(resp.Ship))
	case codec.ResponseRadio:
		if resp.RadioOn {
			return LogLine("Radio is on.")
		}
		return LogLine("Radio is off.")
	case codec.ResponseTime:
		return LogLine(fmt.Sprintf("Ship time is %s.", number(resp.Time)))
	case codec.ResponseRaw:
		return Log("Raw command response:\n" + resp.Text)
	default:
		return LogLine(fmt.Sprintf("Unimplemented server response %s!", resp.Kind))
	}
}

func formatRadar(objects []codec.RadarObject) string {
	if len(objects) == 0 {
		return "Radar contacts: none"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Radar contacts (%d):", len(objects))
	for i, o := range objects {
		fmt.Fprintf(&b, "\n  #%d range %s elevation %s azimuth %s",
			i+1, number(o.Range), number(o.Elevation), number(o.Azimuth))
	}
	return b.String()
}

func formatShip(s codec.ShipState) string {
	var parts []string
	vec := func(label string, v *codec.Vector3) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s: %s, %s, %s", label, number(v.X), number(v.Y), number(v.Z)))
		}
	}
	vec("Position", s.Position)
	vec("Velocity", s.Velocity)
	vec("Heading", s.Heading)
	if s.Power != nil {
		parts = append(parts, fmt.Sprintf("Power output is %s of %s kW.", number(s.Power.Output), number(s.Power.Capacity)))
	}
	if len(parts) == 0 {
		return "Ship state unavailable."
	}
	return strings.Join(parts, "\n")
}

// number rounds to two decimals and drops trailing zeros.
func number(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
