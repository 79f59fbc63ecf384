// Package codec maps commands to wire lines and framed reply bodies back to
// structured responses.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/vostok/internal/protocol"
	"github.com/danmuck/vostok/internal/protocol/command"
	"github.com/danmuck/vostok/internal/protocol/frame"
)

var keywords = map[command.Kind]string{
	command.KindGeneratorGet: "GET GENERATOR",
	command.KindRadarScan:    "RADAR SCAN",
	command.KindRadarSector:  "GET RADAR SECTOR",
	command.KindCrewList:     "CREW LIST",
	command.KindShipPosition: "GET POSITION",
	command.KindShipVelocity: "GET VELOCITY",
	command.KindShipHeading:  "GET HEADING",
	command.KindShipPower:    "GET POWER",
	command.KindRadioGet:     "GET RADIO",
	command.KindLogRead:      "LOG READ",
	command.KindLogClear:     "LOG CLEAR",
	command.KindTime:         "GET TIME",
}

// Encode serializes cmd into one newline-terminated wire line. Local commands
// (help, connect, disconnect) have no wire form.
func Encode(cmd command.Command, limits frame.Limits) ([]byte, error) {
	line, err := Line(cmd)
	if err != nil {
		return nil, err
	}
	b, err := frame.EncodeLine(line, limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", protocol.ErrInvalidCommand, cmd.Kind, err)
	}
	return b, nil
}

// Line returns the wire text for cmd without the terminator.
func Line(cmd command.Command) (string, error) {
	if cmd.Kind.Local() {
		return "", fmt.Errorf("%w: %s is handled locally", protocol.ErrInvalidCommand, cmd.Kind)
	}
	if kw, ok := keywords[cmd.Kind]; ok {
		return kw, nil
	}
	switch cmd.Kind {
	case command.KindRaw:
		return cmd.Text, nil
	case command.KindEcho:
		return "ECHO " + cmd.Text, nil
	case command.KindGeneratorSet:
		return "SET GENERATOR " + formatNumber(cmd.Value), nil
	case command.KindRadarOn:
		return "RADAR " + onOff(cmd.On), nil
	case command.KindRadarIdentify:
		return "RADAR IDENTIFY " + cmd.Text, nil
	case command.KindRadioOn:
		return "RADIO " + onOff(cmd.On), nil
	case command.KindRadioSet:
		return "SET RADIO " + formatNumber(cmd.Value), nil
	case command.KindLogWrite:
		return "LOG WRITE " + cmd.Text, nil
	case command.KindRudder:
		return axesLine("SET RUDDER", []namedAxis{{"YAW", cmd.Yaw}, {"PITCH", cmd.Pitch}, {"ROLL", cmd.Roll}})
	case command.KindThruster:
		return axesLine("SET THRUSTER", []namedAxis{{"X", cmd.X}, {"Y", cmd.Y}})
	default:
		return "", fmt.Errorf("%w: %s has no wire form", protocol.ErrInvalidCommand, cmd.Kind)
	}
}

type namedAxis struct {
	name  string
	value *float64
}

func axesLine(prefix string, axes []namedAxis) (string, error) {
	parts := []string{prefix}
	for _, a := range axes {
		if a.value == nil {
			continue
		}
		parts = append(parts, a.name, formatNumber(*a.value))
	}
	if len(parts) == 1 {
		return "", fmt.Errorf("%w: %s needs at least one axis", protocol.ErrInvalidCommand, prefix)
	}
	return strings.Join(parts, " "), nil
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Recognize maps a raw line that spells one of the fixed query lines back to
// its structured command, so raw queries still decode into typed responses.
func Recognize(line string) (command.Command, bool) {
	text := strings.TrimSpace(line)
	for kind, kw := range keywords {
		if kw == text {
			return command.Command{Kind: kind}, true
		}
	}
	return command.Command{}, false
}
