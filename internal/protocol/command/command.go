// Package command owns the console command grammar: the structured commands a
// user can issue and the parser that produces them from typed lines.
package command

import "fmt"

type Kind int

const (
	KindHelp Kind = iota
	KindConnect
	KindDisconnect
	KindRaw
	KindEcho
	KindGeneratorGet
	KindGeneratorSet
	KindRadarScan
	KindRadarSector
	KindRadarOn
	KindRadarIdentify
	KindCrewList
	KindShipPosition
	KindShipVelocity
	KindShipHeading
	KindShipPower
	KindRadioGet
	KindRadioOn
	KindRadioSet
	KindRudder
	KindThruster
	KindLogWrite
	KindLogRead
	KindLogClear
	KindTime
)

var kindNames = map[Kind]string{
	KindHelp:          "help",
	KindConnect:       "connect",
	KindDisconnect:    "disconnect",
	KindRaw:           "raw",
	KindEcho:          "echo",
	KindGeneratorGet:  "generator_get",
	KindGeneratorSet:  "generator_set",
	KindRadarScan:     "radar_scan",
	KindRadarSector:   "radar_sector",
	KindRadarOn:       "radar_on",
	KindRadarIdentify: "radar_identify",
	KindCrewList:      "crew_list",
	KindShipPosition:  "ship_position",
	KindShipVelocity:  "ship_velocity",
	KindShipHeading:   "ship_heading",
	KindShipPower:     "ship_power",
	KindRadioGet:      "radio_get",
	KindRadioOn:       "radio_on",
	KindRadioSet:      "radio_set",
	KindRudder:        "rudder",
	KindThruster:      "thruster",
	KindLogWrite:      "log_write",
	KindLogRead:       "log_read",
	KindLogClear:      "log_clear",
	KindTime:          "time",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Local reports whether the command is handled by the client itself rather
// than transmitted to the server.
func (k Kind) Local() bool {
	return k == KindHelp || k == KindConnect || k == KindDisconnect
}

// Command is one parsed user command. Only the fields relevant to Kind are
// set; it is treated as immutable after Parse returns it.
type Command struct {
	Kind Kind

	// Address names a host:port or a configured target for KindConnect.
	Address string
	// Text carries raw pass-through text, echo text, log text or a radar
	// contact id.
	Text string
	// Value is the numeric argument of GeneratorSet and RadioSet.
	Value float64
	// On is the switch state of RadarOn and RadioOn.
	On bool

	Yaw   *float64
	Pitch *float64
	Roll  *float64

	X *float64
	Y *float64
}

func (c Command) String() string {
	switch c.Kind {
	case KindConnect:
		return fmt.Sprintf("connect(%s)", c.Address)
	case KindRaw, KindEcho, KindLogWrite, KindRadarIdentify:
		return fmt.Sprintf("%s(%q)", c.Kind, c.Text)
	case KindGeneratorSet, KindRadioSet:
		return fmt.Sprintf("%s(%g)", c.Kind, c.Value)
	case KindRadarOn, KindRadioOn:
		return fmt.Sprintf("%s(%t)", c.Kind, c.On)
	default:
		return c.Kind.String()
	}
}
