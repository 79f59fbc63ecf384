package codec

import "fmt"

type ResponseKind int

const (
	ResponseOk ResponseKind = iota
	ResponseError
	ResponseGeneratorGet
	ResponseRadarScan
	ResponseRadarSector
	ResponseEcho
	ResponseLogRead
	ResponseCrew
	ResponseShipState
	ResponseRadio
	ResponseTime
	ResponseRaw
)

var responseNames = map[ResponseKind]string{
	ResponseOk:           "ok",
	ResponseError:        "error",
	ResponseGeneratorGet: "generator_get",
	ResponseRadarScan:    "radar_scan",
	ResponseRadarSector:  "radar_sector",
	ResponseEcho:         "echo",
	ResponseLogRead:      "log_read",
	ResponseCrew:         "crew",
	ResponseShipState:    "ship_state",
	ResponseRadio:        "radio",
	ResponseTime:         "time",
	ResponseRaw:          "raw",
}

func (k ResponseKind) String() string {
	if name, ok := responseNames[k]; ok {
		return name
	}
	return fmt.Sprintf("response(%d)", int(k))
}

// RadarObject is one radar contact.
type RadarObject struct {
	Range     float64
	Elevation float64
	Azimuth   float64
}

type CrewMember struct {
	Name string
}

type Vector3 struct {
	X, Y, Z float64
}

// PowerReading holds the two figures reported by the power query, in the
// order the server prints them.
type PowerReading struct {
	Output   float64
	Capacity float64
}

// ShipState carries whichever ship fields the query returned.
type ShipState struct {
	Position *Vector3
	Velocity *Vector3
	Heading  *Vector3
	Power    *PowerReading
}

// Response is the decoded reply to one transmitted command. Only the fields
// relevant to Kind are set.
type Response struct {
	Kind ResponseKind

	// Text holds the error message, echo text, log contents or raw body.
	Text string

	Factor   float64
	OutputKW float64

	Objects []RadarObject
	Angle   float64
	Crew    []CrewMember
	Ship    ShipState
	RadioOn bool
	Time    float64
}
