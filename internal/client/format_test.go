package client

import (
	"testing"

	"github.com/danmuck/vostok/internal/protocol/codec"
	"github.com/danmuck/vostok/internal/testutil/testlog"
)

func TestFormatResponseTemplates(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		resp codec.Response
		want string
	}{
		{codec.Response{Kind: codec.ResponseOk}, "ok"},
		{codec.Response{Kind: codec.ResponseError, Text: "no such contact"}, "Error: no such contact"},
		{codec.Response{Kind: codec.ResponseGeneratorGet, Factor: 0.5, OutputKW: 120}, "Generator is set to 50% and power output is 120 kW."},
		{codec.Response{Kind: codec.ResponseGeneratorGet, Factor: 0.333, OutputKW: 10.456}, "Generator is set to 33.3% and power output is 10.46 kW."},
		{codec.Response{Kind: codec.ResponseRadarSector, Angle: 90}, "Radar sector is set to 90 degrees."},
		{codec.Response{Kind: codec.ResponseRadarScan}, "Radar contacts: none"},
		{codec.Response{Kind: codec.ResponseRadarScan, Objects: []codec.RadarObject{{Range: 10, Elevation: -1, Azimuth: 2.5}}},
			"Radar contacts (1):\n  #1 range 10 elevation -1 azimuth 2.5"},
		{codec.Response{Kind: codec.ResponseCrew}, "No crew aboard."},
		{codec.Response{Kind: codec.ResponseRadio, RadioOn: true}, "Radio is on."},
		{codec.Response{Kind: codec.ResponseTime, Time: 12.5}, "Ship time is 12.5."},
		{codec.Response{Kind: codec.ResponseLogRead}, "Ship log is empty."},
		{codec.Response{Kind: codec.ResponseShipState, Ship: codec.ShipState{Velocity: &codec.Vector3{X: 1, Y: 0, Z: -0.001}}},
			"Velocity: 1, 0, 0"},
		{codec.Response{Kind: codec.ResponseShipState, Ship: codec.ShipState{Power: &codec.PowerReading{Output: 40, Capacity: 100}}},
			"Power output is 40 of 100 kW."},
		{codec.Response{Kind: codec.ResponseKind(99)}, "Unimplemented server response response(99)!"},
	}
	for _, tc := range cases {
		got := FormatResponse(tc.resp)
		if got.Kind != MessageLogLine || got.Text != tc.want {
			t.Fatalf("format %s got=%s %q want=%q", tc.resp.Kind, got.Kind, got.Text, tc.want)
		}
	}
}

func TestFormatRawUsesUnterminatedLog(t *testing.T) {
	testlog.Start(t)
	got := FormatResponse(codec.Response{Kind: codec.ResponseRaw, Text: "GET TIME\n42\n"})
	if got.Kind != MessageLog || got.Render() != "Raw command response:\nGET TIME\n42\n" {
		t.Fatalf("unexpected raw message: %+v", got)
	}
}

func TestRenderStatusMessages(t *testing.T) {
	testlog.Start(t)
	if got := Connected("10.0.0.1:1961").Render(); got != "Connected to 10.0.0.1:1961\n" {
		t.Fatalf("unexpected connected render: %q", got)
	}
	if got := ClearInputField().Render(); got != "" {
		t.Fatalf("clear input must render empty, got %q", got)
	}
	if got := LogLine("ok").Render(); got != "ok\n" {
		t.Fatalf("unexpected log line render: %q", got)
	}
}
