package codec

import (
	"errors"
	"testing"

	"github.com/danmuck/vostok/internal/protocol"
	"github.com/danmuck/vostok/internal/protocol/command"
	"github.com/danmuck/vostok/internal/protocol/frame"
	"github.com/danmuck/vostok/internal/testutil/testlog"
)

func mustParse(t *testing.T, line string) command.Command {
	t.Helper()
	cmd, err := command.Parse(line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	return cmd
}

func TestEncodeWireLines(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		line string
		want string
	}{
		{"r GET GENERATOR", "GET GENERATOR\n"},
		{"r  some raw  text", "some raw  text\n"},
		{"echo hi", "ECHO hi\n"},
		{"generator", "GET GENERATOR\n"},
		{"generator set 0.5", "SET GENERATOR 0.5\n"},
		{"radar scan", "RADAR SCAN\n"},
		{"radar sector", "GET RADAR SECTOR\n"},
		{"radar on", "RADAR ON\n"},
		{"radar off", "RADAR OFF\n"},
		{"radar identify 7", "RADAR IDENTIFY 7\n"},
		{"crew", "CREW LIST\n"},
		{"ship position", "GET POSITION\n"},
		{"ship power", "GET POWER\n"},
		{"radio", "GET RADIO\n"},
		{"radio off", "RADIO OFF\n"},
		{"radio set 121.5", "SET RADIO 121.5\n"},
		{"rudder roll 1 yaw -0.5", "SET RUDDER YAW -0.5 ROLL 1\n"},
		{"thruster x 2", "SET THRUSTER X 2\n"},
		{"log write all quiet", "LOG WRITE all quiet\n"},
		{"log read", "LOG READ\n"},
		{"log clear", "LOG CLEAR\n"},
		{"time", "GET TIME\n"},
	}
	for _, tc := range cases {
		got, err := Encode(mustParse(t, tc.line), frame.DefaultLimits())
		if err != nil {
			t.Fatalf("encode %q: %v", tc.line, err)
		}
		if string(got) != tc.want {
			t.Fatalf("encode %q got=%q want=%q", tc.line, got, tc.want)
		}
	}
}

func TestEncodeRejectsLocalCommands(t *testing.T) {
	testlog.Start(t)
	for _, line := range []string{"help", "connect host:1961", "disconnect"} {
		if _, err := Encode(mustParse(t, line), frame.DefaultLimits()); !errors.Is(err, protocol.ErrInvalidCommand) {
			t.Fatalf("encode %q expected ErrInvalidCommand, got %v", line, err)
		}
	}
}

func TestEncodeRejectsOversizedLine(t *testing.T) {
	testlog.Start(t)
	cmd := command.Command{Kind: command.KindEcho, Text: "0123456789"}
	if _, err := Encode(cmd, frame.Limits{MaxLineBytes: 8}); !errors.Is(err, protocol.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestEncodeRudderWithoutAxes(t *testing.T) {
	testlog.Start(t)
	if _, err := Line(command.Command{Kind: command.KindRudder}); !errors.Is(err, protocol.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
}

func TestRecognizeQueryLines(t *testing.T) {
	testlog.Start(t)
	cmd, ok := Recognize(" GET GENERATOR ")
	if !ok || cmd.Kind != command.KindGeneratorGet {
		t.Fatalf("expected generator query, got %+v ok=%t", cmd, ok)
	}
	if _, ok := Recognize("SET GENERATOR 1"); ok {
		t.Fatalf("argument lines must not be recognized")
	}
	if _, ok := Recognize("get generator"); ok {
		t.Fatalf("recognition is case-sensitive")
	}
}
