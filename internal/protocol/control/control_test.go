package control_test

import (
	"encoding/json"
	"testing"

	"ghostchat/internal/protocol/control"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	cases := []control.Message{
		control.Renegotiate(json.RawMessage(`{"type":"offer","sdp":"v=0"}`)),
		control.CallRequest(),
		control.CallResponse(true),
		control.CallResponse(false),
		control.CallEnd(),
		control.SecurityAlert("replay detected"),
		control.CallSecurityAlert(json.RawMessage(`{"kind":"srtp","detail":"x"}`)),
		control.Ack(42),
	}
	for _, in := range cases {
		encoded, err := in.Encode()
		if err != nil {
			t.Fatalf("Encode(%s): %v", in.Type, err)
		}
		out, ok := control.Parse(encoded)
		if !ok {
			t.Fatalf("Parse(%s): not recognized", in.Type)
		}
		if out.Type != in.Type || out.Accepted != in.Accepted || out.Counter != in.Counter {
			t.Fatalf("Parse(%s): got %+v", in.Type, out)
		}
	}
}

func TestParseTreatsNonControlAsChat(t *testing.T) {
	chat := []string{
		"hello there",
		`"just a quoted string"`,
		`{"type":"unknown-kind"}`,
		`{"no":"type field"}`,
		`[1,2,3]`,
		"",
	}
	for _, in := range chat {
		if _, ok := control.Parse(in); ok {
			t.Errorf("Parse(%q) recognized chat text as control", in)
		}
	}
}

func TestSecurityAlertCarriesString(t *testing.T) {
	msg := control.SecurityAlert("counter regression")
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, ok := control.Parse(encoded)
	if !ok {
		t.Fatal("Parse: not recognized")
	}
	var alert string
	if err := json.Unmarshal(out.Alert, &alert); err != nil {
		t.Fatalf("alert payload: %v", err)
	}
	if alert != "counter regression" {
		t.Fatalf("alert mismatch: %q", alert)
	}
}
