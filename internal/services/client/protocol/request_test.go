package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestPerformActionRequestWireForm(t *testing.T) {
	user := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	request := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	version := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	in := PerformActionRequest{
		Metadata:            Metadata{UserID: user, RequestID: &request, LastResponseVersion: &version},
		Action:              UndoAction{Player: PlayerOne},
		LastResponseVersion: &version,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`"action":{"Undo":"One"}`,
		`"last_response_version":"00000000-0000-0000-0000-000000000003"`,
		`"request_id":"00000000-0000-0000-0000-000000000002"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("encoded = %s, want substring %s", text, want)
		}
	}
	if strings.Contains(text, "battle_id") {
		t.Fatalf("encoded = %s, want battle_id omitted", text)
	}

	var out PerformActionRequest
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Action != (UndoAction{Player: PlayerOne}) {
		t.Fatalf("action = %#v", out.Action)
	}
	if out.LastResponseVersion == nil || *out.LastResponseVersion != version {
		t.Fatalf("version = %v, want %v", out.LastResponseVersion, version)
	}
}

func TestPollResponseDecodesNone(t *testing.T) {
	var resp PollResponse
	data := `{"metadata":{"user_id":"00000000-0000-0000-0000-000000000001"},"response_type":"None"}`
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ResponseType != PollNone {
		t.Fatalf("type = %q, want %q", resp.ResponseType, PollNone)
	}
	if resp.Commands != nil {
		t.Fatalf("commands = %+v, want nil", resp.Commands)
	}
}
