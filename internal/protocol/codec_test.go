package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeRejectsMalformedLine(t *testing.T) {
	if _, err := Decode([]byte("this is not json")); err == nil {
		t.Fatal("Decode() accepted a malformed line")
	}
}

func TestEncodeWritesSingleUnescapedLine(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, SendMessageResponse{OK: true, Action: ActionSendMessage, Target: "room:a<b>", Kind: "text"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("Encode() output %q is not newline terminated", line)
	}
	if strings.Count(line, "\n") != 1 {
		t.Fatalf("Encode() output %q spans more than one line", line)
	}
	if !strings.Contains(line, "room:a<b>") {
		t.Fatalf("Encode() output %q escaped the target", line)
	}
}

func TestErrorReplyOmitsActionKey(t *testing.T) {
	raw, err := json.Marshal(ErrorReply("invalid_json"))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if got := string(raw); got != `{"ok":false,"error":"invalid_json"}` {
		t.Fatalf("error frame = %s, want ok and error only", got)
	}
}

func TestScannerHandlesOversizedFrames(t *testing.T) {
	// Attachment frames blow well past bufio's default 64 KiB line cap.
	payload := strings.Repeat("A", 200*1024)
	line := `{"action":"send_message","target":"room:general","kind":"file","filename":"big.bin","content":"` + payload + `"}` + "\n"

	sc := NewScanner(strings.NewReader(line))
	if !sc.Scan() {
		t.Fatalf("Scan() = false, err = %v", sc.Err())
	}
	req, err := Decode(sc.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if req.Action != ActionSendMessage || len(req.Content) != len(payload) {
		t.Fatalf("Decode() = action %q with %d content bytes, want send_message with %d", req.Action, len(req.Content), len(payload))
	}
}

func TestParseTarget(t *testing.T) {
	testCases := []struct {
		name      string
		target    string
		wantClass string
		wantName  string
		wantOK    bool
	}{
		{name: "room", target: "room:general", wantClass: TargetRoom, wantName: "general", wantOK: true},
		{name: "chat_keeps_colons", target: "chat:alice:bob", wantClass: TargetChat, wantName: "alice:bob", wantOK: true},
		{name: "empty_name", target: "room:", wantClass: TargetRoom, wantName: "", wantOK: true},
		{name: "unknown_class", target: "dm:alice", wantOK: false},
		{name: "no_separator", target: "general", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			class, name, ok := ParseTarget(tc.target)
			if ok != tc.wantOK {
				t.Fatalf("ParseTarget(%q) ok = %v, want %v", tc.target, ok, tc.wantOK)
			}
			if ok && (class != tc.wantClass || name != tc.wantName) {
				t.Fatalf("ParseTarget(%q) = %q, %q, want %q, %q", tc.target, class, name, tc.wantClass, tc.wantName)
			}
		})
	}
}

func TestKnownControlAction(t *testing.T) {
	if !KnownControlAction(ActionLogin) {
		t.Fatal("KnownControlAction(login) = false")
	}
	// Media actions are not part of the control vocabulary.
	if KnownControlAction(ActionMediaLogin) {
		t.Fatal("KnownControlAction(media_login) = true")
	}
	if KnownControlAction("destroy_everything") {
		t.Fatal("KnownControlAction() = true for an unknown action")
	}
}
