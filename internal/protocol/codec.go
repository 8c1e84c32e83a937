package protocol

import (
	"bufio"
	"encoding/json"
	"io"
)

// MaxLineBytes bounds a single frame. Attachments travel base64-encoded
// inside message frames, so lines can be large.
const MaxLineBytes = 16 << 20

const initialScanBytes = 64 * 1024

// NewScanner returns a line scanner sized for protocol frames.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, initialScanBytes), MaxLineBytes)
	return sc
}

// Decode parses one frame. Any line that is not a JSON object fails.
func Decode(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Encode writes v as a single newline-terminated JSON frame. Non-ASCII
// text passes through unescaped.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
