package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
)

// JSONHandler implements IOHandler over JSON Lines.
// Input accepts {"cmd":"play"}, a JSON string or a bare word; every reply is one JSON object.
type JSONHandler struct {
	Reader *bufio.Reader

	mu      sync.Mutex
	encoder *json.Encoder

	inputChan chan inputResult
	startOnce sync.Once
}

// NewJSONHandler creates a handler reading r and writing w.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
	}
}

type commandLine struct {
	Cmd string `json:"cmd"`
}

func (h *JSONHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go func() {
			defer close(h.inputChan)
			for {
				text, err := h.Reader.ReadString('\n')
				if strings.TrimSpace(text) != "" {
					h.inputChan <- inputResult{text: text}
				}
				if err != nil {
					if err != io.EOF {
						h.inputChan <- inputResult{err: err}
					}
					return
				}
			}
		}()
	})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	h.initPump()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			text, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				h.Output(ctx, Reply{Error: err.Error()})
				continue
			}
			return decodeCommand(text), nil
		}
	}
}

func decodeCommand(text string) string {
	var line commandLine
	if err := json.Unmarshal([]byte(text), &line); err == nil && line.Cmd != "" {
		return line.Cmd
	}
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s
	}
	return text
}

func (h *JSONHandler) Output(ctx context.Context, reply Reply) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(reply)
}

// SystemOutput emits {"message": msg}.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Output(ctx, Reply{Message: msg})
}
