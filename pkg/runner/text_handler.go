package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/orrery/pkg/domain"
)

// TextHandler implements the prompt-based console.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Prompt   string

	mu        sync.Mutex
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the markdown renderer used for help and notices.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPrompt replaces the "> " prompt. An empty prompt disables it.
func WithPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler reading r and writing w.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines until EOF so that Input can honour ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Input prompts and reads one line. Invalid input is reported and the prompt repeats.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			h.write(h.Prompt)
		}

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
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				h.write(fmt.Sprintf("Error: %v. Please try again.\n", err))
				continue
			}
			if clean == "" {
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, reply Reply) error {
	var b strings.Builder
	switch {
	case reply.Error != "":
		fmt.Fprintf(&b, "error: %s\n", reply.Error)
	case reply.Positions != nil:
		ids := make([]string, 0, len(reply.Positions))
		for id := range reply.Positions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			p := reply.Positions[id]
			fmt.Fprintf(&b, "%-12s % .4f % .4f % .4f\n", id, p.X, p.Y, p.Z)
		}
		if len(ids) == 0 {
			b.WriteString("no frame played yet\n")
		}
	default:
		if reply.Message != "" {
			b.WriteString(h.render(reply.Message))
			b.WriteString("\n")
		}
		if reply.Status != nil {
			b.WriteString(FormatStatus(*reply.Status))
			b.WriteString("\n")
		}
	}
	h.write(b.String())
	return nil
}

// SystemOutput prints msg on its own line with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.write(fmt.Sprintf("\n[System] %s\n", msg))
	return nil
}

func (h *TextHandler) render(md string) string {
	if h.Renderer == nil {
		return md
	}
	out, err := h.Renderer(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func (h *TextHandler) write(s string) {
	if s == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprint(h.Writer, s)
}

// FormatStatus renders a status as one line.
func FormatStatus(st domain.Status) string {
	line := fmt.Sprintf("%s | %.2f years | frame %d | buffered %d (%.1fs) | follow %s",
		st.State, st.ElapsedYears, st.FramesPlayed, st.Buffered-st.Cursor, st.RemainingSeconds, onOff(st.Following))
	if st.Stalled {
		line += " | stalled"
	}
	if st.FailureStreak > 0 {
		line += fmt.Sprintf(" | %d failed fetches", st.FailureStreak)
	}
	if st.Closed {
		line += " | closed"
	}
	return line
}
