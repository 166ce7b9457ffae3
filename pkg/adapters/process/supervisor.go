package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/orrery/internal/logging"
	"github.com/cenkalti/backoff/v5"
)

var (
	// ErrNotRegistered is returned when starting a producer that is not on the allow-list.
	ErrNotRegistered = errors.New("producer not registered")
	// ErrExited is returned by WaitReady when the process ends before it is ready.
	ErrExited = errors.New("producer exited")
)

// Defaults for readiness and shutdown.
const (
	DefaultReadyTimeout = 30 * time.Second
	DefaultStopGrace    = 5 * time.Second
)

// Supervisor launches producer processes from a strict allow-list.
// Only registered producers can be started; nothing is run from ad-hoc input.
type Supervisor struct {
	mu           sync.Mutex
	registry     map[string]ProducerConfig
	baseDir      string
	logger       *slog.Logger
	readyTimeout time.Duration
	stopGrace    time.Duration
	client       *http.Client
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(producers map[string]ProducerConfig) Option {
	return func(s *Supervisor) {
		for _, p := range producers {
			s.registry[p.Name] = p
		}
	}
}

// WithBaseDir sets the working directory for producers without their own dir.
func WithBaseDir(dir string) Option {
	return func(s *Supervisor) {
		s.baseDir = dir
	}
}

// WithLogger sets the logger that also receives the producers' output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithReadyTimeout bounds WaitReady.
func WithReadyTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.readyTimeout = d
	}
}

// WithStopGrace is how long Stop waits after the interrupt before killing.
func WithStopGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopGrace = d
	}
}

// NewSupervisor creates a supervisor with an empty allow-list.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		registry:     make(map[string]ProducerConfig),
		logger:       logging.NewNop(),
		readyTimeout: DefaultReadyTimeout,
		stopGrace:    DefaultStopGrace,
		client:       &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a trusted producer to the allow-list.
func (s *Supervisor) Register(p ProducerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[p.Name] = p
}

// Names lists the registered producers, sorted.
func (s *Supervisor) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registered producer called name.
func (s *Supervisor) Lookup(name string) (ProducerConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.registry[name]
	return p, ok
}

// Start launches the producer called name. The process lives until Stop is
// called or ctx is cancelled.
func (s *Supervisor) Start(ctx context.Context, name string) (*Process, error) {
	cfg, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	if cmd.Dir == "" {
		cmd.Dir = s.baseDir
	}
	env := cmd.Environ()
	for k, v := range cfg.Environment {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(env, "ORRERY_PRODUCER="+cfg.Name)

	logger := s.logger.With("producer", cfg.Name)
	stdout := &lineLogger{logger: logger, stream: "stdout"}
	stderr := &lineLogger{logger: logger, stream: "stderr"}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = s.stopGrace

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start producer %s: %w", cfg.Name, err)
	}
	logger.Info("producer started", "pid", cmd.Process.Pid, "command", cfg.Command)

	p := &Process{
		Config: cfg,
		cmd:    cmd,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logger,
		client: s.client,
		ready:  s.readyTimeout,
	}
	go func() {
		err := cmd.Wait()
		stdout.Flush()
		stderr.Flush()
		p.mu.Lock()
		if p.stopping && procCtx.Err() != nil {
			err = nil
		}
		p.err = err
		p.mu.Unlock()
		logger.Info("producer exited", "pid", cmd.Process.Pid, "error", err)
		close(p.done)
	}()
	return p, nil
}

// Process is one running producer.
type Process struct {
	Config ProducerConfig

	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
	client *http.Client
	ready  time.Duration

	mu       sync.Mutex
	stopping bool
	err      error
}

// PID is the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err is the exit error, valid after Done. A requested stop is not an error.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// WaitReady polls url (Config.Ready when url is empty) until it answers
// below 500, the process exits or the ready timeout passes.
func (p *Process) WaitReady(ctx context.Context, url string) error {
	if url == "" {
		url = p.Config.Ready
	}
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.ready)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		select {
		case <-p.done:
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w before ready: %v", ErrExited, p.Err()))
		default:
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return struct{}{}, fmt.Errorf("ready check returned %d", resp.StatusCode)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(b))
	if err != nil {
		return fmt.Errorf("producer %s not ready: %w", p.Config.Name, err)
	}
	p.logger.Info("producer ready", "url", url, "attempts", attempts)
	return nil
}

// Stop interrupts the process, kills it after the grace period and waits for it.
func (p *Process) Stop() error {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()
	p.cancel()
	<-p.done
	return p.Err()
}

// lineLogger logs each complete line written to it.
type lineLogger struct {
	mu     sync.Mutex
	logger *slog.Logger
	stream string
	buf    bytes.Buffer
}

func (l *lineLogger) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(b)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			l.buf.Reset()
			l.buf.WriteString(line)
			return len(b), nil
		}
		l.emit(line[:len(line)-1])
	}
}

// Flush logs a trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buf.Len() > 0 {
		l.emit(l.buf.String())
		l.buf.Reset()
	}
}

func (l *lineLogger) emit(line string) {
	line = string(bytes.TrimRight([]byte(line), "\r"))
	if line == "" {
		return
	}
	l.logger.Info(line, "stream", l.stream)
}
