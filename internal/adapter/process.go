package adapter

import (
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/console"
	"github.com/yourusername/fleet-manager/internal/metrics"
	"github.com/yourusername/fleet-manager/internal/store"
)

// adoptedPollInterval is how often an adopted pid is checked for liveness.
// Adopted processes have no Wait handle, polling is the only exit signal.
const adoptedPollInterval = 2 * time.Second

// ProcessAdapter supervises a game server as a local OS process with
// stdin/stdout/stderr pipes. It owns the lifecycle state machine and is the
// only writer of the server's persisted runtime state.
type ProcessAdapter struct {
	serviceBoundary

	def      config.ServerDefinition
	defaults config.SupervisorConfig
	store    store.Store
	pipeline *console.Pipeline
	probe    *metrics.Probe

	mu        sync.Mutex
	status    Status
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	connected bool
	exitCh    chan struct{}
	// gen invalidates watchers from a previous process after disconnect
	// or respawn
	gen int

	stdinMu sync.Mutex
	stdin   io.WriteCloser
}

// NewProcessAdapter creates an adapter for one server definition. The
// adapter starts detached with status stopped; reconnection to an orphaned
// process is the reconnect manager's job.
func NewProcessAdapter(def config.ServerDefinition, defaults config.SupervisorConfig, st store.Store) *ProcessAdapter {
	return &ProcessAdapter{
		def:      def,
		defaults: defaults,
		store:    st,
		pipeline: console.NewPipeline(def.ID, defaults.LogBufferSize),
		probe:    metrics.NewProbe(def.ID),
		status:   StatusStopped,
	}
}

func (p *ProcessAdapter) ServerID() string {
	return p.def.ID
}

// Start spawns the server process and transitions stopped -> starting. It
// returns once the process is launched; promotion to running happens
// asynchronously when the readiness marker appears on the console, or
// optimistically after the startup timeout.
func (p *ProcessAdapter) Start() error {
	p.mu.Lock()

	switch p.status {
	case StatusStarting, StatusRunning, StatusStopping:
		p.mu.Unlock()
		return ErrAlreadyRunning
	}

	cmd := p.buildCommand()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		p.mu.Unlock()
		return &SpawnError{ServerID: p.def.ID, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.mu.Unlock()
		return &SpawnError{ServerID: p.def.ID, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.mu.Unlock()
		return &SpawnError{ServerID: p.def.ID, Err: err}
	}

	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return &SpawnError{ServerID: p.def.ID, Err: err}
	}

	p.gen++
	gen := p.gen
	p.cmd = cmd
	p.pid = cmd.Process.Pid
	p.startedAt = time.Now()
	p.status = StatusStarting
	p.connected = true
	p.exitCh = make(chan struct{})

	pid := p.pid
	launchedAt := p.startedAt
	exitCh := p.exitCh

	// Store writes happen under the state mutex so transitions persist in
	// the order they occurred
	if err := p.store.SaveRuntime(p.def.ID, pid, launchedAt, string(StatusStarting)); err != nil {
		log.Printf("[Adapter] Failed to persist runtime for server %s: %v", p.def.ID, err)
	}
	p.mu.Unlock()

	p.stdinMu.Lock()
	p.stdin = stdin
	p.stdinMu.Unlock()

	p.probe.Reset()
	p.pipeline.Attach(stdout, "stdout")
	p.pipeline.Attach(stderr, "stderr")

	log.Printf("[Adapter] Server %s spawned (pid %d)", p.def.ID, pid)

	p.watchReadiness(gen, launchedAt, exitCh)

	go func() {
		waitErr := cmd.Wait()
		p.handleExit(gen, waitErr)
	}()

	return nil
}

// Stop sends the configured stop command over stdin and races process exit
// against the grace timer. A timer win escalates to a forced kill of the
// process group. Stop is idempotent and the final state is stopped either way.
func (p *ProcessAdapter) Stop() error {
	p.mu.Lock()
	// A detached handle has no process to stop. Disconnect left the pid
	// persisted on purpose, the next manager instance adopts it.
	if !p.connected {
		p.mu.Unlock()
		return nil
	}
	switch p.status {
	case StatusStopped, StatusCrashed:
		p.mu.Unlock()
		return nil
	case StatusStopping:
		exitCh := p.exitCh
		p.mu.Unlock()
		<-exitCh
		return nil
	}

	p.status = StatusStopping
	pid := p.pid
	exitCh := p.exitCh
	if err := p.store.SetStatus(p.def.ID, string(StatusStopping)); err != nil {
		log.Printf("[Adapter] Failed to persist status for server %s: %v", p.def.ID, err)
	}
	p.mu.Unlock()

	stopCmd := p.stopCommand()
	log.Printf("[Adapter] Stopping server %s (pid %d) with %q", p.def.ID, pid, stopCmd)
	if err := p.writeStdin(stopCmd); err != nil {
		log.Printf("[Adapter] Failed to send stop command to server %s: %v", p.def.ID, err)
	}

	grace := p.stopTimeout()
	select {
	case <-exitCh:
	case <-time.After(grace):
		log.Printf("[Adapter] Server %s did not exit within %v, force killing pid %d", p.def.ID, grace, pid)
		if err := killTree(pid); err != nil {
			log.Printf("[Adapter] Failed to kill process group %d: %v", pid, err)
		}
		select {
		case <-exitCh:
		case <-time.After(10 * time.Second):
			return fmt.Errorf("server %s did not exit after forced kill", p.def.ID)
		}
	}

	return nil
}

// Restart performs a full stop/start cycle with the configured delay between.
func (p *ProcessAdapter) Restart() error {
	p.mu.Lock()
	status := p.status
	p.mu.Unlock()

	if status == StatusRunning || status == StatusStarting || status == StatusStopping {
		if err := p.Stop(); err != nil {
			return fmt.Errorf("failed to stop server %s for restart: %w", p.def.ID, err)
		}
	}

	time.Sleep(p.restartDelay())
	return p.Start()
}

// Kill is immediate forced termination from any state.
func (p *ProcessAdapter) Kill() error {
	p.mu.Lock()
	if !p.connected || p.pid == 0 {
		p.mu.Unlock()
		return nil
	}
	p.status = StatusStopping
	pid := p.pid
	exitCh := p.exitCh
	if err := p.store.SetStatus(p.def.ID, string(StatusStopping)); err != nil {
		log.Printf("[Adapter] Failed to persist status for server %s: %v", p.def.ID, err)
	}
	p.mu.Unlock()

	log.Printf("[Adapter] Killing server %s (pid %d)", p.def.ID, pid)
	if err := killTree(pid); err != nil {
		log.Printf("[Adapter] Failed to kill process group %d: %v", pid, err)
	}

	select {
	case <-exitCh:
	case <-time.After(10 * time.Second):
		return fmt.Errorf("server %s did not exit after kill", p.def.ID)
	}
	return nil
}

// Reconnect attaches to a process that was already running when the manager
// started. No spawn happens; the handle is rebuilt from the persisted start
// time. Console pipes of a foreign pid cannot be reattached, so log capture
// resumes empty until the next restart.
func (p *ProcessAdapter) Reconnect(pid int) bool {
	p.mu.Lock()
	if p.connected {
		p.mu.Unlock()
		return false
	}
	if !processAlive(pid) {
		p.mu.Unlock()
		return false
	}

	p.gen++
	gen := p.gen
	p.cmd = nil
	p.pid = pid
	p.status = StatusRunning
	p.connected = true
	p.exitCh = make(chan struct{})

	startedAt := time.Now()
	if state, err := p.store.GetState(p.def.ID); err == nil && state.StartedAt != nil {
		startedAt = *state.StartedAt
	}
	p.startedAt = startedAt
	exitCh := p.exitCh
	if err := p.store.SaveRuntime(p.def.ID, pid, startedAt, string(StatusRunning)); err != nil {
		log.Printf("[Adapter] Failed to persist runtime for server %s: %v", p.def.ID, err)
	}
	p.mu.Unlock()

	p.probe.Reset()

	log.Printf("[Adapter] Reconnected to server %s (pid %d)", p.def.ID, pid)

	go p.watchAdopted(gen, pid, exitCh)
	return true
}

// Disconnect detaches watchers and pipes without terminating the process.
// The persisted pid stays so the next manager instance can adopt it.
func (p *ProcessAdapter) Disconnect() {
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return
	}
	p.gen++
	p.connected = false
	p.cmd = nil
	pid := p.pid
	p.mu.Unlock()

	p.stdinMu.Lock()
	p.stdin = nil
	p.stdinMu.Unlock()

	log.Printf("[Adapter] Disconnected from server %s, pid %d left running", p.def.ID, pid)
}

func (p *ProcessAdapter) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *ProcessAdapter) GetPid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *ProcessAdapter) GetStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// GetMetrics samples the process tree. A stopped server yields a zeroed
// snapshot, never an error.
func (p *ProcessAdapter) GetMetrics() metrics.Snapshot {
	p.mu.Lock()
	pid := p.pid
	startedAt := p.startedAt
	p.mu.Unlock()

	return p.probe.Collect(pid, startedAt)
}

// SendCommand delivers one console command over stdin. Delivery failures
// are reported in the result, not as errors.
func (p *ProcessAdapter) SendCommand(command string) CommandResult {
	executedAt := time.Now()

	p.mu.Lock()
	status := p.status
	p.mu.Unlock()

	result := CommandResult{ExecutedAt: executedAt}

	if status != StatusRunning && status != StatusStarting {
		result.Output = "server is not running"
	} else if err := p.writeStdin(command); err != nil {
		result.Output = fmt.Sprintf("failed to deliver command: %v", err)
	} else {
		result.Success = true
	}

	if err := p.store.RecordCommand(p.def.ID, command, result.Success, executedAt); err != nil {
		log.Printf("[Adapter] Failed to record command for server %s: %v", p.def.ID, err)
	}

	return result
}

// StreamLogs registers a live log subscriber. Buffered history is replayed
// before live entries; the returned ID unregisters via StopLogStream.
func (p *ProcessAdapter) StreamLogs(callback console.Subscriber) string {
	return p.pipeline.Subscribe(callback)
}

func (p *ProcessAdapter) StopLogStream(subscriptionID string) {
	p.pipeline.Unsubscribe(subscriptionID)
}

func (p *ProcessAdapter) GetLogs(limit int) []console.LogEntry {
	return p.pipeline.GetLast(limit)
}

// buildCommand assembles the launch command from the server definition.
// A .jar entry file gets the JVM memory flags; anything else is executed
// directly with the entry file as trailing argument.
func (p *ProcessAdapter) buildCommand() *exec.Cmd {
	gs := p.def.Server

	var args []string
	if strings.HasSuffix(strings.ToLower(gs.EntryFile), ".jar") {
		if gs.MinMemoryMB > 0 {
			args = append(args, fmt.Sprintf("-Xms%dM", gs.MinMemoryMB))
		}
		if gs.MaxMemoryMB > 0 {
			args = append(args, fmt.Sprintf("-Xmx%dM", gs.MaxMemoryMB))
		}
		args = append(args, gs.ExtraArgs...)
		args = append(args, "-jar", gs.EntryFile)
	} else {
		args = append(args, gs.ExtraArgs...)
		if gs.EntryFile != "" {
			args = append(args, gs.EntryFile)
		}
	}
	if gs.BindAddress != "" {
		args = append(args, "--bind", gs.BindAddress)
	}

	cmd := exec.Command(gs.BinaryPath, args...)
	cmd.Dir = gs.WorkingDirectory
	cmd.SysProcAttr = sessionAttr()
	return cmd
}

// watchReadiness promotes starting -> running when the readiness marker
// shows up on the console. If the marker never appears the promotion happens
// anyway after the startup timeout, on the assumption that a process which
// survived this long is serving.
func (p *ProcessAdapter) watchReadiness(gen int, launchedAt time.Time, exitCh <-chan struct{}) {
	marker := p.readinessMarker()
	timeout := p.startupTimeout()

	readyCh := make(chan struct{})
	var once sync.Once
	subID := p.pipeline.Subscribe(func(entry console.LogEntry) {
		// Replayed entries from a previous run must not promote this one
		if entry.Timestamp.Before(launchedAt) {
			return
		}
		if strings.Contains(entry.Message, marker) {
			once.Do(func() { close(readyCh) })
		}
	})

	go func() {
		defer p.pipeline.Unsubscribe(subID)
		select {
		case <-readyCh:
			p.promote(gen, false)
		case <-time.After(timeout):
			p.promote(gen, true)
		case <-exitCh:
		}
	}()
}

func (p *ProcessAdapter) promote(gen int, optimistic bool) {
	p.mu.Lock()
	if gen != p.gen || p.status != StatusStarting {
		p.mu.Unlock()
		return
	}
	p.status = StatusRunning
	pid := p.pid
	startedAt := p.startedAt
	// Persist before releasing the mutex, otherwise an exit racing the
	// promotion could clear the runtime first and leave a running record
	// pointing at a dead process
	if err := p.store.SaveRuntime(p.def.ID, pid, startedAt, string(StatusRunning)); err != nil {
		log.Printf("[Adapter] Failed to persist runtime for server %s: %v", p.def.ID, err)
	}
	p.mu.Unlock()

	if optimistic {
		log.Printf("[Adapter] Warning: server %s never printed the readiness marker, assuming running after %v", p.def.ID, p.startupTimeout())
	} else {
		log.Printf("[Adapter] Server %s is ready (pid %d)", p.def.ID, pid)
	}
}

// watchAdopted polls an adopted pid for liveness. There is no Wait handle
// for a process this manager did not spawn.
func (p *ProcessAdapter) watchAdopted(gen, pid int, exitCh chan struct{}) {
	ticker := time.NewTicker(adoptedPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		stale := gen != p.gen
		p.mu.Unlock()
		if stale {
			return
		}
		if !processAlive(pid) {
			p.handleExit(gen, fmt.Errorf("adopted process %d exited", pid))
			return
		}
	}
}

// handleExit settles the final state after the process is gone. Exit during
// a requested stop lands on stopped; anything else is a crash. The crash is
// reflected in status and the store, never thrown.
func (p *ProcessAdapter) handleExit(gen int, waitErr error) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}

	prev := p.status
	pid := p.pid
	exitCh := p.exitCh
	p.connected = false
	p.cmd = nil
	p.pid = 0
	p.startedAt = time.Time{}

	final := StatusCrashed
	if prev == StatusStopping {
		final = StatusStopped
	}
	p.status = final
	if err := p.store.ClearRuntime(p.def.ID, string(final)); err != nil {
		log.Printf("[Adapter] Failed to clear runtime for server %s: %v", p.def.ID, err)
	}
	p.mu.Unlock()

	p.stdinMu.Lock()
	if p.stdin != nil {
		p.stdin.Close()
		p.stdin = nil
	}
	p.stdinMu.Unlock()

	p.probe.Reset()

	if final == StatusCrashed {
		log.Printf("[Adapter] Server %s (pid %d) terminated unexpectedly: %v", p.def.ID, pid, waitErr)
	} else {
		log.Printf("[Adapter] Server %s (pid %d) stopped", p.def.ID, pid)
	}

	close(exitCh)
}

func (p *ProcessAdapter) writeStdin(line string) error {
	p.stdinMu.Lock()
	defer p.stdinMu.Unlock()

	if p.stdin == nil {
		return fmt.Errorf("no stdin attached")
	}
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("stdin write failed: %w", err)
	}
	return nil
}

func (p *ProcessAdapter) readinessMarker() string {
	if v := strings.TrimSpace(p.def.Supervision.ReadinessMarker); v != "" {
		return v
	}
	return p.defaults.ReadinessMarker
}

func (p *ProcessAdapter) stopCommand() string {
	if v := strings.TrimSpace(p.def.Supervision.StopCommand); v != "" {
		return v
	}
	return p.defaults.StopCommand
}

func (p *ProcessAdapter) startupTimeout() time.Duration {
	return overrideDuration(p.def.Supervision.StartupTimeout, p.defaults.StartupTimeoutDuration())
}

func (p *ProcessAdapter) stopTimeout() time.Duration {
	return overrideDuration(p.def.Supervision.StopTimeout, p.defaults.StopTimeoutDuration())
}

func (p *ProcessAdapter) restartDelay() time.Duration {
	return overrideDuration(p.def.Supervision.RestartDelay, p.defaults.RestartDelayDuration())
}

func overrideDuration(value string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
