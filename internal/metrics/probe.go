package metrics

import (
	"log"
	"sync"
	"time"
)

// Snapshot is a point-in-time resource reading for one supervised process
// tree. A zero-valued snapshot means the process was not measurable.
type Snapshot struct {
	CPUUsage      float64   `json:"cpuUsage"`
	MemoryUsedMB  float64   `json:"memoryUsedMB"`
	MemoryTotalMB float64   `json:"memoryTotalMB"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	Timestamp     time.Time `json:"timestamp"`
}

type cpuSample struct {
	timestamp time.Time
	cpuTime   float64
}

// Probe measures CPU and memory usage of a process and its descendants.
// CPU usage is derived from the delta between consecutive samples, so each
// supervised process owns its probe rather than sharing one.
type Probe struct {
	serverID string

	mu         sync.Mutex
	lastSample *cpuSample
}

// NewProbe creates a probe scoped to one server.
func NewProbe(serverID string) *Probe {
	return &Probe{serverID: serverID}
}

// Collect samples the process tree rooted at pid. It never fails: any
// measurement error is logged and reported as a zeroed snapshot so a flaky
// probe cannot take down status reporting.
func (p *Probe) Collect(pid int, startedAt time.Time) Snapshot {
	snapshot := Snapshot{Timestamp: time.Now()}

	if pid <= 0 {
		return snapshot
	}

	if !startedAt.IsZero() {
		snapshot.UptimeSeconds = int64(time.Since(startedAt).Seconds())
		if snapshot.UptimeSeconds < 0 {
			snapshot.UptimeSeconds = 0
		}
	}

	usage, err := sampleProcessTree(pid)
	if err != nil {
		log.Printf("[Metrics] Failed to sample process tree for server %s (pid %d): %v", p.serverID, pid, err)
		return snapshot
	}

	snapshot.MemoryUsedMB = usage.rssKB / 1024.0
	snapshot.CPUUsage = p.cpuPercent(snapshot.Timestamp, usage.cpuSeconds)

	if total, err := totalMemoryMB(); err == nil {
		snapshot.MemoryTotalMB = total
	} else {
		log.Printf("[Metrics] Failed to read total memory: %v", err)
	}

	return snapshot
}

// Reset drops the previous CPU sample. Called when the supervised process
// changes so a new pid never inherits the old pid's counters.
func (p *Probe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSample = nil
}

// cpuPercent converts cumulative CPU seconds into a usage percentage using
// the elapsed wall time since the previous sample. The first sample after a
// reset reports zero.
func (p *Probe) cpuPercent(now time.Time, cpuSeconds float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.lastSample
	p.lastSample = &cpuSample{timestamp: now, cpuTime: cpuSeconds}

	if prev == nil {
		return 0
	}

	elapsed := now.Sub(prev.timestamp).Seconds()
	if elapsed <= 0 {
		return 0
	}

	delta := cpuSeconds - prev.cpuTime
	if delta < 0 {
		// Counter went backwards, the tree was replaced between samples
		return 0
	}

	percent := delta / elapsed * 100.0
	if percent < 0 {
		return 0
	}
	return percent
}

type treeUsage struct {
	rssKB      float64
	cpuSeconds float64
}

// descendantsOf walks a pid -> ppid map and returns the root plus every
// transitive child. Game servers routinely wrap the real process in a
// launcher script, so measuring only the root would undercount.
func descendantsOf(root int, parents map[int]int) []int {
	children := make(map[int][]int, len(parents))
	for pid, ppid := range parents {
		children[ppid] = append(children[ppid], pid)
	}

	pids := []int{root}
	for i := 0; i < len(pids); i++ {
		pids = append(pids, children[pids[i]]...)
	}
	return pids
}
