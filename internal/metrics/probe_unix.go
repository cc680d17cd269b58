//go:build !windows

package metrics

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// sampleProcessTree sums RSS and cumulative CPU time across the process tree
// rooted at pid. It shells out to ps, which is present on every Linux and
// macOS host this runs on.
func sampleProcessTree(pid int) (treeUsage, error) {
	output, err := exec.Command("ps", "-A", "-o", "pid=,ppid=").Output()
	if err != nil {
		return treeUsage{}, fmt.Errorf("failed to list processes: %w", err)
	}

	parents, err := parseProcessTable(string(output))
	if err != nil {
		return treeUsage{}, err
	}
	if _, ok := parents[pid]; !ok {
		return treeUsage{}, fmt.Errorf("process %d not found", pid)
	}

	pids := descendantsOf(pid, parents)
	list := make([]string, len(pids))
	for i, p := range pids {
		list[i] = strconv.Itoa(p)
	}

	// ps exits nonzero if any listed pid died between the two calls, but
	// still prints the rows it could resolve
	usageOut, err := exec.Command("ps", "-o", "rss=,time=", "-p", strings.Join(list, ",")).Output()
	if err != nil && len(usageOut) == 0 {
		return treeUsage{}, fmt.Errorf("failed to sample pids: %w", err)
	}

	return parseUsageTable(string(usageOut))
}

// parseProcessTable parses `ps -A -o pid=,ppid=` output into a pid -> ppid map.
func parseProcessTable(output string) (map[int]int, error) {
	parents := make(map[int]int)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		parents[pid] = ppid
	}
	if len(parents) == 0 {
		return nil, fmt.Errorf("empty process table")
	}
	return parents, nil
}

// parseUsageTable parses `ps -o rss=,time=` rows into summed usage. RSS is
// reported in KB; TIME is cumulative CPU time as [[dd-]hh:]mm:ss.
func parseUsageTable(output string) (treeUsage, error) {
	var usage treeUsage
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		rss, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		seconds, err := parseCPUTime(fields[1])
		if err != nil {
			continue
		}
		usage.rssKB += rss
		usage.cpuSeconds += seconds
	}
	return usage, nil
}

func parseCPUTime(value string) (float64, error) {
	var days float64
	if idx := strings.Index(value, "-"); idx >= 0 {
		d, err := strconv.ParseFloat(value[:idx], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid cpu time %q", value)
		}
		days = d
		value = value[idx+1:]
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid cpu time %q", value)
	}

	var total float64
	for _, part := range parts {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid cpu time %q", value)
		}
		total = total*60 + n
	}
	return days*86400 + total, nil
}

// totalMemoryMB reads the host memory size from /proc/meminfo.
func totalMemoryMB() (float64, error) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	return parseMemTotal(string(data))
}

func parseMemTotal(meminfo string) (float64, error) {
	for _, line := range strings.Split(meminfo, "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			break
		}
		return kb / 1024.0, nil
	}
	return 0, fmt.Errorf("MemTotal not found in meminfo")
}
