//go:build windows

package metrics

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// sampleProcessTree sums working-set and CPU time across the process tree
// rooted at pid using wmic, which ships with every supported Windows build.
func sampleProcessTree(pid int) (treeUsage, error) {
	output, err := exec.Command("wmic", "process", "get",
		"ProcessId,ParentProcessId,WorkingSetSize,KernelModeTime,UserModeTime", "/format:csv").Output()
	if err != nil {
		return treeUsage{}, fmt.Errorf("failed to list processes: %w", err)
	}

	rows, err := parseWmicProcessTable(string(output))
	if err != nil {
		return treeUsage{}, err
	}
	if _, ok := rows[pid]; !ok {
		return treeUsage{}, fmt.Errorf("process %d not found", pid)
	}

	parents := make(map[int]int, len(rows))
	for p, row := range rows {
		parents[p] = row.ppid
	}

	var usage treeUsage
	for _, p := range descendantsOf(pid, parents) {
		row := rows[p]
		usage.rssKB += row.workingSetBytes / 1024.0
		usage.cpuSeconds += row.cpuSeconds
	}
	return usage, nil
}

type wmicProcessRow struct {
	ppid            int
	workingSetBytes float64
	cpuSeconds      float64
}

// parseWmicProcessTable parses wmic CSV output. Columns are alphabetical:
// Node,KernelModeTime,ParentProcessId,ProcessId,UserModeTime,WorkingSetSize.
// Mode times are in 100ns units.
func parseWmicProcessTable(output string) (map[int]wmicProcessRow, error) {
	rows := make(map[int]wmicProcessRow)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		fields := strings.Split(line, ",")
		if len(fields) < 6 {
			continue
		}

		kernel, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(fields[3])
		if err != nil {
			continue
		}
		user, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			continue
		}
		workingSet, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			continue
		}

		rows[pid] = wmicProcessRow{
			ppid:            ppid,
			workingSetBytes: workingSet,
			cpuSeconds:      (kernel + user) / 1e7,
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty process table")
	}
	return rows, nil
}

// totalMemoryMB reads the physical memory size via wmic.
func totalMemoryMB() (float64, error) {
	output, err := exec.Command("wmic", "computersystem", "get", "TotalPhysicalMemory", "/value").Output()
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "TotalPhysicalMemory=") {
			continue
		}
		bytes, err := strconv.ParseFloat(strings.TrimPrefix(line, "TotalPhysicalMemory="), 64)
		if err != nil {
			break
		}
		return bytes / 1024.0 / 1024.0, nil
	}
	return 0, fmt.Errorf("TotalPhysicalMemory not found")
}
