package voxel

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Grid memory budgeting. Reconstruction runs on constrained hardware next
// to a UI and a print in progress, so grids may only claim a fraction of
// whatever is free right now.
const (
	// MaxBudgetBytes caps the grid budget regardless of system memory.
	MaxBudgetBytes = 256 * 1024 * 1024

	// BudgetPercent is the share of available memory grids may use.
	BudgetPercent = 25

	// CriticalMemoryKB is the free-memory floor below which no new
	// reconstruction should start at all.
	CriticalMemoryKB = 100 * 1024
)

const meminfoPath = "/proc/meminfo"

// ParseMeminfoAvailableKB extracts the MemAvailable figure (in KB) from
// /proc/meminfo content. Returns 0 when the field is missing.
func ParseMeminfoAvailableKB(content string) int {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return kb
	}
	return 0
}

// CalculateBudget converts available memory into a grid byte budget:
// BudgetPercent of it, capped at MaxBudgetBytes. Zero available memory
// (unknown) yields a zero budget, which DenseGrid treats as uncapped.
func CalculateBudget(availableKB int) int {
	if availableKB == 0 {
		return 0
	}
	budget := availableKB * 1024 / (100 / BudgetPercent)
	return min(budget, MaxBudgetBytes)
}

// SystemAvailableKB reads the current MemAvailable figure from the
// system. Returns 0 on platforms without /proc/meminfo.
func SystemAvailableKB() int {
	content, err := os.ReadFile(meminfoPath)
	if err != nil {
		return 0
	}
	return ParseMeminfoAvailableKB(string(content))
}

// SystemMemoryCritical reports whether free memory is below the floor at
// which starting a build is unsafe.
func SystemMemoryCritical() bool {
	available := SystemAvailableKB()
	return available > 0 && available < CriticalMemoryKB
}

// SystemBudgetBytes is the grid budget derived from current system
// memory: CalculateBudget(SystemAvailableKB()).
func SystemBudgetBytes() int {
	return CalculateBudget(SystemAvailableKB())
}
