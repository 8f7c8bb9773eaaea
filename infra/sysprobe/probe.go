// Package sysprobe reads host memory figures for the status endpoint.
package sysprobe

import (
	"fmt"

	"github.com/alpadrive/server/internal/service"
	"github.com/shirou/gopsutil/v3/mem"
)

const bytesPerGB = 1_000_000_000

type Probe struct{}

var _ service.SystemProber = (*Probe)(nil)

func New() *Probe {
	return &Probe{}
}

func (p *Probe) Memory() (service.MemoryStats, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return service.MemoryStats{}, fmt.Errorf("virtual memory probe: %w", err)
	}
	swap, err := mem.SwapMemory()
	if err != nil {
		return service.MemoryStats{}, fmt.Errorf("swap probe: %w", err)
	}
	return service.MemoryStats{
		TotalGB:     float64(vm.Total) / bytesPerGB,
		UsedGB:      float64(vm.Used) / bytesPerGB,
		SwapTotalGB: float64(swap.Total) / bytesPerGB,
		SwapUsedGB:  float64(swap.Used) / bytesPerGB,
	}, nil
}
