package service

import (
	"fmt"
	"log/slog"

	"github.com/alpadrive/server/internal/domain/lobby"
)

// Snapshot is the status endpoint's reply. The memory figures are only
// present when the caller asked for a system probe.
type Snapshot struct {
	ActiveUsers     int    `json:"active_users"`
	ActiveVehicles  int    `json:"active_vehicles"`
	ActiveSessions  int    `json:"active_sessions"`
	MemoryAvailable string `json:"memory_available,omitempty"`
	MemoryUsed      string `json:"memory_used,omitempty"`
	TotalSwap       string `json:"total_swap,omitempty"`
	SwapUsed        string `json:"swap_used,omitempty"`
}

// Statuser produces presence snapshots for the status endpoint.
type Statuser interface {
	Snapshot(systemstat bool) Snapshot
}

// StatusService reads the shared presence registry directly, never
// crossing the Lobby's serial queue.
type StatusService struct {
	presence *lobby.Presence
	probe    SystemProber
	logger   *slog.Logger
}

var _ Statuser = (*StatusService)(nil)

func NewStatusService(presence *lobby.Presence, probe SystemProber, logger *slog.Logger) *StatusService {
	return &StatusService{presence: presence, probe: probe, logger: logger}
}

func (s *StatusService) Snapshot(systemstat bool) Snapshot {
	vehicles, sessions := s.presence.Counts()
	snap := Snapshot{
		ActiveUsers:    sessions - vehicles,
		ActiveVehicles: vehicles,
		ActiveSessions: sessions,
	}
	if !systemstat {
		return snap
	}

	stats, err := s.probe.Memory()
	if err != nil {
		s.logger.Warn("system probe failed", "err", err)
		return snap
	}
	snap.MemoryAvailable = fmt.Sprintf("%.2f GB", stats.TotalGB)
	snap.MemoryUsed = fmt.Sprintf("%.2f GB", stats.UsedGB)
	snap.TotalSwap = fmt.Sprintf("%.2f GB", stats.SwapTotalGB)
	snap.SwapUsed = fmt.Sprintf("%.2f GB", stats.SwapUsedGB)
	return snap
}
