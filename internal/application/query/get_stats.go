package query

import (
	"context"

	"github.com/studyquest/studyquest/internal/domain/studylog"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// Subject breakdown and the recent daily trend. Rendering is up to the caller.
// ══════════════════════════════════════════════════════════════════════════════

// StatsDTO is the analytics view.
type StatsDTO struct {
	TotalMinutes int
	Sessions     int
	BySubject    []studylog.SubjectTotal
	Trend        []studylog.DayTotal
	TrendMinutes int
}

// GetStatsHandler builds StatsDTO.
type GetStatsHandler struct {
	reader *Reader
}

// NewGetStatsHandler creates a new GetStatsHandler.
func NewGetStatsHandler(reader *Reader) *GetStatsHandler {
	return &GetStatsHandler{reader: reader}
}

// Handle aggregates all logs; days sets the trend window (default 7).
func (h *GetStatsHandler) Handle(ctx context.Context, username string, days int) StatsDTO {
	entries := h.reader.StudyLogs(ctx, username)

	dto := StatsDTO{
		Sessions:  len(entries),
		BySubject: studylog.BySubject(entries),
		Trend:     studylog.Trend(entries, h.reader.Today(), days, h.reader.Location()),
	}
	for _, e := range entries {
		dto.TotalMinutes += e.DurationMinutes
	}
	for _, d := range dto.Trend {
		dto.TrendMinutes += d.Minutes
	}
	return dto
}
