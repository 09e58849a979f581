package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/application/query"
	"github.com/studyquest/studyquest/internal/domain/calendar"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Status renders the profile header.
func Status(s query.StatusDTO) string {
	var sb strings.Builder
	accent := Accent(s.AccentColor)

	sb.WriteString(accent.Render(fmt.Sprintf("%s %s", s.Nickname, "〈"+s.Title+"〉")))
	sb.WriteString("\n")
	p := s.Progression
	sb.WriteString(fmt.Sprintf("%s %s %s\n",
		LabelValue("Lv", p.Level),
		Bar(p.Fraction, 20),
		Muted.Render(fmt.Sprintf("%d XP, %d to next", p.XP, p.ToNext))))
	sb.WriteString(LabelValue(IconCoin+" Coins", Gold.Render(fmt.Sprint(s.Coins))))
	sb.WriteString("\n")

	goal := fmt.Sprintf("%s / %s", Minutes(s.TodayMinutes), Minutes(s.DailyGoal))
	switch {
	case s.GoalRewarded:
		goal += " " + Good.Render(IconTrophy+" bonus claimed")
	case s.GoalReached:
		goal += " " + Good.Render("reached")
	}
	sb.WriteString(LabelValue("Today", goal))
	sb.WriteString("\n")

	for _, c := range s.Categories {
		sb.WriteString(fmt.Sprintf("  %-9s %s %s\n", string(c.Category), c.Current,
			Muted.Render(fmt.Sprintf("(%d owned)", len(c.Unlocked)))))
	}
	return Panel.Render(strings.TrimRight(sb.String(), "\n"))
}

// Balance renders a post-mutation balance line.
func Balance(b command.BalanceView) string {
	return Muted.Render(fmt.Sprintf("Lv %d  %d XP  %d coins", b.Level, b.XP, b.Coins))
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS & LOGS
// ══════════════════════════════════════════════════════════════════════════════

func priorityText(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return Bad.Render("high")
	case task.PriorityLow:
		return Muted.Render("low")
	default:
		return Warn.Render("medium")
	}
}

func statusText(s task.Status) string {
	if s == task.StatusDone {
		return Good.Render("done")
	}
	return Warn.Render("pending")
}

// Tasks renders a task list, one per line.
func Tasks(tasks []*task.Task) string {
	if len(tasks) == 0 {
		return Muted.Render("No tasks.")
	}
	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(fmt.Sprintf("%s  %-7s %-6s %s  %s\n",
			Muted.Render(shortID(t.ID)), statusText(t.Status), priorityText(t.Priority), t.DueDate, t.Name))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Logs renders study log entries.
func Logs(logs []*studylog.Entry) string {
	if len(logs) == 0 {
		return Muted.Render("No study logs.")
	}
	var sb strings.Builder
	for _, e := range logs {
		sb.WriteString(fmt.Sprintf("%s  %-8s %s\n", Muted.Render(shortID(e.ID)), Minutes(e.DurationMinutes), e.Subject))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// shortID keeps the first UUID group, enough to pick a row by prefix.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// Month renders the grid. Days with records carry a marker: "*" for study
// time, "!" for pending tasks.
func Month(m calendar.Month, selected, today timeutil.Date) string {
	var sb strings.Builder
	sb.WriteString(Heading(IconCal, fmt.Sprintf("%s %d", m.Month, m.Year)))
	sb.WriteString("\n")
	sb.WriteString(Muted.Render(" Su   Mo   Tu   We   Th   Fr   Sa"))
	sb.WriteString("\n")

	for _, w := range m.Weeks {
		for i, cell := range w {
			if i > 0 {
				sb.WriteString(" ")
			}
			if cell.IsEmpty() {
				sb.WriteString("    ")
				continue
			}
			agg := m.Day(cell.Date)
			mark := " "
			switch {
			case agg.PendingTasks > 0:
				mark = "!"
			case agg.StudyMinutes > 0:
				mark = "*"
			}
			text := fmt.Sprintf("%3d%s", cell.Date.Day, mark)
			switch {
			case cell.Date == selected:
				text = Selected.Render(text)
			case cell.Date == today:
				text = Today.Render(text)
			}
			sb.WriteString(text)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(LabelValue("Studied this month", Minutes(m.TotalMinutes)))
	return sb.String()
}

// Detail renders the records of one day.
func Detail(d calendar.Detail) string {
	var sb strings.Builder
	sb.WriteString(Heading(IconCal, d.Date.String()))
	sb.WriteString("\n")
	sb.WriteString(H2.Render(IconTask + " Tasks"))
	sb.WriteString("\n")
	sb.WriteString(Tasks(d.Tasks))
	sb.WriteString("\n")
	sb.WriteString(H2.Render(fmt.Sprintf("%s Study (%s)", IconBook, Minutes(d.TotalMinutes()))))
	sb.WriteString("\n")
	sb.WriteString(Logs(d.Logs))
	return sb.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS, SHOP, TIMER
// ══════════════════════════════════════════════════════════════════════════════

// Stats renders the subject breakdown and the daily trend as text bars.
func Stats(s query.StatsDTO) string {
	var sb strings.Builder
	sb.WriteString(Heading(IconChart, "Study statistics"))
	sb.WriteString("\n")
	sb.WriteString(LabelValue("Total", fmt.Sprintf("%s in %d sessions", Minutes(s.TotalMinutes), s.Sessions)))
	sb.WriteString("\n\n")

	sb.WriteString(H2.Render("By subject"))
	sb.WriteString("\n")
	for _, st := range s.BySubject {
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", st.Subject, Minutes(st.Minutes)))
	}

	sb.WriteString(H2.Render(fmt.Sprintf("Last %d days (%s)", len(s.Trend), Minutes(s.TrendMinutes))))
	sb.WriteString("\n")
	peak := 0
	for _, d := range s.Trend {
		if d.Minutes > peak {
			peak = d.Minutes
		}
	}
	for _, d := range s.Trend {
		frac := 0.0
		if peak > 0 {
			frac = float64(d.Minutes) / float64(peak)
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", d.Date, Bar(frac, 20), Minutes(d.Minutes)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Shop renders the catalog.
func Shop(s query.ShopDTO) string {
	var sb strings.Builder
	sb.WriteString(Heading(IconShop, "Shop"))
	sb.WriteString("  ")
	sb.WriteString(LabelValue(IconCoin, Gold.Render(fmt.Sprint(s.Coins))))
	sb.WriteString("\n")
	for _, it := range s.Items {
		state := Muted.Render(fmt.Sprintf("%d", it.Price))
		switch {
		case it.Owned:
			state = Good.Render("owned")
		case it.Affordable:
			state = Gold.Render(fmt.Sprintf("%d", it.Price))
		}
		sb.WriteString(fmt.Sprintf("  %-9s %-12s %-8s %s\n", string(it.Category), it.Name, state, Muted.Render(it.Description)))
	}
	sb.WriteString(fmt.Sprintf("%s %s %s",
		IconDice,
		LabelValue("Gacha", fmt.Sprintf("%d coins", s.GachaCost)),
		Muted.Render(fmt.Sprintf("(%d/%d titles collected)", s.Owned, s.Titles))))
	return sb.String()
}

// Timer renders the stopwatch as "state HH:MM:SS".
func Timer(state studylog.StopwatchState, elapsed time.Duration) string {
	elapsed = elapsed.Truncate(time.Second)
	h := int(elapsed / time.Hour)
	m := int(elapsed % time.Hour / time.Minute)
	sec := int(elapsed % time.Minute / time.Second)
	clock := fmt.Sprintf("%02d:%02d:%02d", h, m, sec)

	switch state {
	case studylog.StopwatchRunning:
		return fmt.Sprintf("%s %s %s", IconClock, Good.Render("running"), clock)
	case studylog.StopwatchPaused:
		return fmt.Sprintf("%s %s %s", IconClock, Warn.Render("paused"), clock)
	default:
		return fmt.Sprintf("%s %s", IconClock, Muted.Render("idle"))
	}
}

// LevelUp is the one-line level-up banner. Milestones get the trophy.
func LevelUp(oldLevel, newLevel int, milestone bool) string {
	icon := IconSparkle
	if milestone {
		icon = IconTrophy
	}
	return fmt.Sprintf("%s %s Lv %d → %d", icon, BadgeLevelUp, oldLevel, newLevel)
}
