package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/pkg/logger"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD STUDY LOG COMMAND
// Pays one XP and one coin per minute, then checks the daily goal.
// ══════════════════════════════════════════════════════════════════════════════

// AddStudyLogCommand records a finished study session.
type AddStudyLogCommand struct {
	Username string
	Subject  string
	Minutes  int

	// StudyDate is YYYY-MM-DD; empty means today.
	StudyDate string
}

// Validate validates the command.
func (c AddStudyLogCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("studylog", "Add", "username is required")
	}
	if strings.TrimSpace(c.Subject) == "" {
		return shared.Validationf("studylog", "Add", "subject is required")
	}
	if c.Minutes <= 0 {
		return shared.Validationf("studylog", "Add", "duration must be positive, got %d", c.Minutes)
	}
	return nil
}

// AddStudyLogResult reports the outcome.
type AddStudyLogResult struct {
	Entry        *studylog.Entry
	TodayMinutes int
	GoalBonus    int
	Balance      BalanceView
}

// AddStudyLogHandler handles AddStudyLogCommand.
type AddStudyLogHandler struct {
	logs   studylog.Repository
	ledger *Ledger
	log    *logger.Logger
}

// NewAddStudyLogHandler creates a new AddStudyLogHandler.
func NewAddStudyLogHandler(logs studylog.Repository, ledger *Ledger, log *logger.Logger) *AddStudyLogHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AddStudyLogHandler{logs: logs, ledger: ledger, log: log}
}

// Handle inserts the entry, applies the per-minute reward and grants the
// goal bonus at most once per local date. If the reward cannot be written
// the entry is deleted again, so an Unavailable error means nothing was kept.
func (h *AddStudyLogHandler) Handle(ctx context.Context, cmd AddStudyLogCommand) (*AddStudyLogResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rules := h.ledger.Rules()
	today := rules.Today()
	date := today
	if strings.TrimSpace(cmd.StudyDate) != "" {
		d, err := timeutil.ParseDate(cmd.StudyDate)
		if err != nil {
			return nil, shared.WrapError("studylog", "Add", shared.ErrValidation, "study date must be YYYY-MM-DD", err)
		}
		date = d
	}

	entry, err := studylog.New(uuid.NewString(), cmd.Username, cmd.Subject, cmd.Minutes, date)
	if err != nil {
		return nil, err
	}
	if err := h.logs.Create(ctx, entry); err != nil {
		h.log.Error("study log insert failed", logger.Username(cmd.Username), logger.Err(err))
		return nil, shared.Unavailable("studylog", "Add", err)
	}

	result := &AddStudyLogResult{Entry: entry}

	u, ok := h.ledger.Load(ctx, cmd.Username)
	if !ok {
		h.ledger.Publish(shared.NewStudyLoggedEvent(cmd.Username, entry.Subject, entry.DurationMinutes, entry.StudyDate))
		return result, nil
	}

	before := u.Balance()
	u.ApplyReward(cmd.Minutes, cmd.Minutes)

	entries, err := h.logs.ListByOwner(ctx, cmd.Username)
	if err != nil {
		h.log.Warn("study log read failed, today's total degrades to zero", logger.Username(cmd.Username), logger.Err(err))
		entries = nil
	}
	result.TodayMinutes = studylog.TodayMinutes(entries, today, rules.Location)

	change := Change{
		Reason:    "study_log",
		XPDelta:   cmd.Minutes,
		CoinDelta: cmd.Minutes,
		Before:    before,
	}
	if u.GrantGoalBonus(today, result.TodayMinutes, rules.GoalBonusCoins) {
		result.GoalBonus = rules.GoalBonusCoins
		change.CoinDelta += rules.GoalBonusCoins
		change.Patch.LastGoalRewardDate = u.LastGoalRewardDate
	}

	bal, err := h.ledger.Commit(ctx, u, change)
	if err != nil {
		// An entry without its reward would be counted again on retry.
		if delErr := h.logs.Delete(ctx, cmd.Username, entry.ID); delErr != nil {
			h.log.Error("orphan study log left after failed reward",
				logger.Username(cmd.Username), logger.String("log_id", entry.ID), logger.Err(delErr))
		}
		return nil, err
	}
	result.Balance = h.ledger.view(bal.XP, bal.Coins)
	h.ledger.Publish(shared.NewStudyLoggedEvent(cmd.Username, entry.Subject, entry.DurationMinutes, entry.StudyDate))

	if result.GoalBonus > 0 {
		h.ledger.Publish(shared.NewGoalBonusGrantedEvent(cmd.Username, result.GoalBonus, today.String()))
		h.log.Info("daily goal reached", logger.Username(cmd.Username), logger.Minutes(result.TodayMinutes), logger.Date(today))
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE STUDY LOG COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteStudyLogCommand removes an entry and reverses its reward.
type DeleteStudyLogCommand struct {
	Username string
	LogID    string
}

// Validate validates the command.
func (c DeleteStudyLogCommand) Validate() error {
	if c.Username == "" || c.LogID == "" {
		return shared.Validationf("studylog", "Delete", "username and log id are required")
	}
	return nil
}

// DeleteStudyLogResult reports the reversal. The reversed amounts are what
// actually left the balance, which is less than the entry's minutes when
// clamping at zero kicked in.
type DeleteStudyLogResult struct {
	Deleted       bool
	ReversedXP    int
	ReversedCoins int
	Balance       BalanceView
}

// DeleteStudyLogHandler handles DeleteStudyLogCommand.
type DeleteStudyLogHandler struct {
	logs   studylog.Repository
	ledger *Ledger
	log    *logger.Logger
}

// NewDeleteStudyLogHandler creates a new DeleteStudyLogHandler.
func NewDeleteStudyLogHandler(logs studylog.Repository, ledger *Ledger, log *logger.Logger) *DeleteStudyLogHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DeleteStudyLogHandler{logs: logs, ledger: ledger, log: log}
}

// Handle deletes the entry and applies -M XP and coins, clamped at zero.
// The goal bonus already granted for that day is kept.
func (h *DeleteStudyLogHandler) Handle(ctx context.Context, cmd DeleteStudyLogCommand) (*DeleteStudyLogResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	entry, err := h.logs.Get(ctx, cmd.Username, cmd.LogID)
	if err != nil {
		if !shared.IsNotFound(err) {
			h.log.Warn("study log read failed", logger.String("log_id", cmd.LogID), logger.Err(err))
		}
		return &DeleteStudyLogResult{}, nil
	}

	if err := h.logs.Delete(ctx, cmd.Username, cmd.LogID); err != nil {
		if shared.IsNotFound(err) {
			return &DeleteStudyLogResult{}, nil
		}
		return nil, shared.Unavailable("studylog", "Delete", err)
	}
	h.ledger.Publish(shared.NewStudyLogDeletedEvent(cmd.Username, entry.Subject, entry.DurationMinutes))

	m := entry.DurationMinutes
	before, after, err := h.ledger.Adjust(ctx, cmd.Username, "study_log_deleted", -m, -m)
	if err != nil {
		return nil, err
	}

	res := &DeleteStudyLogResult{
		Deleted:       true,
		ReversedXP:    before.XP - after.XP,
		ReversedCoins: before.Coins - after.Coins,
		Balance:       h.ledger.view(after.XP, after.Coins),
	}
	h.log.Info("study log deleted", logger.Username(cmd.Username), logger.Minutes(m),
		logger.XPDelta(-res.ReversedXP), logger.CoinDelta(-res.ReversedCoins))
	return res, nil
}
