package query

import (
	"context"

	"github.com/studyquest/studyquest/internal/domain/shop"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATUS QUERY
// The profile header: level, balances, equipped items and today's progress
// toward the daily goal.
// ══════════════════════════════════════════════════════════════════════════════

// CategoryDTO is one cosmetic slot.
type CategoryDTO struct {
	Category user.Category
	Current  string
	Unlocked []string
}

// StatusDTO is the profile view.
type StatusDTO struct {
	Username string
	Nickname string
	Title    string

	XP          int
	Coins       int
	Progression user.Progression

	DailyGoal    int
	TodayMinutes int
	GoalReached  bool
	GoalRewarded bool

	Categories    []CategoryDTO
	MainTextColor string
	AccentColor   string
}

// GetStatusHandler builds StatusDTO.
type GetStatusHandler struct {
	reader     *Reader
	levelWidth int
}

// NewGetStatusHandler creates a new GetStatusHandler.
func NewGetStatusHandler(reader *Reader, levelWidth int) *GetStatusHandler {
	return &GetStatusHandler{reader: reader, levelWidth: levelWidth}
}

// Handle never fails; unreadable data shows as zero.
func (h *GetStatusHandler) Handle(ctx context.Context, username string) StatusDTO {
	u := h.reader.User(ctx, username)
	today := h.reader.Today()
	minutes := studylog.TodayMinutes(h.reader.StudyLogs(ctx, username), today, h.reader.Location())

	dto := StatusDTO{
		Username:      u.Username,
		Nickname:      u.Nickname,
		Title:         u.Title(),
		XP:            u.XP,
		Coins:         u.Coins,
		Progression:   user.NewProgression(u.XP, h.levelWidth),
		DailyGoal:     u.DailyGoal,
		TodayMinutes:  minutes,
		GoalReached:   u.DailyGoal > 0 && minutes >= u.DailyGoal,
		GoalRewarded:  u.LastGoalRewardDate != nil && *u.LastGoalRewardDate == today,
		MainTextColor: u.MainTextColor,
		AccentColor:   u.AccentColor,
	}
	for _, c := range user.Categories() {
		dto.Categories = append(dto.Categories, CategoryDTO{
			Category: c,
			Current:  u.CurrentIn(c),
			Unlocked: u.UnlockedIn(c).Items(),
		})
	}
	return dto
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST SHOP QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ShopItemDTO is a catalog entry annotated with ownership.
type ShopItemDTO struct {
	shop.Item
	Owned      bool
	Affordable bool
}

// ShopDTO is the shop view.
type ShopDTO struct {
	Coins     int
	Items     []ShopItemDTO
	GachaCost int
	Titles    int
	Owned     int
}

// ListShopHandler builds ShopDTO.
type ListShopHandler struct {
	reader    *Reader
	gachaCost int
}

// NewListShopHandler creates a new ListShopHandler.
func NewListShopHandler(reader *Reader, gachaCost int) *ListShopHandler {
	return &ListShopHandler{reader: reader, gachaCost: gachaCost}
}

// Handle lists the catalog with ownership flags.
func (h *ListShopHandler) Handle(ctx context.Context, username string) ShopDTO {
	u := h.reader.User(ctx, username)

	dto := ShopDTO{Coins: u.Coins, GachaCost: h.gachaCost, Titles: len(shop.GachaTitles)}
	for _, it := range shop.Catalog() {
		dto.Items = append(dto.Items, ShopItemDTO{
			Item:       it,
			Owned:      u.UnlockedIn(it.Category).Contains(it.Name),
			Affordable: u.Coins >= it.Price,
		})
	}
	titles := u.UnlockedIn(user.CategoryTitle)
	for _, t := range shop.GachaTitles {
		if titles.Contains(t) {
			dto.Owned++
		}
	}
	return dto
}
