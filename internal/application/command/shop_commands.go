package command

import (
	"context"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/shop"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUY COSMETIC COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// BuyCosmeticCommand purchases a catalog item.
type BuyCosmeticCommand struct {
	Username string
	Category user.Category
	Item     string
}

// Validate validates the command.
func (c BuyCosmeticCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("shop", "Buy", "username is required")
	}
	if !c.Category.IsValid() {
		return shared.ErrInvalidCategory
	}
	if c.Item == "" {
		return shared.Validationf("shop", "Buy", "item is required")
	}
	return nil
}

// BuyCosmeticResult reports the purchase.
type BuyCosmeticResult struct {
	Item    shop.Item
	Balance BalanceView
}

// BuyCosmeticHandler handles BuyCosmeticCommand.
type BuyCosmeticHandler struct {
	ledger *Ledger
	log    *logger.Logger
}

// NewBuyCosmeticHandler creates a new BuyCosmeticHandler.
func NewBuyCosmeticHandler(ledger *Ledger, log *logger.Logger) *BuyCosmeticHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BuyCosmeticHandler{ledger: ledger, log: log}
}

// Handle debits the catalog price and unlocks the item.
// Returns shared.ErrInsufficientFunds with no state change when coins are short.
func (h *BuyCosmeticHandler) Handle(ctx context.Context, cmd BuyCosmeticCommand) (*BuyCosmeticResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, ok := h.ledger.Load(ctx, cmd.Username)
	if !ok {
		u = user.Zero(cmd.Username)
	}

	before := u.Balance()
	item, err := shop.BuyCosmetic(u, cmd.Category, cmd.Item)
	if err != nil {
		return nil, err
	}

	bal, err := h.ledger.Commit(ctx, u, Change{
		Reason:    "purchase",
		CoinDelta: -item.Price,
		Patch:     user.Patch{}.WithUnlocked(item.Category, u.UnlockedIn(item.Category)),
		Before:    before,
	})
	if err != nil {
		return nil, err
	}

	h.ledger.Publish(shared.NewItemPurchasedEvent(cmd.Username, string(item.Category), item.Name, item.Price))
	h.log.Info("item purchased", logger.Username(cmd.Username), logger.Category(string(item.Category)), logger.Item(item.Name))
	return &BuyCosmeticResult{Item: item, Balance: h.ledger.view(bal.XP, bal.Coins)}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DRAW GACHA COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DrawGachaCommand pulls one random title.
type DrawGachaCommand struct {
	Username string
}

// Validate validates the command.
func (c DrawGachaCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("shop", "DrawGacha", "username is required")
	}
	return nil
}

// DrawGachaResult reports the draw.
type DrawGachaResult struct {
	Title     string
	Duplicate bool
	Balance   BalanceView
}

// DrawGachaHandler handles DrawGachaCommand.
type DrawGachaHandler struct {
	ledger *Ledger
	pick   shop.Picker
	log    *logger.Logger
}

// NewDrawGachaHandler creates a new DrawGachaHandler. pick may be nil.
func NewDrawGachaHandler(ledger *Ledger, pick shop.Picker, log *logger.Logger) *DrawGachaHandler {
	if pick == nil {
		pick = shop.RandomPicker
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DrawGachaHandler{ledger: ledger, pick: pick, log: log}
}

// Handle debits the gacha cost, unlocks the drawn title and equips it,
// including on a duplicate draw.
func (h *DrawGachaHandler) Handle(ctx context.Context, cmd DrawGachaCommand) (*DrawGachaResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, ok := h.ledger.Load(ctx, cmd.Username)
	if !ok {
		u = user.Zero(cmd.Username)
	}

	cost := h.ledger.Rules().GachaCost
	before := u.Balance()
	draw, err := shop.DrawGacha(u, cost, h.pick)
	if err != nil {
		return nil, err
	}

	patch := user.Patch{}.WithCurrent(user.CategoryTitle, draw.Title)
	if !draw.Duplicate {
		patch = patch.WithUnlocked(user.CategoryTitle, u.UnlockedIn(user.CategoryTitle))
	}
	bal, err := h.ledger.Commit(ctx, u, Change{
		Reason:    "gacha",
		CoinDelta: -cost,
		Patch:     patch,
		Before:    before,
	})
	if err != nil {
		return nil, err
	}

	h.ledger.Publish(shared.NewGachaDrawnEvent(cmd.Username, draw.Title, cost, draw.Duplicate))
	h.log.Info("gacha drawn", logger.Username(cmd.Username), logger.Item(draw.Title), logger.Bool("duplicate", draw.Duplicate))
	return &DrawGachaResult{
		Title:     draw.Title,
		Duplicate: draw.Duplicate,
		Balance:   h.ledger.view(bal.XP, bal.Coins),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EQUIP COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// EquipCommand sets the current token of a category.
type EquipCommand struct {
	Username string
	Category user.Category
	Item     string
}

// Validate validates the command.
func (c EquipCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("shop", "Equip", "username is required")
	}
	if !c.Category.IsValid() {
		return shared.ErrInvalidCategory
	}
	return nil
}

// EquipHandler handles EquipCommand.
type EquipHandler struct {
	ledger *Ledger
	log    *logger.Logger
}

// NewEquipHandler creates a new EquipHandler.
func NewEquipHandler(ledger *Ledger, log *logger.Logger) *EquipHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EquipHandler{ledger: ledger, log: log}
}

// Handle equips the item. Returns shared.ErrNotUnlocked for items the user
// does not own.
func (h *EquipHandler) Handle(ctx context.Context, cmd EquipCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	u, ok := h.ledger.Load(ctx, cmd.Username)
	if !ok {
		u = user.Zero(cmd.Username)
	}
	if err := u.Equip(cmd.Category, cmd.Item); err != nil {
		return err
	}
	if !ok {
		// Only the default token can be equipped on the stand-in; nothing to write.
		return nil
	}

	if _, err := h.ledger.Commit(ctx, u, Change{
		Reason: "equip",
		Patch:  user.Patch{}.WithCurrent(cmd.Category, cmd.Item),
		Before: u.Balance(),
	}); err != nil {
		return err
	}

	h.ledger.Publish(shared.NewItemEquippedEvent(cmd.Username, string(cmd.Category), cmd.Item))
	h.log.Info("item equipped", logger.Username(cmd.Username), logger.Category(string(cmd.Category)), logger.Item(cmd.Item))
	return nil
}
