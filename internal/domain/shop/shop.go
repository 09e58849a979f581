// Package shop contains the fixed-price cosmetic catalog and the title gacha.
package shop

import (
	"math/rand/v2"
	"strings"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/user"
)

// DefaultGachaCost is the price of one draw.
const DefaultGachaCost = 100

// GachaTitles is the fixed draw catalog. Every title is equally likely.
var GachaTitles = []string{
	"Rookie Adventurer",
	"Night Owl",
	"Genius of Effort",
	"Task Slayer",
	"Weekend Warrior",
	"Infinite Focus",
	"Math Demon",
	"Code Wizard",
	"Stationery Master",
	"Legendary Hero",
	"Sleepless Deity",
	"Caffeine Fiend",
}

// Item is a fixed-price cosmetic.
type Item struct {
	Category    user.Category
	Name        string
	Price       int
	Description string
}

var catalog = []Item{
	{user.CategoryTheme, "pixel", 500, "Retro game font"},
	{user.CategoryTheme, "handwritten", 800, "Chalkboard handwriting font"},
	{user.CategoryWallpaper, "night-sky", 300, "Starry night backdrop"},
	{user.CategoryWallpaper, "library", 300, "Quiet library backdrop"},
	{user.CategoryBGM, "lofi", 200, "Lo-fi beats"},
	{user.CategoryBGM, "rain", 200, "Rain on the window"},
}

// Catalog returns the purchasable items, optionally limited to one category.
func Catalog(categories ...user.Category) []Item {
	if len(categories) == 0 {
		out := make([]Item, len(catalog))
		copy(out, catalog)
		return out
	}
	var out []Item
	for _, it := range catalog {
		for _, c := range categories {
			if it.Category == c {
				out = append(out, it)
			}
		}
	}
	return out
}

// Lookup finds an item by category and name, case-insensitively.
func Lookup(c user.Category, name string) (Item, error) {
	name = strings.TrimSpace(name)
	for _, it := range catalog {
		if it.Category == c && strings.EqualFold(it.Name, name) {
			return it, nil
		}
	}
	return Item{}, shared.Validationf("shop", "Lookup", "no %s named %q in the shop", c, name)
}

// BuyCosmetic resolves the price from the catalog and purchases the item.
func BuyCosmetic(u *user.User, c user.Category, name string) (Item, error) {
	if !c.IsValid() {
		return Item{}, shared.ErrInvalidCategory
	}
	it, err := Lookup(c, name)
	if err != nil {
		return Item{}, err
	}
	if err := u.Purchase(c, it.Name, it.Price); err != nil {
		return Item{}, err
	}
	return it, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GACHA
// ══════════════════════════════════════════════════════════════════════════════

// Picker returns a uniform index in [0, n).
type Picker func(n int) int

// RandomPicker draws from the global source.
func RandomPicker(n int) int {
	return rand.IntN(n)
}

// Draw is the outcome of one gacha pull.
type Draw struct {
	Title     string
	Duplicate bool
	Balance   user.Balance
}

// DrawGacha debits cost, draws a title and equips it. The drawn title is
// equipped even when it was already owned.
func DrawGacha(u *user.User, cost int, pick Picker) (Draw, error) {
	if cost <= 0 {
		cost = DefaultGachaCost
	}
	if pick == nil {
		pick = RandomPicker
	}
	if u.Coins < cost {
		return Draw{}, shared.NewDomainError("shop", "DrawGacha", shared.ErrInsufficientFunds, "not enough coins")
	}

	title := GachaTitles[pick(len(GachaTitles))]
	balance := u.ApplyReward(0, -cost)
	added := u.Unlock(user.CategoryTitle, title)
	if err := u.Equip(user.CategoryTitle, title); err != nil {
		return Draw{}, err
	}

	return Draw{Title: title, Duplicate: !added, Balance: balance}, nil
}
