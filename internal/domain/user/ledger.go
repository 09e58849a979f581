package user

// DefaultLevelWidth is the XP needed per level.
const DefaultLevelWidth = 50

// Balance is a snapshot of the two ledger balances.
type Balance struct {
	XP    int
	Coins int
}

// Clamp adds delta to v and floors the result at zero.
func Clamp(v, delta int) int {
	if v+delta < 0 {
		return 0
	}
	return v + delta
}

// ApplyReward applies signed deltas to both balances, clamping each at zero.
// It never fails.
func (u *User) ApplyReward(xpDelta, coinDelta int) Balance {
	u.XP = Clamp(u.XP, xpDelta)
	u.Coins = Clamp(u.Coins, coinDelta)
	return u.Balance()
}

// Balance returns the current balances.
func (u *User) Balance() Balance {
	return Balance{XP: u.XP, Coins: u.Coins}
}

// Level returns xp/width + 1. A non-positive width falls back to DefaultLevelWidth.
func Level(xp, width int) int {
	if width <= 0 {
		width = DefaultLevelWidth
	}
	if xp < 0 {
		xp = 0
	}
	return xp/width + 1
}

// Progress is the fraction of the current level already earned, in [0, 1).
func Progress(xp, width int) float64 {
	if width <= 0 {
		width = DefaultLevelWidth
	}
	if xp < 0 {
		xp = 0
	}
	return float64(xp%width) / float64(width)
}

// XPToNextLevel returns how much XP is missing for the next level.
func XPToNextLevel(xp, width int) int {
	if width <= 0 {
		width = DefaultLevelWidth
	}
	if xp < 0 {
		xp = 0
	}
	return width - xp%width
}

// Progression is the display view of a user's XP.
type Progression struct {
	XP       int
	Level    int
	Width    int
	Fraction float64
	ToNext   int
}

// NewProgression computes the display view for xp.
func NewProgression(xp, width int) Progression {
	if width <= 0 {
		width = DefaultLevelWidth
	}
	return Progression{
		XP:       xp,
		Level:    Level(xp, width),
		Width:    width,
		Fraction: Progress(xp, width),
		ToNext:   XPToNextLevel(xp, width),
	}
}
