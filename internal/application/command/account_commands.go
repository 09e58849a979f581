package command

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 4

// RegisterCommand creates an account.
type RegisterCommand struct {
	Username string
	Password string
	Nickname string
}

// Validate validates the command.
func (c RegisterCommand) Validate() error {
	name := strings.TrimSpace(c.Username)
	if name == "" {
		return shared.Validationf("user", "Register", "username is required")
	}
	if strings.ContainsAny(name, " \t\n\r,") {
		return shared.Validationf("user", "Register", "username cannot contain spaces or commas")
	}
	if len(c.Password) < MinPasswordLength {
		return shared.Validationf("user", "Register", "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// RegisterHandler handles RegisterCommand.
type RegisterHandler struct {
	users     user.Repository
	publisher shared.EventPublisher
	rules     Rules
	cost      int
	log       *logger.Logger
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(users user.Repository, publisher shared.EventPublisher, rules Rules, log *logger.Logger) *RegisterHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterHandler{users: users, publisher: publisher, rules: rules, cost: bcrypt.DefaultCost, log: log}
}

// WithHashCost overrides the bcrypt cost, used by tests.
func (h *RegisterHandler) WithHashCost(cost int) *RegisterHandler {
	h.cost = cost
	return h
}

// Handle hashes the password and stores a user with default tokens.
func (h *RegisterHandler) Handle(ctx context.Context, cmd RegisterCommand) (*user.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.cost)
	if err != nil {
		return nil, shared.WrapError("user", "Register", shared.ErrValidation, "password cannot be hashed", err)
	}

	goal := h.rules.DefaultDailyGoal
	if goal <= 0 {
		goal = user.DefaultDailyGoal
	}
	u, err := user.NewUser(cmd.Username, string(hash), goal)
	if err != nil {
		return nil, err
	}
	if nick := strings.TrimSpace(cmd.Nickname); nick != "" {
		u.Nickname = nick
	}

	if err := h.users.Create(ctx, u); err != nil {
		if shared.IsAlreadyExists(err) {
			return nil, shared.ErrUserAlreadyExists
		}
		return nil, shared.Unavailable("user", "Register", err)
	}

	if err := h.publisher.Publish(shared.NewUserRegisteredEvent(u.Username)); err != nil {
		h.log.Warn("event publish failed", logger.Err(err))
	}
	h.log.Info("user registered", logger.Username(u.Username))
	return u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateHandler checks credentials.
type AuthenticateHandler struct {
	users user.Repository
	log   *logger.Logger
}

// NewAuthenticateHandler creates a new AuthenticateHandler.
func NewAuthenticateHandler(users user.Repository, log *logger.Logger) *AuthenticateHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthenticateHandler{users: users, log: log}
}

// Handle returns the user when the password matches.
// Unknown users and wrong passwords both yield shared.ErrBadCredentials.
func (h *AuthenticateHandler) Handle(ctx context.Context, username, password string) (*user.User, error) {
	u, err := h.users.Get(ctx, strings.TrimSpace(username))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrBadCredentials
		}
		return nil, shared.Unavailable("user", "Authenticate", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.log.Warn("stored password hash is invalid", logger.Username(u.Username), logger.Err(err))
		}
		return nil, shared.ErrBadCredentials
	}
	return u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLAIM LOGIN BONUS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ClaimLoginBonusCommand grants the login bonus on the first session of a day.
type ClaimLoginBonusCommand struct {
	Username string
}

// ClaimLoginBonusResult reports the grant.
type ClaimLoginBonusResult struct {
	Granted bool
	Coins   int
	Balance BalanceView
}

// ClaimLoginBonusHandler handles ClaimLoginBonusCommand.
type ClaimLoginBonusHandler struct {
	ledger *Ledger
	log    *logger.Logger
}

// NewClaimLoginBonusHandler creates a new ClaimLoginBonusHandler.
func NewClaimLoginBonusHandler(ledger *Ledger, log *logger.Logger) *ClaimLoginBonusHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ClaimLoginBonusHandler{ledger: ledger, log: log}
}

// Handle grants the bonus if last_login_date is not today.
func (h *ClaimLoginBonusHandler) Handle(ctx context.Context, cmd ClaimLoginBonusCommand) (*ClaimLoginBonusResult, error) {
	u, ok := h.ledger.Load(ctx, cmd.Username)
	if !ok {
		return &ClaimLoginBonusResult{}, nil
	}

	rules := h.ledger.Rules()
	today := rules.Today()
	before := u.Balance()
	if !u.GrantLoginBonus(today, rules.LoginBonusCoins) {
		return &ClaimLoginBonusResult{Balance: h.ledger.view(before.XP, before.Coins)}, nil
	}

	bal, err := h.ledger.Commit(ctx, u, Change{
		Reason:    "login_bonus",
		CoinDelta: rules.LoginBonusCoins,
		Patch:     user.Patch{LastLoginDate: u.LastLoginDate},
		Before:    before,
	})
	if err != nil {
		return nil, err
	}

	h.ledger.Publish(shared.NewLoginBonusGrantedEvent(cmd.Username, rules.LoginBonusCoins, today.String()))
	h.log.Info("login bonus granted", logger.Username(cmd.Username), logger.CoinDelta(rules.LoginBonusCoins))
	return &ClaimLoginBonusResult{
		Granted: true,
		Coins:   rules.LoginBonusCoins,
		Balance: h.ledger.view(bal.XP, bal.Coins),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PREFERENCES COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesCommand changes profile settings. Nil fields are kept.
type UpdatePreferencesCommand struct {
	Username      string
	DailyGoal     *int
	Nickname      *string
	MainTextColor *string
	AccentColor   *string
}

// Validate validates the command.
func (c UpdatePreferencesCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("user", "UpdatePreferences", "username is required")
	}
	if c.DailyGoal != nil && *c.DailyGoal <= 0 {
		return shared.Validationf("user", "UpdatePreferences", "daily goal must be positive")
	}
	if c.Nickname != nil && strings.TrimSpace(*c.Nickname) == "" {
		return shared.Validationf("user", "UpdatePreferences", "nickname cannot be empty")
	}
	for _, color := range []*string{c.MainTextColor, c.AccentColor} {
		if color != nil && !isHexColor(*color) {
			return shared.Validationf("user", "UpdatePreferences", "color %q must look like #RRGGBB", *color)
		}
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// UpdatePreferencesHandler handles UpdatePreferencesCommand.
type UpdatePreferencesHandler struct {
	users user.Repository
	log   *logger.Logger
}

// NewUpdatePreferencesHandler creates a new UpdatePreferencesHandler.
func NewUpdatePreferencesHandler(users user.Repository, log *logger.Logger) *UpdatePreferencesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UpdatePreferencesHandler{users: users, log: log}
}

// Handle writes the changed fields.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	patch := user.Patch{
		DailyGoal:     cmd.DailyGoal,
		Nickname:      cmd.Nickname,
		MainTextColor: cmd.MainTextColor,
		AccentColor:   cmd.AccentColor,
	}
	if patch.IsEmpty() {
		return nil
	}

	if err := h.users.Update(ctx, cmd.Username, patch); err != nil {
		if shared.IsNotFound(err) {
			h.log.Debug("preferences for unknown user ignored", logger.Username(cmd.Username))
			return nil
		}
		return shared.Unavailable("user", "UpdatePreferences", err)
	}

	h.log.Info("preferences updated", logger.Username(cmd.Username))
	return nil
}
