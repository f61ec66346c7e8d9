package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/models"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/repository"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

const (
	MsgRegistered      = "Registration successful. Please check your email to verify your account."
	MsgLoggedIn        = "Login successful"
	MsgAlreadyVerified = "Your email is already verified. Please proceed to login."
	MsgVerified        = "Email verified successfully. You can now login."
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type SessionMinter interface {
	GenerateToken(email string) (string, error)
}

// Notifier delivers verification links. Errors are logged by the caller and never
// undo committed state.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
}

type Config struct {
	TokenTTL       time.Duration
	ResendCooldown time.Duration
	RetainFor      time.Duration
}

func DefaultConfig() Config {
	return Config{
		TokenTTL:       10 * time.Minute,
		ResendCooldown: 5 * time.Minute,
		RetainFor:      24 * time.Hour,
	}
}

type AuthService struct {
	store    repository.Transactor
	hasher   PasswordHasher
	minter   SessionMinter
	notifier Notifier
	cfg      Config
	now      func() time.Time
	log      *zap.Logger

	// dummyDigest is checked against for unknown emails so both failure paths cost a
	// hash comparison.
	dummyDigest string
}

func NewAuthService(
	store repository.Transactor,
	hasher PasswordHasher,
	minter SessionMinter,
	notifier Notifier,
	cfg Config,
) *AuthService {
	def := DefaultConfig()
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = def.ResendCooldown
	}
	if cfg.RetainFor <= 0 {
		cfg.RetainFor = def.RetainFor
	}

	dummy, _ := hasher.Hash(uuid.NewString())

	return &AuthService{
		store:       store,
		hasher:      hasher,
		minter:      minter,
		notifier:    notifier,
		cfg:         cfg,
		now:         time.Now,
		log:         logger.WithModule("auth"),
		dummyDigest: dummy,
	}
}

// WithClock replaces the time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	now := s.now()
	var token *models.VerificationToken

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		exists, err := repos.Users.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return ErrDuplicateAccount
		}

		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := &models.User{
			ID:           uuid.New(),
			Email:        req.Email,
			PasswordHash: hashed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		user.TouchEmailSent(now)

		if err := repos.Users.Save(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserAlreadyExists) {
				return ErrDuplicateAccount
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		token, err = issueToken(ctx, repos, user.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, req.Email, token.Token)
	logger.Audit("account_registered", req.Email, nil)

	return &dto.AuthResponse{Message: MsgRegistered}, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	now := s.now()
	var (
		resp  *dto.AuthResponse
		fresh *models.VerificationToken
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		user, err := repos.Users.FindByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				s.hasher.Verify(req.Password, s.dummyDigest)
				return ErrInvalidCredentials
			}
			return fmt.Errorf("failed to find user: %w", err)
		}

		if !s.hasher.Verify(req.Password, user.PasswordHash) {
			return ErrInvalidCredentials
		}

		if user.IsVerified {
			sessionToken, err := s.minter.GenerateToken(user.Email)
			if err != nil {
				return fmt.Errorf("failed to generate session token: %w", err)
			}
			resp = &dto.AuthResponse{Message: MsgLoggedIn, Token: sessionToken, Email: user.Email}
			return nil
		}

		if remaining, wait := s.resendWait(user, now); wait {
			return &VerificationPendingError{RemainingMinutes: remaining}
		}

		if err := supersedeActiveToken(ctx, repos, user.ID); err != nil {
			return err
		}

		fresh, err = issueToken(ctx, repos, user.ID, now)
		if err != nil {
			return err
		}

		user.TouchEmailSent(now)
		user.UpdatedAt = now
		if err := repos.Users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fresh != nil {
		s.notify(ctx, req.Email, fresh.Token)
		s.log.Info("verification email resent", zap.String("email", req.Email))
		return nil, ErrVerificationResent
	}

	return resp, nil
}

func (s *AuthService) VerifyAccount(ctx context.Context, tokenString string) (*dto.AuthResponse, error) {
	now := s.now()
	var resp *dto.AuthResponse

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		token, err := repos.Tokens.FindByToken(ctx, tokenString)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return ErrTokenNotFound
			}
			return fmt.Errorf("failed to find verification token: %w", err)
		}

		user, err := repos.Users.FindByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrTokenNotFound
			}
			return fmt.Errorf("failed to find token owner: %w", err)
		}

		if user.IsVerified {
			resp = &dto.AuthResponse{Message: MsgAlreadyVerified, Email: user.Email}
			return nil
		}

		if token.Used {
			return ErrTokenAlreadyUsed
		}

		if token.IsExpired(now, s.cfg.TokenTTL) {
			return ErrTokenExpired
		}

		user.MarkVerified()
		user.UpdatedAt = now
		if err := repos.Users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to mark user verified: %w", err)
		}

		token.Used = true
		if err := repos.Tokens.Save(ctx, token); err != nil {
			return fmt.Errorf("failed to consume verification token: %w", err)
		}

		resp = &dto.AuthResponse{Message: MsgVerified, Email: user.Email}
		logger.Audit("account_verified", user.Email, map[string]interface{}{"token_id": token.ID.String()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *AuthService) Profile(ctx context.Context, email string) (*models.User, error) {
	var user *models.User

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		user, err = repos.Users.FindByEmail(ctx, email)
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// PurgeStaleTokens deletes tokens that expired more than RetainFor ago.
func (s *AuthService) PurgeStaleTokens(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-(s.cfg.TokenTTL + s.cfg.RetainFor))
	var removed int64

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		removed, err = repos.Tokens.DeleteStale(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge verification tokens: %w", err)
	}

	return removed, nil
}

// resendWait reports the whole minutes left before another verification mail may be
// sent. The result is clamped to [1, cooldown minutes].
func (s *AuthService) resendWait(user *models.User, now time.Time) (int, bool) {
	if user.LastEmailSentAt == nil {
		return 0, false
	}

	elapsed := now.Sub(*user.LastEmailSentAt)
	if elapsed >= s.cfg.ResendCooldown {
		return 0, false
	}

	cooldownMinutes := max(int(s.cfg.ResendCooldown/time.Minute), 1)
	remaining := cooldownMinutes - int(elapsed/time.Minute)

	return min(max(remaining, 1), cooldownMinutes), true
}

func (s *AuthService) notify(ctx context.Context, to, token string) {
	if err := s.notifier.SendVerificationEmail(ctx, to, token); err != nil {
		s.log.Warn("verification email not sent", zap.String("email", to), zap.Error(err))
	}
}

func issueToken(ctx context.Context, repos repository.Repos, userID uuid.UUID, now time.Time) (*models.VerificationToken, error) {
	token, err := models.NewVerificationToken(userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := repos.Tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save verification token: %w", err)
	}

	return token, nil
}

func supersedeActiveToken(ctx context.Context, repos repository.Repos, userID uuid.UUID) error {
	prev, err := repos.Tokens.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find active token: %w", err)
	}

	prev.Used = true
	if err := repos.Tokens.Save(ctx, prev); err != nil {
		return fmt.Errorf("failed to supersede token: %w", err)
	}
	return nil
}
