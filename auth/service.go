package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/audit"
	"github.com/intermodalis/transitcore/contrib"
	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/permissions"
	"github.com/intermodalis/transitcore/store"
)

// Service implements the auth/session flows of spec.md §4.4. Like
// contrib.Engine it holds no connection of its own, running every
// operation through the injected store.TransactionRunner.
type Service struct {
	logger  *zap.Logger
	txs     store.TransactionRunner
	keys    KeySet
	captcha store.CaptchaStore
	audit   *audit.Service
	now     func() time.Time
}

// NewService builds a Service. now defaults to time.Now if nil.
func NewService(logger *zap.Logger, txs store.TransactionRunner, keys KeySet, captcha store.CaptchaStore, auditSvc *audit.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{logger: logger, txs: txs, keys: keys, captcha: captcha, audit: auditSvc, now: now}
}

// RegisterRequest is the input to Register (spec.md §4.2.4, §4.4).
type RegisterRequest struct {
	Username      string
	Password      string
	Email         string
	Consent       model.Consent
	IP            string
	CaptchaID     uuid.UUID
	CaptchaAnswer string
}

// Register validates and creates a new account (spec.md §4.4 "Register").
// Registration requires a captcha answer; its absence or mismatch is
// Forbidden (spec.md §4.4 "Captcha").
func (s *Service) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	if req.CaptchaID == uuid.Nil {
		return 0, coreerrors.Forbidden.New("captcha required")
	}
	ok, err := s.captcha.Consume(ctx, req.CaptchaID, req.CaptchaAnswer)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, coreerrors.Forbidden.New("captcha verification failed")
	}

	if err := contrib.ValidateUsername(req.Username); err != nil {
		return 0, err
	}
	if err := contrib.ValidatePassword(req.Password); err != nil {
		return 0, err
	}
	if err := contrib.ValidateEmail(req.Email); err != nil {
		return 0, err
	}
	if err := contrib.ValidateConsent(req.Consent); err != nil {
		return 0, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return 0, err
	}

	var userID int64
	err = s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		exists, err := tx.Users().ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
		if err != nil {
			return err
		}
		if exists {
			return coreerrors.ValidationFailure.New("Username already in use")
		}

		id, err := tx.Users().Create(ctx, model.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			Consent:      req.Consent,
			CreatedAt:    s.now(),
		})
		if err != nil {
			return err
		}
		userID = id

		_, err = s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   id,
			Datetime: s.now(),
			IP:       req.IP,
			Action: model.AuditAction{
				Kind: model.ActionRegister,
				Register: &model.RegisterData{
					Username: req.Username,
					Email:    req.Email,
				},
			},
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// LoginResult carries the minted refresh claims and signed token.
type LoginResult struct {
	Claims RefreshClaims
	Token  string
}

// Login verifies credentials and mints a refresh token (spec.md §4.4
// "Login"). Wrong username and wrong password both return Forbidden with
// no distinction, so a client cannot enumerate valid usernames.
func (s *Service) Login(ctx context.Context, username, password, ip, userAgent string) (*LoginResult, error) {
	var result *LoginResult
	err := s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		user, err := tx.Users().GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return coreerrors.Forbidden.New("invalid credentials")
		}
		valid, err := VerifyPassword(password, user.PasswordHash)
		if err != nil {
			return err
		}
		if !valid {
			return coreerrors.Forbidden.New("invalid credentials")
		}

		now := s.now()
		jti := uuid.New()
		claims := RefreshClaims{
			RegisteredClaims: registeredClaims(jti.String(), now, s.keys.RefreshTTL),
			UserID:           user.ID,
			Username:         user.Username,
		}
		token, err := s.keys.signRefresh(claims)
		if err != nil {
			return err
		}

		if err := tx.Sessions().CreateSession(ctx, model.Session{
			ID:         jti,
			UserID:     user.ID,
			IP:         ip,
			UserAgent:  userAgent,
			Expiration: claims.ExpiresAt.Time,
		}); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   user.ID,
			Datetime: now,
			IP:       ip,
			Action:   model.AuditAction{Kind: model.ActionLogin},
		}); err != nil {
			return err
		}

		result = &LoginResult{Claims: claims, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RenewResult carries the minted access claims and signed token.
type RenewResult struct {
	Claims AccessClaims
	Token  string
}

// Renew exchanges a valid, unrevoked refresh token for a fresh access
// token (spec.md §4.4 "Renew").
func (s *Service) Renew(ctx context.Context, refreshToken, ip string) (*RenewResult, error) {
	refresh, err := s.keys.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	var result *RenewResult
	err = s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		user, err := tx.Users().GetByID(ctx, refresh.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return coreerrors.IllegalState.New("valid refresh token for a gone user %d", refresh.UserID)
		}

		refreshJTI, err := uuid.Parse(refresh.ID)
		if err != nil {
			return coreerrors.IllegalState.Wrap(err)
		}
		session, err := tx.Sessions().GetSession(ctx, refreshJTI)
		if err != nil {
			return err
		}
		if session == nil {
			return coreerrors.Forbidden.New("unknown session")
		}
		if session.Revoked {
			return coreerrors.Unauthorized.New("session revoked")
		}

		perms := permissions.ComputeForUser(user.IsAdmin, user.IsTrusted, user.WorksFor)

		now := s.now()
		accessJTI := uuid.New()
		claims := AccessClaims{
			RegisteredClaims: registeredClaims(accessJTI.String(), now, s.keys.AccessTTL),
			Origin:           refreshJTI,
			UserID:           user.ID,
			Permissions:      perms,
		}
		token, err := s.keys.signAccess(claims)
		if err != nil {
			return err
		}

		if err := tx.Sessions().CreateAccessSession(ctx, model.AccessSession{
			ID:         accessJTI,
			RefreshID:  refreshJTI,
			UserID:     user.ID,
			Expiration: claims.ExpiresAt.Time,
		}); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   user.ID,
			Datetime: now,
			IP:       ip,
			Action:   model.AuditAction{Kind: model.ActionRefreshToken},
		}); err != nil {
			return err
		}

		result = &RenewResult{Claims: claims, Token: token}
		return nil
	})
	if err != nil {
		if coreerrors.IllegalState.Has(err) {
			s.logger.Error("auth: renew hit an illegal state", zap.Int64("user_id", refresh.UserID), zap.Error(err))
		}
		return nil, err
	}
	return result, nil
}

// CreateManagementToken mints a management-flavored token for programmatic
// admin use (spec.md §4.4). Requires Admin.IssueManagementToken.
func (s *Service) CreateManagementToken(ctx context.Context, requesterPerms permissions.Permissions, userID int64, name, ip string) (string, error) {
	if !requesterPerms.Admin.IssueManagementToken {
		return "", coreerrors.Forbidden.New("missing admin.issue_management_token capability")
	}

	var token string
	err := s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		now := s.now()
		jti := uuid.New()
		claims := ManagementClaims{
			RegisteredClaims: registeredClaims(jti.String(), now, s.keys.ManagementTTL),
			UserID:           userID,
		}
		signed, err := s.keys.signManagement(claims)
		if err != nil {
			return err
		}

		if err := tx.Sessions().CreateSession(ctx, model.Session{
			ID:         jti,
			UserID:     userID,
			IP:         ip,
			Expiration: claims.ExpiresAt.Time,
		}); err != nil {
			return err
		}
		if err := tx.Sessions().CreateManagementToken(ctx, model.ManagementTokenRecord{
			ID:     jti,
			Name:   name,
			UserID: userID,
			Token:  signed,
		}); err != nil {
			return err
		}

		if _, err := s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   userID,
			Datetime: now,
			IP:       ip,
			Action: model.AuditAction{
				Kind:                  model.ActionManagementTokenIssued,
				ManagementTokenIssued: &model.ManagementTokenIssuedData{Session: jti},
			},
		}); err != nil {
			return err
		}

		token = signed
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Revoke marks a session revoked; subsequent Renew calls against it fail
// Unauthorized (spec.md §4.4 "Revoke").
func (s *Service) Revoke(ctx context.Context, sessionID uuid.UUID, userID int64, ip string, wasLogout bool) error {
	return s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Sessions().RevokeSession(ctx, sessionID); err != nil {
			return err
		}
		_, err := s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   userID,
			Datetime: s.now(),
			IP:       ip,
			Action: model.AuditAction{
				Kind:           model.ActionSessionRevoked,
				SessionRevoked: &model.SessionRevokedData{Session: sessionID, WasLogout: wasLogout},
			},
		})
		return err
	})
}

// ChangePassword implements the self-service path (spec.md §4.4 "Change
// password (self)"): the old password must verify against the username
// claimed in the request AND that username's id must match claims.uid;
// otherwise Forbidden. Do not relax this to a case-insensitive username
// comparison (spec.md §9): a case-folding collision across two distinct
// accounts would let one user's old-password check authorize a change to
// a different account.
func (s *Service) ChangePassword(ctx context.Context, claimedUserID int64, claimedUsername, oldPassword, newPassword, ip string) error {
	if err := contrib.ValidatePassword(newPassword); err != nil {
		return err
	}
	return s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		user, err := tx.Users().GetByUsername(ctx, claimedUsername)
		if err != nil {
			return err
		}
		if user == nil || user.ID != claimedUserID {
			return coreerrors.Forbidden.New("username does not match session")
		}
		valid, err := VerifyPassword(oldPassword, user.PasswordHash)
		if err != nil {
			return err
		}
		if !valid {
			return coreerrors.Forbidden.New("invalid credentials")
		}
		newHash, err := HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   user.ID,
			Datetime: s.now(),
			IP:       ip,
			Action:   model.AuditAction{Kind: model.ActionChangePassword},
		})
		return err
	})
}

// AdminChangePassword implements the admin path (spec.md §4.4 "Admin
// change password"): no old-password check, requires Admin.ManageUsers.
func (s *Service) AdminChangePassword(ctx context.Context, adminPerms permissions.Permissions, adminID, targetUserID int64, newPassword, ip string) error {
	if !adminPerms.Admin.ManageUsers {
		return coreerrors.Forbidden.New("missing admin.manage_users capability")
	}
	if err := contrib.ValidatePassword(newPassword); err != nil {
		return err
	}
	newHash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, targetUserID, newHash); err != nil {
			return err
		}
		_, err := s.audit.Record(ctx, tx, model.AuditLogEntry{
			UserID:   adminID,
			Datetime: s.now(),
			IP:       ip,
			Action: model.AuditAction{
				Kind:                model.ActionAdminChangePassword,
				AdminChangePassword: &model.AdminChangePasswordData{ForUser: targetUserID},
			},
		})
		return err
	})
}

func registeredClaims(jti string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
}
