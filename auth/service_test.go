package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/audit"
	"github.com/intermodalis/transitcore/auth"
	"github.com/intermodalis/transitcore/captcha"
	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/permissions"
)

var fixedNow = time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

func plantCaptcha(t *testing.T, cap *captcha.Store, answer string) uuid.UUID {
	t.Helper()
	id, err := cap.Issue(context.Background(), answer, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	return id
}

func testKeys() auth.KeySet {
	return auth.KeySet{
		AccessSecret:     []byte("access-secret"),
		RefreshSecret:    []byte("refresh-secret"),
		ManagementSecret: []byte("management-secret"),
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       30 * 24 * time.Hour,
		ManagementTTL:    365 * 24 * time.Hour,
	}
}

func newService(db *fakeDB, cap *captcha.Store) *auth.Service {
	auditSvc := audit.NewService(zap.NewNop(), db, nil)
	return auth.NewService(zap.NewNop(), db, testKeys(), cap, auditSvc, func() time.Time {
		return fixedNow
	})
}

func registerConsentGiven() model.Consent {
	return model.Consent{Privacy: true, Terms: true, Copyright: true}
}

func TestRegisterAndLoginHappyPath(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	captchaID := plantCaptcha(t, cap, "7admiral")

	userID, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		IP:            "203.0.113.5",
		CaptchaID:     captchaID,
		CaptchaAnswer: "7admiral",
	})
	require.NoError(t, err)
	require.NotZero(t, userID)

	result, err := svc.Login(context.Background(), "roundsvile", "correct-horse", "203.0.113.5", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, userID, result.Claims.UserID)
	assert.NotEmpty(t, result.Token)

	assert.Len(t, db.audit, 2)
	assert.Equal(t, model.ActionRegister, db.audit[0].Action.Kind)
	assert.Equal(t, model.ActionLogin, db.audit[1].Action.Kind)
}

func TestRegisterRejectsMissingCaptcha(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username: "roundsvile",
		Password: "correct-horse",
		Email:    "rider@example.com",
		Consent:  registerConsentGiven(),
	})
	assert.True(t, coreerrors.Forbidden.Has(err))
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id1 := plantCaptcha(t, cap, "abc")
	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id1,
		CaptchaAnswer: "abc",
	})
	require.NoError(t, err)

	id2 := plantCaptcha(t, cap, "def")
	_, err = svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "another-pass",
		Email:         "other@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id2,
		CaptchaAnswer: "def",
	})
	assert.True(t, coreerrors.ValidationFailure.Has(err))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id := plantCaptcha(t, cap, "abc")
	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "short",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id,
		CaptchaAnswer: "abc",
	})
	assert.True(t, coreerrors.ValidationFailure.Has(err))
}

func TestLoginRejectsWrongPasswordAsForbidden(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id := plantCaptcha(t, cap, "abc")
	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id,
		CaptchaAnswer: "abc",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "roundsvile", "wrong-password", "", "")
	assert.True(t, coreerrors.Forbidden.Has(err))

	_, err = svc.Login(context.Background(), "nobody", "whatever", "", "")
	assert.True(t, coreerrors.Forbidden.Has(err))
}

func TestRenewProducesScopedAccessToken(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id := plantCaptcha(t, cap, "abc")
	userID, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id,
		CaptchaAnswer: "abc",
	})
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), "roundsvile", "correct-horse", "", "")
	require.NoError(t, err)

	renewed, err := svc.Renew(context.Background(), login.Token, "203.0.113.6")
	require.NoError(t, err)
	assert.Equal(t, userID, renewed.Claims.UserID)
	assert.Equal(t, permissions.Default(), renewed.Claims.Permissions)

	originUUID, err := uuid.Parse(login.Claims.ID)
	require.NoError(t, err)
	assert.Equal(t, originUUID, renewed.Claims.Origin)
}

func TestRenewRejectsRevokedSession(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id := plantCaptcha(t, cap, "abc")
	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id,
		CaptchaAnswer: "abc",
	})
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), "roundsvile", "correct-horse", "", "")
	require.NoError(t, err)

	sessionID, err := uuid.Parse(login.Claims.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), sessionID, login.Claims.UserID, "", true))

	_, err = svc.Renew(context.Background(), login.Token, "")
	assert.True(t, coreerrors.Unauthorized.Has(err))
}

func TestCreateManagementTokenRequiresAdminCapability(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	_, err := svc.CreateManagementToken(context.Background(), permissions.Default(), 1, "ci-bot", "")
	assert.True(t, coreerrors.Forbidden.Has(err))

	admin := permissions.ComputeForUser(true, false, nil)
	token, err := svc.CreateManagementToken(context.Background(), admin, 1, "ci-bot", "")
	require.NoError(t, err)
	assert.Contains(t, token, "manag.")

	claims, err := testKeys().DecodeManagement(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
}

func TestChangePasswordRequiresMatchingUsernameAndOldPassword(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id := plantCaptcha(t, cap, "abc")
	userID, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id,
		CaptchaAnswer: "abc",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), userID, "roundsvile", "wrong-old", "new-password", "")
	assert.True(t, coreerrors.Forbidden.Has(err))

	err = svc.ChangePassword(context.Background(), userID+1, "roundsvile", "correct-horse", "new-password", "")
	assert.True(t, coreerrors.Forbidden.Has(err))

	err = svc.ChangePassword(context.Background(), userID, "roundsvile", "correct-horse", "new-password", "203.0.113.7")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "roundsvile", "new-password", "", "")
	require.NoError(t, err)
}

func TestAdminChangePasswordSkipsOldPasswordCheck(t *testing.T) {
	db := newFakeDB()
	cap := captcha.New(func() time.Time { return fixedNow })
	svc := newService(db, cap)

	id := plantCaptcha(t, cap, "abc")
	userID, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username:      "roundsvile",
		Password:      "correct-horse",
		Email:         "rider@example.com",
		Consent:       registerConsentGiven(),
		CaptchaID:     id,
		CaptchaAnswer: "abc",
	})
	require.NoError(t, err)

	admin := permissions.ComputeForUser(true, false, nil)
	err = svc.AdminChangePassword(context.Background(), permissions.Default(), 99, userID, "brand-new-pass", "")
	assert.True(t, coreerrors.Forbidden.Has(err))

	err = svc.AdminChangePassword(context.Background(), admin, 99, userID, "brand-new-pass", "")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "roundsvile", "brand-new-pass", "", "")
	require.NoError(t, err)
}
