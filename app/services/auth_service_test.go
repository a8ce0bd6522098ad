package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dukaan/app/models"
	"dukaan/app/services"
	"dukaan/pkg/apperr"
)

func newAuthFixture() (*services.AuthService, *fakeUserRepo, *fakeProfileRepo, *recordingNotifier) {
	users := newFakeUserRepo()
	profiles := newFakeProfileRepo()
	notifier := newRecordingNotifier()
	return services.NewAuthService(users, profiles, notifier), users, profiles, notifier
}

func TestRegister_CustomerDefaults(t *testing.T) {
	svc, _, profiles, _ := newAuthFixture()

	res, err := svc.Register(context.Background(), services.RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.True(t, res.User.IsActive)

	// No delivery profile for customers.
	assert.Empty(t, profiles.profiles)
}

func TestRegister_DriverGetsProfile(t *testing.T) {
	svc, _, profiles, _ := newAuthFixture()

	res, err := svc.Register(context.Background(), services.RegisterInput{
		Name:     "Ravi",
		Phone:    "9876543210",
		Password: "secret1",
		Role:     models.RoleDeliveryBoy,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDeliveryBoy, res.User.Role)
	assert.Len(t, profiles.profiles, 1)
}

func TestRegister_RequiresEmailOrPhone(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), services.RegisterInput{
		Name:     "Nobody",
		Password: "secret1",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	in := services.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLogin_ByEmailAndPhone(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), services.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Password: "secret1",
	})
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	res, err = svc.Login(context.Background(), "9876543210", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_SameErrorForMissingUserAndWrongPassword(t *testing.T) {
	svc, users, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), services.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, errMissing := svc.Login(context.Background(), "ghost@example.com", "secret1")
	_, errWrongPw := svc.Login(context.Background(), "asha@example.com", "wrong")

	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(errMissing))
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(errWrongPw))
	assert.Equal(t, apperr.Message(errMissing), apperr.Message(errWrongPw))

	// Inactive users get the exact same error too.
	for _, u := range users.users {
		u.IsActive = false
	}
	_, errInactive := svc.Login(context.Background(), "asha@example.com", "secret1")
	assert.Equal(t, apperr.Message(errMissing), apperr.Message(errInactive))
}

func TestPasswordReset_NoUserEnumeration(t *testing.T) {
	svc, _, _, notifier := newAuthFixture()

	res, err := svc.Register(context.Background(), services.RegisterInput{
		Name: "Asha", Phone: "9876543210", Password: "secret1",
	})
	require.NoError(t, err)

	msgKnown, err := svc.RequestPasswordReset(context.Background(), "9876543210")
	require.NoError(t, err)
	msgUnknown, err := svc.RequestPasswordReset(context.Background(), "0000000000")
	require.NoError(t, err)

	// Identical response either way; the token travels only via the notifier.
	assert.Equal(t, msgKnown, msgUnknown)
	assert.NotEmpty(t, notifier.tokenFor(res.User.ID))
}

func TestPasswordReset_FullFlow(t *testing.T) {
	svc, _, _, notifier := newAuthFixture()

	res, err := svc.Register(context.Background(), services.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = svc.RequestPasswordReset(context.Background(), "asha@example.com")
	require.NoError(t, err)

	token := notifier.tokenFor(res.User.ID)
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "newpass1"))

	// Old password no longer works, new one does.
	_, err = svc.Login(context.Background(), "asha@example.com", "secret1")
	assert.Error(t, err)
	_, err = svc.Login(context.Background(), "asha@example.com", "newpass1")
	assert.NoError(t, err)

	// Token is single-use.
	err = svc.ResetPassword(context.Background(), token, "another1")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestResetPassword_BogusToken(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	err := svc.ResetPassword(context.Background(), "not-a-real-token", "newpass1")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestRefresh_InactiveUserRejected(t *testing.T) {
	svc, users, _, _ := newAuthFixture()

	res, err := svc.Register(context.Background(), services.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), res.Token)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.Token)

	for _, u := range users.users {
		u.IsActive = false
	}
	_, err = svc.Refresh(context.Background(), res.Token)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}
