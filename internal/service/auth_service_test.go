package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
)

func newAuthFixture(t *testing.T) (UserService, AuthService) {
	t.Helper()

	db := newTestDB(t)
	require.NoError(t, repository.NewPrivilegeRepo(db).SeedDefaults())
	roleRepo := repository.NewRoleRepo(db)
	require.NoError(t, roleRepo.SeedDefaults())

	// CASHIER needs its privilege set for the token payload
	cashierRole, err := roleRepo.FindByCode(model.RoleCashier)
	require.NoError(t, err)
	privileges, err := repository.NewPrivilegeRepo(db).FindByCodes(model.CashierPrivileges)
	require.NoError(t, err)
	require.NoError(t, roleRepo.ReplacePrivileges(cashierRole, privileges))

	userRepo := repository.NewUserRepo(db)
	return NewUserService(userRepo, roleRepo), NewAuthService(userRepo)
}

func createCashier(t *testing.T, users UserService) *model.UserResponse {
	t.Helper()

	user, err := users.CreateUser(&CreateUserRequest{
		Username: "maria",
		Email:    "maria@example.com",
		Password: "secret1234",
		FullName: "Maria Lopez",
		RoleCode: model.RoleCashier,
	}, uuid.New())
	require.NoError(t, err)
	return user
}

func TestLoginIssuesToken(t *testing.T) {
	users, auth := newAuthFixture(t)
	createCashier(t, users)

	resp, err := auth.Login("maria", "secret1234")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "maria", resp.User.Username)
	require.NotNil(t, resp.Role)
	assert.Equal(t, model.RoleCashier, resp.Role.Code)
	assert.ElementsMatch(t, model.CashierPrivileges, resp.Privileges)

	// Last login is stamped
	stored, err := users.GetUser(resp.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users, auth := newAuthFixture(t)
	createCashier(t, users)

	_, err := auth.Login("maria", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login("nobody", "secret1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	users, auth := newAuthFixture(t)
	user := createCashier(t, users)

	require.NoError(t, users.DeactivateUser(user.ID, uuid.New()))

	_, err := auth.Login("maria", "secret1234")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	users, auth := newAuthFixture(t)
	createCashier(t, users)

	login, err := auth.Login("maria", "secret1234")
	require.NoError(t, err)

	resp, err := auth.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, resp.User.ID)
	assert.ElementsMatch(t, model.CashierPrivileges, resp.Privileges)

	_, err = auth.ValidateToken("not-a-token")
	assert.Error(t, err)
}
