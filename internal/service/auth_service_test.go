package service

import (
	"context"
	"testing"

	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpStudentJoinsClassByCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.class(t, f.teacher(t), "1年1組")

	sess, err := f.auth.SignUp(ctx, &model.SignUpRequest{
		Email:         " Hanako@School.jp ",
		Password:      "secret1",
		DisplayName:   "山田花子",
		Role:          model.RoleStudent,
		JoinCode:      class.JoinCode,
		StudentNumber: "7",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "hanako@school.jp", sess.User.Email)
	require.NotNil(t, sess.User.ClassID)
	assert.Equal(t, class.ID, *sess.User.ClassID)

	claims, err := f.auth.CurrentSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)
}

func TestSignUpRejectsBadJoinCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.class(t, f.teacher(t), "1年2組")

	_, err := f.auth.SignUp(ctx, &model.SignUpRequest{
		Email: "a@school.jp", Password: "secret1", DisplayName: "A",
		Role: model.RoleStudent, JoinCode: "ZZZZZZ",
	})
	assert.ErrorIs(t, err, ErrInvalidJoinCode)

	_, err = f.auth.SignUp(ctx, &model.SignUpRequest{
		Email: "b@school.jp", Password: "secret1", DisplayName: "B",
		Role: model.RoleTeacher, JoinCode: class.JoinCode,
	})
	assert.ErrorIs(t, err, ErrJoinCodeForbidden)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	req := &model.SignUpRequest{Email: "t@school.jp", Password: "secret1", DisplayName: "T", Role: model.RoleTeacher}
	_, err := f.auth.SignUp(context.Background(), req)
	require.NoError(t, err)

	_, err = f.auth.SignUp(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInAndSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.CreateTeacher(ctx, "鈴木", "suzuki@school.jp", "correct-horse")
	require.NoError(t, err)

	_, err = f.auth.SignIn(ctx, "suzuki@school.jp", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.SignIn(ctx, "nobody@school.jp", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := f.auth.SignIn(ctx, "SUZUKI@school.jp", "correct-horse")
	require.NoError(t, err)
	claims, err := f.auth.CurrentSession(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.SignOut(ctx, claims))
	_, err = f.auth.CurrentSession(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionInvalidated)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	other.cfg.JWTSecret = "another-secret"

	token, _, err := other.auth.GenerateToken(&model.User{Role: model.RoleTeacher})
	require.NoError(t, err)
	_, err = f.auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestMeRequiresRosterRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := f.teacher(t)
	class := f.class(t, teacher, "2年1組")
	student := f.student(t, class, "田中", "3")

	claims := &Claims{UserID: student.ID, Role: model.RoleStudent}
	me, err := f.auth.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, student.ID, me.ID)

	require.NoError(t, f.classSvc.Delete(ctx, teacher.ID, class.ID))
	_, err = f.auth.Me(ctx, claims)
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = f.auth.Me(ctx, &Claims{UserID: student.ID, Role: model.RoleStudent, ClassID: nil})
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(GeneratedPasswordLength)
	require.NoError(t, err)
	assert.Len(t, pw, GeneratedPasswordLength)
	for _, r := range pw {
		assert.Contains(t, passwordAlphabet, string(r))
	}
}
