package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub-client/internal/validate"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestLoginForm_Validate(t *testing.T) {
	t.Parallel()

	assert.Nil(t, fieldErrors(t, LoginForm{Email: "ada@example.com", Password: "123456"}.Validate()))
	assert.Equal(t, map[string]string{
		"email":    "Invalid email address",
		"password": "Password must be at least 6 characters",
	}, fieldErrors(t, LoginForm{Email: "ada", Password: "12345"}.Validate()))
}

func TestRegisterForm_Validate(t *testing.T) {
	t.Parallel()

	valid := RegisterForm{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            RoleProvider,
	}

	tests := []struct {
		name   string
		mutate func(*RegisterForm)
		want   map[string]string
	}{
		{name: "valid"},
		{
			name:   "mismatch",
			mutate: func(f *RegisterForm) { f.ConfirmPassword = "secret2" },
			want:   map[string]string{"confirmPassword": "Passwords do not match"},
		},
		{
			name:   "admin cannot self register",
			mutate: func(f *RegisterForm) { f.Role = RoleAdmin },
			want:   map[string]string{"role": "Please select a role"},
		},
		{
			name:   "short name",
			mutate: func(f *RegisterForm) { f.Name = "A" },
			want:   map[string]string{"name": "Name must be at least 2 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := valid
			if tt.mutate != nil {
				tt.mutate(&f)
			}
			assert.Equal(t, tt.want, fieldErrors(t, f.Validate()))
		})
	}
}

func TestChangePasswordForm_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		form ChangePasswordForm
		want map[string]string
	}{
		{
			name: "valid",
			form: ChangePasswordForm{CurrentPassword: "old", NewPassword: "longenough", ConfirmPassword: "longenough"},
		},
		{
			name: "short confirm",
			form: ChangePasswordForm{CurrentPassword: "old", NewPassword: "longenough", ConfirmPassword: "short"},
			want: map[string]string{"confirmPassword": "Password must be at least 8 characters"},
		},
		{
			name: "mismatch",
			form: ChangePasswordForm{CurrentPassword: "old", NewPassword: "longenough", ConfirmPassword: "different"},
			want: map[string]string{"confirmPassword": "Passwords do not match"},
		},
		{
			name: "missing current",
			form: ChangePasswordForm{NewPassword: "longenough", ConfirmPassword: "longenough"},
			want: map[string]string{"currentPassword": "Current password is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fieldErrors(t, tt.form.Validate()))
		})
	}
}

func TestProfileForm_Validate(t *testing.T) {
	t.Parallel()

	assert.Nil(t, fieldErrors(t, ProfileForm{Name: "Ada"}.Validate()))
	assert.Equal(t,
		map[string]string{"image": "Please enter a valid image URL"},
		fieldErrors(t, ProfileForm{Name: "Ada", Image: "avatar"}.Validate()),
	)
}

func TestStatus_Valid(t *testing.T) {
	t.Parallel()
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusSuspended.Valid())
	assert.False(t, Status("BANNED").Valid())
}
