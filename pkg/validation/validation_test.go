package validation_test

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/socialconnect/cli/pkg/api"
	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	cliErr := clierrors.CategorizeError(err)
	require.Equal(t, clierrors.ErrorTypeValidation, cliErr.Type)
	return cliErr.Fields
}

func validRegistration() api.RegisterRequest {
	pw := gofakeit.Password(true, true, true, false, false, 12)
	return api.RegisterRequest{
		Email:           gofakeit.Email(),
		Username:        "user_" + gofakeit.LetterN(6),
		Password:        pw,
		PasswordConfirm: pw,
		FirstName:       gofakeit.FirstName(),
		LastName:        gofakeit.LastName(),
	}
}

func TestRegisterRequest(t *testing.T) {
	assert.NoError(t, validation.Struct(validRegistration()))

	tests := []struct {
		name   string
		mutate func(r *api.RegisterRequest)
		field  string
	}{
		{"bad email", func(r *api.RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"short username", func(r *api.RegisterRequest) { r.Username = "ab" }, "username"},
		{"username with dash", func(r *api.RegisterRequest) { r.Username = "has-dash" }, "username"},
		{"long username", func(r *api.RegisterRequest) { r.Username = strings.Repeat("a", 31) }, "username"},
		{"password mismatch", func(r *api.RegisterRequest) { r.PasswordConfirm = r.Password + "x" }, "password_confirm"},
		{"short password", func(r *api.RegisterRequest) { r.Password, r.PasswordConfirm = "short", "short" }, "password"},
		{"missing first name", func(r *api.RegisterRequest) { r.FirstName = "" }, "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			assert.Contains(t, fields(t, validation.Struct(req)), tt.field)
		})
	}
}

func TestPostContent(t *testing.T) {
	assert.NoError(t, validation.Struct(api.CreatePostRequest{Content: "hello world"}))

	f := fields(t, validation.Struct(api.CreatePostRequest{Content: "   "}))
	assert.Equal(t, "cannot be empty", f["content"])

	f = fields(t, validation.Struct(api.CreatePostRequest{Content: strings.Repeat("x", 281)}))
	assert.Equal(t, "cannot exceed 280 characters", f["content"])

	assert.NoError(t, validation.Struct(api.CreatePostRequest{Content: strings.Repeat("x", 280)}))

	f = fields(t, validation.Struct(api.CreatePostRequest{Content: "ok", ImageURL: "ftp://example.com/a.png"}))
	assert.Contains(t, f, "image_url")

	f = fields(t, validation.Struct(api.CreatePostRequest{Content: "ok", Category: "rant"}))
	assert.Equal(t, "must be one of: general, announcement, question", f["category"])
}

func TestCommentContent(t *testing.T) {
	assert.NoError(t, validation.Struct(api.CreateCommentRequest{Content: "nice"}))
	f := fields(t, validation.Struct(api.CreateCommentRequest{Content: strings.Repeat("y", 201)}))
	assert.Equal(t, "cannot exceed 200 characters", f["content"])
}

func TestSettingsUpdateOnlyChecksProvidedFields(t *testing.T) {
	assert.NoError(t, validation.Struct(api.SettingsUpdate{}))

	bad := "sometimes"
	err := validation.Struct(api.SettingsUpdate{Profile: &api.ProfileFieldsUpdate{Privacy: &bad}})
	assert.Contains(t, fields(t, err), "profile.privacy")

	ok := "followers_only"
	assert.NoError(t, validation.Struct(api.SettingsUpdate{Profile: &api.ProfileFieldsUpdate{Privacy: &ok}}))
}

func TestBulkDelete(t *testing.T) {
	assert.Contains(t, fields(t, validation.Struct(api.BulkDeleteRequest{})), "post_ids")

	err := validation.Struct(api.BulkDeleteRequest{PostIDs: []string{gofakeit.UUID(), "nope"}})
	assert.Contains(t, fields(t, err), "post_ids[1]")

	assert.NoError(t, validation.Struct(api.BulkDeleteRequest{PostIDs: []string{gofakeit.UUID()}}))
}

func TestID(t *testing.T) {
	assert.NoError(t, validation.ID("post", gofakeit.UUID()))
	f := fields(t, validation.ID("post", "123"))
	assert.Equal(t, "must be a valid UUID", f["post"])
}
