package firebase

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokenVerifier struct {
	mock.Mock
}

func (m *mockTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	token, _ := args.Get(0).(*auth.Token)
	return token, args.Error(1)
}

func TestVerifier_VerifyToken(t *testing.T) {
	client := &mockTokenVerifier{}
	client.On("VerifyIDToken", mock.Anything, "good").
		Return(&auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "rahim@example.com"}}, nil)
	client.On("VerifyIDToken", mock.Anything, "anonymous").
		Return(&auth.Token{UID: "u2", Claims: map[string]interface{}{}}, nil)
	client.On("VerifyIDToken", mock.Anything, "expired").
		Return(nil, errors.New("ID token has expired"))

	v := &Verifier{client: client}
	ctx := context.Background()

	email, err := v.VerifyToken(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "rahim@example.com", email)

	_, err = v.VerifyToken(ctx, "anonymous")
	assert.ErrorIs(t, err, ErrNoEmail)

	_, err = v.VerifyToken(ctx, "expired")
	assert.ErrorContains(t, err, "expired")

	client.AssertExpectations(t)
}
