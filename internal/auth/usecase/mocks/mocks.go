// Package mocks provides testify mock implementations of the auth use case
// layer interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// MockAPIKeyRepository is a mock implementation of APIKeyRepository.
type MockAPIKeyRepository struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockAPIKeyRepository) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	args := m.Called(ctx, id, partition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

// List mocks the List method.
func (m *MockAPIKeyRepository) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, partition, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

// Revoke mocks the Revoke method.
func (m *MockAPIKeyRepository) Revoke(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
	revokedAt time.Time,
) error {
	args := m.Called(ctx, id, partition, revokedAt)
	return args.Error(0)
}

// MockKeyResolver is a mock implementation of KeyResolver.
type MockKeyResolver struct {
	mock.Mock
}

// Resolve mocks the Resolve method.
func (m *MockKeyResolver) Resolve(ctx context.Context, secretKey string) (*authDomain.AuthContext, error) {
	args := m.Called(ctx, secretKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.AuthContext), args.Error(1)
}

// Invalidate mocks the Invalidate method.
func (m *MockKeyResolver) Invalidate(id string) {
	m.Called(id)
}

// MockAPIKeyUseCase is a mock implementation of APIKeyUseCase.
type MockAPIKeyUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockAPIKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateAPIKeyOutput), args.Error(1)
}

// Get mocks the Get method.
func (m *MockAPIKeyUseCase) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	args := m.Called(ctx, id, partition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.APIKey), args.Error(1)
}

// List mocks the List method.
func (m *MockAPIKeyUseCase) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	args := m.Called(ctx, partition, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.APIKey), args.Error(1)
}

// Revoke mocks the Revoke method.
func (m *MockAPIKeyUseCase) Revoke(ctx context.Context, id string, partition cryptoDomain.Partition) error {
	args := m.Called(ctx, id, partition)
	return args.Error(0)
}

// MockTokenUseCase is a mock implementation of TokenUseCase.
type MockTokenUseCase struct {
	mock.Mock
}

// Issue mocks the Issue method.
func (m *MockTokenUseCase) Issue(
	ctx context.Context,
	caller *authDomain.AuthContext,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.IssueTokenOutput), args.Error(1)
}

// AuthenticateSecretKey mocks the AuthenticateSecretKey method.
func (m *MockTokenUseCase) AuthenticateSecretKey(
	ctx context.Context,
	secretKey string,
) (*authDomain.AuthContext, error) {
	args := m.Called(ctx, secretKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.AuthContext), args.Error(1)
}

// AuthenticateToken mocks the AuthenticateToken method.
func (m *MockTokenUseCase) AuthenticateToken(
	ctx context.Context,
	token string,
	resource string,
) (*authDomain.AuthContext, error) {
	args := m.Called(ctx, token, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.AuthContext), args.Error(1)
}

// MockSecretService is a mock implementation of SecretService.
type MockSecretService struct {
	mock.Mock
}

// GenerateSecretKey mocks the GenerateSecretKey method.
func (m *MockSecretService) GenerateSecretKey(
	partition cryptoDomain.Partition,
) (authDomain.SecretKey, string, error) {
	args := m.Called(partition)
	return args.Get(0).(authDomain.SecretKey), args.String(1), args.Error(2)
}

// HashSecret mocks the HashSecret method.
func (m *MockSecretService) HashSecret(plainSecret string) (string, error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

// CompareSecret mocks the CompareSecret method.
func (m *MockSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

// MockTxManager is a mock implementation of database.TxManager that runs fn
// inline.
type MockTxManager struct {
	mock.Mock
}

// WithTx mocks the WithTx method.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
