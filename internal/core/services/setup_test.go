package services

import (
	"bytes"
	"testing"

	"payportal/internal/adapters/persistence/dbtest"
	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/config"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/fieldcrypt"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	cipher      *fieldcrypt.Cipher
	indexer     *fieldcrypt.Indexer
	userRepo    repositories.UserRepository
	paymentRepo repositories.PaymentRepository
	eventRepo   repositories.PaymentEventRepository
	identity    *IdentityService
	auth        *AuthService
	payments    *PaymentService
	review      *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	key := bytes.Repeat([]byte{0x42}, fieldcrypt.KeySize)
	cipher, err := fieldcrypt.New(key)
	require.NoError(t, err)
	indexKey, err := fieldcrypt.DeriveIndexKey(key)
	require.NoError(t, err)
	indexer, err := fieldcrypt.NewIndexer(indexKey)
	require.NoError(t, err)

	env := &testEnv{
		db:          db,
		cfg:         cfg,
		cipher:      cipher,
		indexer:     indexer,
		userRepo:    repositories.NewUserRepository(db),
		paymentRepo: repositories.NewPaymentRepository(db),
		eventRepo:   repositories.NewPaymentEventRepository(db),
	}
	env.identity = NewIdentityService(cipher, indexer, env.userRepo)
	env.auth = NewAuthService(env.userRepo, repositories.NewRefreshTokenRepository(db), env.identity, cfg)
	env.payments = NewPaymentService(env.paymentRepo, cipher)
	env.review = NewReviewService(env.paymentRepo, env.eventRepo, cipher)
	return env
}

func validRegistration(username, idNumber, account string) *RegisterInput {
	return &RegisterInput{
		FullName:      "Jane O'Neil",
		IDNumber:      idNumber,
		AccountNumber: account,
		Username:      username,
		Password:      "Str0ng!Pass",
	}
}

// insertLegacyUser writes a row the way pre-index releases did: envelopes only.
func (e *testEnv) insertLegacyUser(t *testing.T, username, idEnvelope, accEnvelope string) *models.User {
	t.Helper()
	u := &models.User{
		Username:      username,
		FullName:      "Legacy User",
		Password:      "$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva",
		Role:          domain.RoleCustomer,
		IDNumber:      idEnvelope,
		AccountNumber: accEnvelope,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) seal(t *testing.T, plaintext string) string {
	t.Helper()
	env, err := e.cipher.Encrypt(plaintext)
	require.NoError(t, err)
	return env
}

func customer(id uint) Actor { return Actor{UserID: id, Role: domain.RoleCustomer, IP: "10.0.0.1"} }
func employee(id uint) Actor { return Actor{UserID: id, Role: domain.RoleEmployee, IP: "10.0.0.2"} }
