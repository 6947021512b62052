package services

import (
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/config"
	"payportal/internal/pkg/fieldcrypt"

	"gorm.io/gorm"
)

// Services is the application service graph, built once at boot and shared
// by the HTTP routes, the scheduler and the CLI
type Services struct {
	Identity *IdentityService
	Auth     *AuthService
	Payments *PaymentService
	Review   *ReviewService
	Dispatch *SwiftDispatchService
}

// NewServices wires repositories and services over db
func NewServices(
	db *gorm.DB,
	cfg *config.Config,
	cipher *fieldcrypt.Cipher,
	indexer *fieldcrypt.Indexer,
	publisher SwiftPublisher,
) *Services {
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	paymentEventRepo := repositories.NewPaymentEventRepository(db)

	identity := NewIdentityService(cipher, indexer, userRepo)
	return &Services{
		Identity: identity,
		Auth:     NewAuthService(userRepo, refreshTokenRepo, identity, cfg),
		Payments: NewPaymentService(paymentRepo, cipher),
		Review:   NewReviewService(paymentRepo, paymentEventRepo, cipher),
		Dispatch: NewSwiftDispatchService(paymentRepo, cipher, publisher, cfg.Dispatch.BatchSize),
	}
}
