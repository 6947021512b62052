package services

import (
	"context"
	"errors"
	"fmt"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/pkg/fieldcrypt"
	"payportal/internal/pkg/logger"
)

// Identity errors
var (
	ErrIDNumberInUse          = errors.New("id number already in use")
	ErrAccountNumberInUse     = errors.New("account number already in use")
	ErrUniquenessUnverifiable = errors.New("cannot confirm uniqueness of identity details")
)

// Blind index field scopes
const (
	fieldIDNumber      = "id_number"
	fieldAccountNumber = "account_number"
)

// SealedIdentity is the at-rest form of a principal's identity numbers
type SealedIdentity struct {
	IDNumber           string
	IDNumberIndex      string
	AccountNumber      string
	AccountNumberIndex string
}

// IndexBackfillResult summarises a blind index backfill
type IndexBackfillResult struct {
	Updated int
	Failed  []uint
}

// IdentityService protects customer identity numbers at rest and enforces
// their uniqueness across principals.
type IdentityService struct {
	cipher   *fieldcrypt.Cipher
	indexer  *fieldcrypt.Indexer
	userRepo repositories.UserRepository
}

// NewIdentityService creates a new identity service
func NewIdentityService(cipher *fieldcrypt.Cipher, indexer *fieldcrypt.Indexer, userRepo repositories.UserRepository) *IdentityService {
	return &IdentityService{
		cipher:   cipher,
		indexer:  indexer,
		userRepo: userRepo,
	}
}

// Seal encrypts both numbers and computes their blind indexes
func (s *IdentityService) Seal(idNumber, accountNumber string) (*SealedIdentity, error) {
	encID, err := s.cipher.Encrypt(idNumber)
	if err != nil {
		return nil, fmt.Errorf("encrypt id number: %w", err)
	}
	encAcc, err := s.cipher.Encrypt(accountNumber)
	if err != nil {
		return nil, fmt.Errorf("encrypt account number: %w", err)
	}

	return &SealedIdentity{
		IDNumber:           encID,
		IDNumberIndex:      s.indexer.Index(fieldIDNumber, idNumber),
		AccountNumber:      encAcc,
		AccountNumberIndex: s.indexer.Index(fieldAccountNumber, accountNumber),
	}, nil
}

// EnsureUnique rejects id or account numbers already held by any principal.
// Indexed rows are checked by blind index; rows without an index are
// decrypted and compared. A row that cannot be decrypted makes uniqueness
// unverifiable and the check fails.
func (s *IdentityService) EnsureUnique(ctx context.Context, idNumber, accountNumber string) error {
	exists, err := s.userRepo.ExistsByIDNumberIndex(ctx, s.indexer.Index(fieldIDNumber, idNumber))
	if err != nil {
		return err
	}
	if exists {
		return ErrIDNumberInUse
	}

	exists, err = s.userRepo.ExistsByAccountNumberIndex(ctx, s.indexer.Index(fieldAccountNumber, accountNumber))
	if err != nil {
		return err
	}
	if exists {
		return ErrAccountNumberInUse
	}

	legacy, err := s.userRepo.ListUnindexed(ctx)
	if err != nil {
		return err
	}
	return s.scan(legacy, idNumber, accountNumber)
}

func (s *IdentityService) scan(users []*models.User, idNumber, accountNumber string) error {
	for _, u := range users {
		plainID, err := s.cipher.Decrypt(u.IDNumber)
		if err != nil {
			logger.Error("uniqueness scan could not decrypt id number",
				logger.Uint("user_id", u.ID), logger.Err(err))
			return ErrUniquenessUnverifiable
		}
		if fieldcrypt.SafeEqual(plainID, idNumber) {
			return ErrIDNumberInUse
		}

		plainAcc, err := s.cipher.Decrypt(u.AccountNumber)
		if err != nil {
			logger.Error("uniqueness scan could not decrypt account number",
				logger.Uint("user_id", u.ID), logger.Err(err))
			return ErrUniquenessUnverifiable
		}
		if fieldcrypt.SafeEqual(plainAcc, accountNumber) {
			return ErrAccountNumberInUse
		}
	}
	return nil
}

// Reveal decrypts a principal's identity numbers
func (s *IdentityService) Reveal(u *models.User) (idNumber, accountNumber string, err error) {
	if idNumber, err = s.cipher.Decrypt(u.IDNumber); err != nil {
		return "", "", err
	}
	if accountNumber, err = s.cipher.Decrypt(u.AccountNumber); err != nil {
		return "", "", err
	}
	return idNumber, accountNumber, nil
}

// BackfillIndexes computes blind indexes for rows missing them, or for every
// row when all is set (after an index key rotation). Rows that fail are
// reported and left as they were.
func (s *IdentityService) BackfillIndexes(ctx context.Context, all bool) (*IndexBackfillResult, error) {
	var (
		users []*models.User
		err   error
	)
	if all {
		users, err = s.userRepo.ListAll(ctx)
	} else {
		users, err = s.userRepo.ListUnindexed(ctx)
	}
	if err != nil {
		return nil, err
	}

	result := &IndexBackfillResult{}
	for _, u := range users {
		idNumber, accountNumber, err := s.Reveal(u)
		if err != nil {
			logger.Warn("index backfill skipped undecryptable user", logger.Uint("user_id", u.ID), logger.Err(err))
			result.Failed = append(result.Failed, u.ID)
			continue
		}

		err = s.userRepo.UpdateIndexes(ctx, u.ID,
			s.indexer.Index(fieldIDNumber, idNumber),
			s.indexer.Index(fieldAccountNumber, accountNumber),
		)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("index backfill could not update user", logger.Uint("user_id", u.ID), logger.Err(err))
			result.Failed = append(result.Failed, u.ID)
			continue
		}
		result.Updated++
	}

	logger.Info("blind index backfill finished",
		logger.Int("updated", result.Updated),
		logger.Int("failed", len(result.Failed)),
	)
	return result, nil
}
