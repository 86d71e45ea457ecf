package auth

import (
	"github.com/armin-soft/Fit-Master-sub001/domain"
	"golang.org/x/crypto/bcrypt"
)

// CodeHasherImpl implements domain.CodeHasher with bcrypt
type CodeHasherImpl struct {
	cost int
}

// NewCodeHasher creates a bcrypt code hasher. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewCodeHasher(cost int) domain.CodeHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CodeHasherImpl{cost: cost}
}

// Hash implements domain.CodeHasher
func (p *CodeHasherImpl) Hash(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), p.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify implements domain.CodeHasher
func (p *CodeHasherImpl) Verify(hash, code string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	return err == nil
}
