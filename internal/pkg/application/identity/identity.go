// Package identity handles account registration and credential
// verification. Tokens are signed HS256 with claims for account name,
// role and company binding.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"

	db "github.com/fleetmon/hardware-monitor/internal/pkg/infrastructure/repositories/database"
	"github.com/fleetmon/hardware-monitor/pkg/types"
)

var ErrInvalidCredentials = errors.New("invalid account or password")
var ErrInvalidInput = errors.New("invalid registration input")

const tokenLifetime = 24 * time.Hour

//go:generate moq -rm -out identity_mock.go . Identity

type Identity interface {
	Register(ctx context.Context, account, password string, role types.Role, company string) (db.Account, error)
	Login(ctx context.Context, account, password string) (string, db.Account, error)
}

type identity struct {
	accountRepository db.AccountRepository
	tokenAuth         *jwtauth.JWTAuth
}

func New(a db.AccountRepository, tokenAuth *jwtauth.JWTAuth) Identity {
	return &identity{
		accountRepository: a,
		tokenAuth:         tokenAuth,
	}
}

func (svc *identity) Register(ctx context.Context, account, password string, role types.Role, company string) (db.Account, error) {
	if account == "" || password == "" {
		return db.Account{}, fmt.Errorf("%w: account and password are required", ErrInvalidInput)
	}

	if _, ok := types.ParseRole(string(role)); !ok {
		return db.Account{}, fmt.Errorf("%w: unknown role %s", ErrInvalidInput, role)
	}

	// only administrators float free of a company
	if role != types.RoleAdmin && company == "" {
		return db.Account{}, fmt.Errorf("%w: a company is required for role %s", ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return db.Account{}, err
	}

	a := db.Account{
		Account:      account,
		PasswordHash: string(hash),
		Role:         string(role),
		CompanyName:  company,
	}

	err = svc.accountRepository.Create(ctx, &a)
	if err != nil {
		return db.Account{}, err
	}

	return a, nil
}

func (svc *identity) Login(ctx context.Context, account, password string) (string, db.Account, error) {
	a, err := svc.accountRepository.GetByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, db.ErrAccountNotFound) {
			return "", db.Account{}, ErrInvalidCredentials
		}
		return "", db.Account{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	if err != nil {
		return "", db.Account{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()

	_, token, err := svc.tokenAuth.Encode(map[string]any{
		"account": a.Account,
		"role":    a.Role,
		"company": a.CompanyName,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenLifetime).Unix(),
	})
	if err != nil {
		return "", db.Account{}, err
	}

	return token, a, nil
}
