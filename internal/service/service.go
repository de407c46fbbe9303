package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/repository"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Account operations
	CreateAccount(ctx context.Context, userID string, req models.CreateAccountRequest) (*models.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	ListDeletedAccounts(ctx context.Context, userID string) ([]models.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, req models.UpdateAccountRequest) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) (*models.CascadeResult, error)
	RestoreAccount(ctx context.Context, userID, accountID string) (*models.CascadeResult, error)
	HardDeleteAccount(ctx context.Context, userID, accountID string) (*models.CascadeResult, error)

	// Category operations
	CreateCategory(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, req models.UpdateCategoryRequest) (*models.Category, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, userID string, req models.CreateTransactionRequest) (*models.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, q models.ListTransactionsQuery) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, txID string, req models.UpdateTransactionRequest) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID string) error

	// Read-only aggregates
	Balances(ctx context.Context, userID string) ([]models.AccountBalance, error)
	AccountBalance(ctx context.Context, userID, accountID string) (*models.AccountBalance, error)
	Cashflow(ctx context.Context, userID string, from, to *time.Time) (*models.Cashflow, error)
	CategoryTotals(ctx context.Context, userID string, kind models.CategoryKind, from, to *time.Time) ([]models.CategoryTotal, error)
	MonthlySeries(ctx context.Context, userID string, from, to *time.Time) ([]models.MonthlyPoint, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) *DefaultService {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, conflict("user with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, unauthorized("invalid email or password")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := s.now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": s.now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
