package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkaragoz/finbook/internal/api"
	"github.com/dkaragoz/finbook/internal/logger"
	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/repository"
	"github.com/dkaragoz/finbook/internal/service"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for API tests. The repository is the
// in-memory implementation, so tests need no running database.
type TestContext struct {
	Router      *gin.Engine
	Repository  *repository.MemoryRepository
	Service     service.Service
	TestUserID  string
	TestUserJWT string
	SalaryCatID string
	FoodCatID   string
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, testJWTSecret)
	handler := api.NewHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Same middleware chain as production, with request logs discarded.
	router.Use(api.RequestLogger(logger.NewWithWriter(io.Discard)))
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(testJWTSecret))
		c.Next()
	})

	handler.SetupRoutes(router)

	salary := repo.SeedSystemCategory("Salary", models.KindIncome, 1)
	food := repo.SeedSystemCategory("Food", models.KindExpense, 1)

	testUserID, token := createTestUser(t, repo)

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		TestUserID:  testUserID,
		TestUserJWT: token,
		SalaryCatID: salary.ID,
		FoodCatID:   food.ID,
	}
}

// Helper functions
func createTestUser(t *testing.T, repo repository.Repository) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		Email:    "testuser@example.com",
		Name:     "Test User",
		Password: string(hashedPassword),
	}

	err := repo.CreateUser(context.Background(), user)
	require.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
