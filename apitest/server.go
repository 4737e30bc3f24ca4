// Package apitest is an in-process stand-in for the remote storefront API,
// used by integration tests. Handlers mirror the production contracts: login
// with bcrypt-checked credentials, per-user cart fetch/sync/clear, product
// listing/search/category, and bearer-authenticated checkout.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"trendora-client/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const jwtSecret = "apitest-secret"

type seededUser struct {
	ID           string
	Email        string
	Phone        string
	Name         string
	PasswordHash string
}

// Server holds the fake API's state. Failure toggles let tests force
// specific outcomes.
type Server struct {
	router *gin.Engine

	mu        sync.Mutex
	users     []seededUser
	carts     map[string][]models.ServerCartLine
	products  []models.Product
	orders    []models.CheckoutRequest
	syncCalls int

	// FailSync makes the sync endpoint answer 500 until unset.
	FailSync bool
	// TokenTTL bounds issued tokens; defaults to 2 hours.
	TokenTTL time.Duration
}

func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		carts:    make(map[string][]models.ServerCartLine),
		TokenTTL: 2 * time.Hour,
	}

	r := gin.New()
	r.POST("/api/login", s.login)
	r.GET("/api/cart/:userId", s.getCart)
	r.POST("/api/cart/sync/:userId", s.syncCart)
	r.DELETE("/api/cart/clear/:userId", s.clearCart)
	r.GET("/api/products", s.listProducts)
	r.GET("/api/products/search", s.searchProducts)
	r.GET("/api/products/category/:name", s.productsByCategory)
	r.POST("/api/checkout", s.authRequired, s.checkout)
	s.router = r

	return s
}

// Start serves the fake API over a loopback listener. Callers own Close.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.router)
}

// SeedUser registers an account and returns its id.
func (s *Server) SeedUser(email, phone, name, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic("apitest: bcrypt: " + err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := seededUser{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        phone,
		Name:         name,
		PasswordHash: string(hash),
	}
	s.users = append(s.users, u)
	return u.ID
}

// SeedProducts installs the catalog.
func (s *Server) SeedProducts(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

// SeedCart installs a server-side cart for the user, as another device
// would have left it.
func (s *Server) SeedCart(userID string, lines []models.ServerCartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = lines
}

// Cart returns the current server-side cart for the user.
func (s *Server) Cart(userID string) []models.ServerCartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ServerCartLine(nil), s.carts[userID]...)
}

// SyncCalls counts hits on the sync endpoint.
func (s *Server) SyncCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncCalls
}

// Orders returns the accepted checkout submissions.
func (s *Server) Orders() []models.CheckoutRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CheckoutRequest(nil), s.orders...)
}

func (s *Server) issueToken(userID string) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.TokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(jwtSecret))
	if err != nil {
		panic("apitest: signing token: " + err.Error())
	}
	return signed
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	var user *seededUser
	for i := range s.users {
		if (req.Email != "" && s.users[i].Email == req.Email) ||
			(req.Phone != "" && s.users[i].Phone == req.Phone) {
			user = &s.users[i]
			break
		}
	}
	s.mu.Unlock()

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   s.issueToken(user.ID),
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"phone": user.Phone,
			"name":  user.Name,
		},
	})
}

func (s *Server) authRequired(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	sub, _ := claims.GetSubject()
	c.Set("user_id", sub)
	c.Next()
}

func (s *Server) getCart(c *gin.Context) {
	userID := c.Param("userId")

	s.mu.Lock()
	lines := append([]models.ServerCartLine(nil), s.carts[userID]...)
	s.mu.Unlock()

	if lines == nil {
		lines = []models.ServerCartLine{}
	}
	c.JSON(http.StatusOK, lines)
}

func (s *Server) syncCart(c *gin.Context) {
	userID := c.Param("userId")

	var req struct {
		Items []models.CartLine `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	s.syncCalls++
	fail := s.FailSync
	if !fail {
		lines := make([]models.ServerCartLine, 0, len(req.Items))
		for _, it := range req.Items {
			lineID := it.ServerLineID
			if lineID == "" {
				lineID = uuid.NewString()
			}
			lines = append(lines, models.ServerCartLine{
				ProductID:  models.FlexID(it.ProductID),
				Name:       it.Name,
				Price:      it.UnitPrice,
				Image:      it.ImageRef,
				Quantity:   it.Quantity,
				CartItemID: models.FlexID(lineID),
			})
		}
		s.carts[userID] = lines
	}
	s.mu.Unlock()

	if fail {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "sync unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) clearCart(c *gin.Context) {
	userID := c.Param("userId")

	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	products := append([]models.Product(nil), s.products...)
	s.mu.Unlock()

	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) searchProducts(c *gin.Context) {
	query := strings.ToLower(c.Query("q"))

	s.mu.Lock()
	var matched []models.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	if matched == nil {
		matched = []models.Product{}
	}
	c.JSON(http.StatusOK, matched)
}

func (s *Server) productsByCategory(c *gin.Context) {
	name := c.Param("name")

	s.mu.Lock()
	var matched []models.Product
	for _, p := range s.products {
		if strings.EqualFold(p.Category, name) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	if matched == nil {
		matched = []models.Product{}
	}
	c.JSON(http.StatusOK, matched)
}

func (s *Server) checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if req.Items == "" || req.Items == "[]" || req.CountItems == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Cart is empty"})
		return
	}

	s.mu.Lock()
	s.orders = append(s.orders, req)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"order_id": uuid.NewString(),
		"message":  "Order placed",
	})
}
