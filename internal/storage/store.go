package storage

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrQuantityOverflow = errors.New("cart quantity out of range")
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Rating      decimal.Decimal `json:"rating"`
	Stock       int             `json:"stock"`
}

// NewProduct is the input to CreateProduct. A nil Stock is stored as 0.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
	Rating      decimal.Decimal
	Stock       *int
}

type CartItem struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId"`
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CartItemWithProduct struct {
	CartItem
	Product Product `json:"product"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func (u User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

type NewUser struct {
	Username string
	Password string
}

// Store is the single storage capability shared by the HTTP layer. Absence is
// reported as (zero, false, nil); only UpdateCartItemQuantity turns a missing
// row into ErrCartItemNotFound.
type Store interface {
	Ping(ctx context.Context) error

	AllProducts(ctx context.Context) ([]Product, error)
	ProductByID(ctx context.Context, id int64) (Product, bool, error)
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)

	CartItems(ctx context.Context, sessionID string) ([]CartItemWithProduct, error)
	AddToCart(ctx context.Context, sessionID string, productID int64, qty int) (CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, sessionID string, productID int64, qty int) (CartItem, error)
	RemoveFromCart(ctx context.Context, sessionID string, productID int64) error
	ClearCart(ctx context.Context, sessionID string) error

	User(ctx context.Context, id int64) (User, bool, error)
	UserByUsername(ctx context.Context, username string) (User, bool, error)
	CreateUser(ctx context.Context, u NewUser) (User, error)
}

// addQuantity sums an existing cart quantity with an increment, refusing to
// wrap past math.MaxInt.
func addQuantity(cur, qty int) (int, error) {
	if qty > 0 && cur > math.MaxInt-qty {
		return 0, ErrQuantityOverflow
	}
	return cur + qty, nil
}

func stockOrZero(s *int) int {
	if s == nil {
		return 0
	}
	return *s
}
