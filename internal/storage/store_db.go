package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

type productRow struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"not null"`
	Description string          `gorm:"not null;default:''"`
	Price       decimal.Decimal `gorm:"type:numeric;not null"`
	Image       string          `gorm:"not null;default:''"`
	Category    string          `gorm:"not null;index"`
	Rating      decimal.Decimal `gorm:"type:numeric;not null"`
	Stock       int             `gorm:"not null;default:0"`
}

func (productRow) TableName() string { return "products" }

type cartItemRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"not null;uniqueIndex:idx_cart_session_product"`
	ProductID int64  `gorm:"not null;uniqueIndex:idx_cart_session_product"`
	Quantity  int    `gorm:"not null"`
}

func (cartItemRow) TableName() string { return "cart_items" }

type userRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"not null;uniqueIndex"`
	Password string `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

// cartJoinRow is one row of the cart_items/products inner join.
type cartJoinRow struct {
	ID        int64
	SessionID string
	ProductID int64
	Quantity  int

	PName        string
	PDescription string
	PPrice       decimal.Decimal
	PImage       string
	PCategory    string
	PRating      decimal.Decimal
	PStock       int
}

// DBStore implements Store on a relational database through gorm.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// OpenPostgres connects to PostgreSQL using a pgx DSN or URL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// OpenSQLite opens a SQLite database. ":memory:" is pinned to a single
// connection so every query sees the same database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// Migrate creates or updates the products, cart_items and users tables.
func (s *DBStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&productRow{}, &cartItemRow{}, &userRow{})
}

// Seed inserts the starting catalog when the products table is empty.
func (s *DBStore) Seed(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var n int64
		if err := s.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		seed := SeedCatalog()
		rows := make([]productRow, 0, len(seed))
		for _, np := range seed {
			rows = append(rows, toProductRow(np))
		}
		return s.db.WithContext(ctx).Create(&rows).Error
	})
}

func (s *DBStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
}

func (s *DBStore) AllProducts(ctx context.Context) ([]Product, error) {
	var rows []productRow
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toProduct())
	}
	return out, nil
}

func (s *DBStore) ProductByID(ctx context.Context, id int64) (Product, bool, error) {
	var r productRow
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Take(&r, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return r.toProduct(), true, nil
}

func (s *DBStore) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	r := toProductRow(np)
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(&r).Error
	})
	if err != nil {
		return Product{}, err
	}
	return r.toProduct(), nil
}

func (s *DBStore) CartItems(ctx context.Context, sessionID string) ([]CartItemWithProduct, error) {
	var rows []cartJoinRow
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).
			Table("cart_items").
			Select(`cart_items.id, cart_items.session_id, cart_items.product_id, cart_items.quantity,
				products.name AS p_name, products.description AS p_description, products.price AS p_price,
				products.image AS p_image, products.category AS p_category, products.rating AS p_rating,
				products.stock AS p_stock`).
			Joins("INNER JOIN products ON products.id = cart_items.product_id").
			Where("cart_items.session_id = ?", sessionID).
			Order("cart_items.id ASC").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]CartItemWithProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, CartItemWithProduct{
			CartItem: CartItem{
				ID:        r.ID,
				SessionID: r.SessionID,
				ProductID: r.ProductID,
				Quantity:  r.Quantity,
			},
			Product: Product{
				ID:          r.ProductID,
				Name:        r.PName,
				Description: r.PDescription,
				Price:       r.PPrice,
				Image:       r.PImage,
				Category:    r.PCategory,
				Rating:      r.PRating,
				Stock:       r.PStock,
			},
		})
	}
	return out, nil
}

// AddToCart reads the existing row and then writes; two concurrent adds for
// the same session and product can race.
func (s *DBStore) AddToCart(ctx context.Context, sessionID string, productID int64, qty int) (CartItem, error) {
	var r cartItemRow
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		db := s.db.WithContext(ctx)

		err := db.Take(&r, "session_id = ? AND product_id = ?", sessionID, productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r = cartItemRow{SessionID: sessionID, ProductID: productID, Quantity: qty}
			return db.Create(&r).Error
		}
		if err != nil {
			return err
		}

		sum, err := addQuantity(r.Quantity, qty)
		if err != nil {
			return err
		}
		r.Quantity = sum
		return db.Model(&r).Update("quantity", r.Quantity).Error
	})
	if err != nil {
		return CartItem{}, err
	}
	return r.toCartItem(), nil
}

func (s *DBStore) UpdateCartItemQuantity(ctx context.Context, sessionID string, productID int64, qty int) (CartItem, error) {
	var r cartItemRow
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		db := s.db.WithContext(ctx)
		if err := db.Take(&r, "session_id = ? AND product_id = ?", sessionID, productID).Error; err != nil {
			return err
		}
		r.Quantity = qty
		return db.Model(&r).Update("quantity", qty).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CartItem{}, ErrCartItemNotFound
	}
	if err != nil {
		return CartItem{}, err
	}
	return r.toCartItem(), nil
}

func (s *DBStore) RemoveFromCart(ctx context.Context, sessionID string, productID int64) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).
			Where("session_id = ? AND product_id = ?", sessionID, productID).
			Delete(&cartItemRow{}).Error
	})
}

func (s *DBStore) ClearCart(ctx context.Context, sessionID string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).
			Where("session_id = ?", sessionID).
			Delete(&cartItemRow{}).Error
	})
}

func (s *DBStore) User(ctx context.Context, id int64) (User, bool, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *DBStore) UserByUsername(ctx context.Context, username string) (User, bool, error) {
	return s.findUser(ctx, "username = ?", normalizeUsername(username))
}

func (s *DBStore) findUser(ctx context.Context, query string, arg any) (User, bool, error) {
	var r userRow
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Take(&r, query, arg).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return User{ID: r.ID, Username: r.Username, Password: r.Password}, true, nil
}

func (s *DBStore) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	r := userRow{Username: normalizeUsername(nu.Username), Password: string(hash)}
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(&r).Error
	})
	if isUniqueViolation(err) {
		return User{}, ErrUsernameTaken
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return User{ID: r.ID, Username: r.Username, Password: r.Password}, nil
}

func toProductRow(np NewProduct) productRow {
	return productRow{
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		Image:       np.Image,
		Category:    np.Category,
		Rating:      np.Rating,
		Stock:       stockOrZero(np.Stock),
	}
}

func (r productRow) toProduct() Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Image:       r.Image,
		Category:    r.Category,
		Rating:      r.Rating,
		Stock:       r.Stock,
	}
}

func (r cartItemRow) toCartItem() CartItem {
	return CartItem{
		ID:        r.ID,
		SessionID: r.SessionID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
	}
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
