package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MemStore keeps the catalog, carts and users in process memory. All state is
// lost when the process exits.
type MemStore struct {
	mu sync.RWMutex

	products map[int64]Product
	carts    map[string][]CartItem
	users    map[int64]User

	nextProductID int64
	nextCartID    int64
	nextUserID    int64
}

func NewMemStore() *MemStore {
	s := &MemStore{
		products:      map[int64]Product{},
		carts:         map[string][]CartItem{},
		users:         map[int64]User{},
		nextProductID: 1,
		nextCartID:    1,
		nextUserID:    1,
	}
	for _, p := range SeedCatalog() {
		s.insertProduct(p)
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) AllProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ProductByID(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	return p, ok, nil
}

func (s *MemStore) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertProduct(np), nil
}

func (s *MemStore) insertProduct(np NewProduct) Product {
	p := Product{
		ID:          s.nextProductID,
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		Image:       np.Image,
		Category:    np.Category,
		Rating:      np.Rating,
		Stock:       stockOrZero(np.Stock),
	}
	s.nextProductID++
	s.products[p.ID] = p
	return p
}

func (s *MemStore) CartItems(ctx context.Context, sessionID string) ([]CartItemWithProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.carts[sessionID]
	out := make([]CartItemWithProduct, 0, len(items))
	for _, it := range items {
		p, ok := s.products[it.ProductID]
		if !ok {
			continue
		}
		out = append(out, CartItemWithProduct{CartItem: it, Product: p})
	}
	return out, nil
}

func (s *MemStore) AddToCart(ctx context.Context, sessionID string, productID int64, qty int) (CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[sessionID]
	if i := indexOf(items, productID); i >= 0 {
		sum, err := addQuantity(items[i].Quantity, qty)
		if err != nil {
			return CartItem{}, err
		}
		items[i].Quantity = sum
		return items[i], nil
	}

	it := CartItem{
		ID:        s.nextCartID,
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  qty,
	}
	s.nextCartID++
	s.carts[sessionID] = append(items, it)
	return it, nil
}

func (s *MemStore) UpdateCartItemQuantity(ctx context.Context, sessionID string, productID int64, qty int) (CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[sessionID]
	i := indexOf(items, productID)
	if i < 0 {
		return CartItem{}, ErrCartItemNotFound
	}
	items[i].Quantity = qty
	return items[i], nil
}

func (s *MemStore) RemoveFromCart(ctx context.Context, sessionID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.carts[sessionID]
	if !ok {
		return nil
	}

	kept := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	s.carts[sessionID] = kept
	return nil
}

func (s *MemStore) ClearCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

func (s *MemStore) User(ctx context.Context, id int64) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemStore) UserByUsername(ctx context.Context, username string) (User, bool, error) {
	username = normalizeUsername(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (s *MemStore) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	username := normalizeUsername(nu.Username)

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return User{}, ErrUsernameTaken
		}
	}

	u := User{ID: s.nextUserID, Username: username, Password: string(hash)}
	s.nextUserID++
	s.users[u.ID] = u
	return u, nil
}

func indexOf(items []CartItem, productID int64) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}
