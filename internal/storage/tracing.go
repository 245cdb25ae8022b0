package storage

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "storefront/storage"

type tracedStore struct {
	next   Store
	tracer trace.Tracer
}

// WithTracing wraps next so every operation runs inside a "storage.<op>" span.
func WithTracing(next Store, tp trace.TracerProvider) Store {
	return &tracedStore{next: next, tracer: tp.Tracer(tracerName)}
}

func (s *tracedStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.operation", op))
	return s.tracer.Start(ctx, "storage."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func sessionAttr(id string) attribute.KeyValue { return attribute.String("cart.session_id", id) }
func productAttr(id int64) attribute.KeyValue  { return attribute.Int64("catalog.product_id", id) }

func (s *tracedStore) Ping(ctx context.Context) (err error) {
	ctx, span := s.start(ctx, "Ping")
	defer func() { finish(span, err) }()
	return s.next.Ping(ctx)
}

func (s *tracedStore) AllProducts(ctx context.Context) (out []Product, err error) {
	ctx, span := s.start(ctx, "AllProducts")
	defer func() {
		span.SetAttributes(attribute.Int("catalog.size", len(out)))
		finish(span, err)
	}()
	return s.next.AllProducts(ctx)
}

func (s *tracedStore) ProductByID(ctx context.Context, id int64) (p Product, ok bool, err error) {
	ctx, span := s.start(ctx, "ProductByID", productAttr(id))
	defer func() {
		span.SetAttributes(attribute.Bool("catalog.found", ok))
		finish(span, err)
	}()
	return s.next.ProductByID(ctx, id)
}

func (s *tracedStore) CreateProduct(ctx context.Context, np NewProduct) (p Product, err error) {
	ctx, span := s.start(ctx, "CreateProduct", attribute.String("catalog.category", np.Category))
	defer func() { finish(span, err) }()
	return s.next.CreateProduct(ctx, np)
}

func (s *tracedStore) CartItems(ctx context.Context, sessionID string) (out []CartItemWithProduct, err error) {
	ctx, span := s.start(ctx, "CartItems", sessionAttr(sessionID))
	defer func() {
		span.SetAttributes(attribute.Int("cart.rows", len(out)))
		finish(span, err)
	}()
	return s.next.CartItems(ctx, sessionID)
}

func (s *tracedStore) AddToCart(ctx context.Context, sessionID string, productID int64, qty int) (it CartItem, err error) {
	ctx, span := s.start(ctx, "AddToCart", sessionAttr(sessionID), productAttr(productID), attribute.Int("cart.quantity", qty))
	defer func() { finish(span, err) }()
	return s.next.AddToCart(ctx, sessionID, productID, qty)
}

func (s *tracedStore) UpdateCartItemQuantity(ctx context.Context, sessionID string, productID int64, qty int) (it CartItem, err error) {
	ctx, span := s.start(ctx, "UpdateCartItemQuantity", sessionAttr(sessionID), productAttr(productID), attribute.Int("cart.quantity", qty))
	defer func() { finish(span, err) }()
	return s.next.UpdateCartItemQuantity(ctx, sessionID, productID, qty)
}

func (s *tracedStore) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (err error) {
	ctx, span := s.start(ctx, "RemoveFromCart", sessionAttr(sessionID), productAttr(productID))
	defer func() { finish(span, err) }()
	return s.next.RemoveFromCart(ctx, sessionID, productID)
}

func (s *tracedStore) ClearCart(ctx context.Context, sessionID string) (err error) {
	ctx, span := s.start(ctx, "ClearCart", sessionAttr(sessionID))
	defer func() { finish(span, err) }()
	return s.next.ClearCart(ctx, sessionID)
}

func (s *tracedStore) User(ctx context.Context, id int64) (u User, ok bool, err error) {
	ctx, span := s.start(ctx, "User", attribute.Int64("user.id", id))
	defer func() { finish(span, err) }()
	return s.next.User(ctx, id)
}

func (s *tracedStore) UserByUsername(ctx context.Context, username string) (u User, ok bool, err error) {
	ctx, span := s.start(ctx, "UserByUsername")
	defer func() { finish(span, err) }()
	return s.next.UserByUsername(ctx, username)
}

func (s *tracedStore) CreateUser(ctx context.Context, nu NewUser) (u User, err error) {
	ctx, span := s.start(ctx, "CreateUser")
	defer func() { finish(span, err) }()
	return s.next.CreateUser(ctx, nu)
}
