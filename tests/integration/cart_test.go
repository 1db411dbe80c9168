package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/devansh-07/Sure-Shop/internal/database"
	"github.com/devansh-07/Sure-Shop/internal/models"
	"github.com/devansh-07/Sure-Shop/internal/store"
)

func TestAddItemAccumulatesQuantity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	const userID = int64(1)

	item := insertItem(t, db, "10.00", nil, models.CategoryBooks)

	order, err := store.AddItem(ctx, db, userID, item.Slug)
	if err != nil {
		t.Fatalf("Add item: %v", err)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != 1 {
		t.Fatalf("Expected one line with quantity 1, got %+v", order.Lines)
	}

	order, err = store.AddItem(ctx, db, userID, item.Slug)
	if err != nil {
		t.Fatalf("Add item again: %v", err)
	}

	if len(order.Lines) != 1 {
		t.Fatalf("Expected a single line, got %d", len(order.Lines))
	}
	if order.Lines[0].Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", order.Lines[0].Quantity)
	}
	if got := order.Total().StringFixed(2); got != "20.00" {
		t.Errorf("Expected total 20.00, got %s", got)
	}

	openOrders := countRows(t, db, `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND NOT fulfilled`, userID)
	if openOrders != 1 {
		t.Errorf("Expected exactly one open order, got %d", openOrders)
	}
}

func TestAddItemUnknownSlug(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := store.AddItem(context.Background(), db, 1, "no-such-item")
	if err != database.ErrItemNotFound {
		t.Errorf("Expected item not found, got: %v", err)
	}
}

func TestDiscountPriceApplied(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	item := insertItem(t, db, "50.00", strPtr("40.00"), models.CategoryClothing)

	order, err := store.AddItem(ctx, db, 1, item.Slug)
	if err != nil {
		t.Fatalf("Add item: %v", err)
	}

	if got := order.Total().StringFixed(2); got != "40.00" {
		t.Errorf("Expected discounted total 40.00, got %s", got)
	}
}

func TestRemoveItem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	const userID = int64(1)

	item := insertItem(t, db, "10.00", nil, models.CategoryBooks)

	if _, err := store.AddItem(ctx, db, userID, item.Slug); err != nil {
		t.Fatalf("Add item: %v", err)
	}
	if _, err := store.AddItem(ctx, db, userID, item.Slug); err != nil {
		t.Fatalf("Add item: %v", err)
	}

	// Remove deletes the whole line regardless of quantity.
	order, err := store.RemoveItem(ctx, db, userID, item.Slug)
	if err != nil {
		t.Fatalf("Remove item: %v", err)
	}
	if len(order.Lines) != 0 {
		t.Errorf("Expected empty cart, got %d lines", len(order.Lines))
	}

	_, err = store.RemoveItem(ctx, db, userID, item.Slug)
	if err != database.ErrItemNotInCart {
		t.Errorf("Expected item not in cart, got: %v", err)
	}
}

func TestRemoveItemNoActiveOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	item := insertItem(t, db, "10.00", nil, models.CategoryBooks)

	_, err := store.RemoveItem(context.Background(), db, 99, item.Slug)
	if err != database.ErrNoActiveOrder {
		t.Errorf("Expected no active order, got: %v", err)
	}
}

func TestDecrementItem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	const userID = int64(1)

	item := insertItem(t, db, "10.00", nil, models.CategoryMobiles)

	for i := 0; i < 2; i++ {
		if _, err := store.AddItem(ctx, db, userID, item.Slug); err != nil {
			t.Fatalf("Add item: %v", err)
		}
	}

	order, err := store.DecrementItem(ctx, db, userID, item.Slug)
	if err != nil {
		t.Fatalf("Decrement item: %v", err)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != 1 {
		t.Fatalf("Expected quantity 1, got %+v", order.Lines)
	}

	// Decrementing at quantity 1 deletes the line; a zero-quantity line is
	// never persisted.
	order, err = store.DecrementItem(ctx, db, userID, item.Slug)
	if err != nil {
		t.Fatalf("Decrement item to zero: %v", err)
	}
	if len(order.Lines) != 0 {
		t.Errorf("Expected line deleted, got %+v", order.Lines)
	}

	zeroLines := countRows(t, db, `SELECT COUNT(*) FROM order_lines WHERE quantity < 1`)
	if zeroLines != 0 {
		t.Errorf("Found %d persisted lines below quantity 1", zeroLines)
	}

	_, err = store.DecrementItem(ctx, db, userID, item.Slug)
	if err != database.ErrItemNotInCart {
		t.Errorf("Expected item not in cart, got: %v", err)
	}
}

func TestGetOpenOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.GetOpenOrder(ctx, db, 1)
	if err != database.ErrNoActiveOrder {
		t.Fatalf("Expected no active order, got: %v", err)
	}

	item := insertItem(t, db, "10.00", nil, models.CategoryBooks)
	if _, err := store.AddItem(ctx, db, 1, item.Slug); err != nil {
		t.Fatalf("Add item: %v", err)
	}

	order, err := store.GetOpenOrder(ctx, db, 1)
	if err != nil {
		t.Fatalf("Get open order: %v", err)
	}
	if order.Fulfilled {
		t.Error("Open order should not be fulfilled")
	}
	if len(order.Lines) != 1 {
		t.Errorf("Expected one line, got %d", len(order.Lines))
	}
}

func TestConcurrentAddToCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	const userID = int64(1)

	item := insertItem(t, db, "10.00", nil, models.CategoryBooks)

	concurrency := 5
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AddItem(ctx, db, userID, item.Slug); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent add failed: %v", err)
	}

	openOrders := countRows(t, db, `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND NOT fulfilled`, userID)
	if openOrders != 1 {
		t.Errorf("Expected exactly one open order, got %d", openOrders)
	}

	order, err := store.GetOpenOrder(ctx, db, userID)
	if err != nil {
		t.Fatalf("Get open order: %v", err)
	}
	if len(order.Lines) != 1 || order.Lines[0].Quantity != concurrency {
		t.Errorf("Expected one line with quantity %d, got %+v", concurrency, order.Lines)
	}
}
