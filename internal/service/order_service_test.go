package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"decor-admin/internal/domain"
	"decor-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionOrder_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 3)
	order := store.addOrder(domain.OrderStatusPending, line(p1, 5))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeInsufficientStock, result.Code)
	assert.Equal(t, []domain.StockIssue{
		{ProductID: p1.ID, Title: "Jute Rug", Requested: 5, Available: 3},
	}, result.StockIssues)
	assert.Equal(t, 3, store.stockOf(p1.ID))
	assert.Equal(t, domain.OrderStatusPending, store.statusOf(order.ID))
}

func TestTransitionOrder_DeductsStockAndAdvances(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 10)
	order := store.addOrder(domain.OrderStatusPending, line(p1, 5))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.OrderStatusProcessing, result.Status)
	assert.Equal(t, 5, store.stockOf(p1.ID))
	assert.Equal(t, domain.OrderStatusProcessing, store.statusOf(order.ID))
	assert.Equal(t, 1, store.statusWrites)
}

func TestTransitionOrder_RetryDoesNotDeductTwice(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 10)
	order := store.addOrder(domain.OrderStatusPending, line(p1, 5))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	first, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, CodeIllegalTransition, second.Code)
	assert.Equal(t, 5, store.stockOf(p1.ID))
	assert.Equal(t, 1, store.decrements)
}

func TestTransitionOrder_ConcurrentRequestsDeductOnce(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 10)
	order := store.addOrder(domain.OrderStatusPending, line(p1, 4))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	const workers = 8
	results := make([]*TransitionResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)
			if err == nil {
				results[i] = result
			}
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.Success {
			successes++
		} else {
			assert.Equal(t, CodeIllegalTransition, r.Code)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 6, store.stockOf(p1.ID))
}

func TestTransitionOrder_SkipsDeletedProductUnderSkipPolicy(t *testing.T) {
	store := newMemStore()
	kept := store.addProduct("Brass Candle Holder", 10)
	deleted := store.addProduct("Woven Basket", 7)
	order := store.addOrder(domain.OrderStatusPending, line(kept, 2), line(deleted, 1))
	store.removeProduct(deleted.ID)
	svc := newTestOrderService(store, domain.UnresolvedItemSkip)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 8, store.stockOf(kept.ID))
	require.Len(t, result.SkippedItems, 1)
	assert.Equal(t, deleted.ID, result.SkippedItems[0].ProductID)
	assert.Equal(t, domain.OrderStatusProcessing, store.statusOf(order.ID))
}

func TestTransitionOrder_DeletedProductFailsUnderFailPolicy(t *testing.T) {
	store := newMemStore()
	kept := store.addProduct("Brass Candle Holder", 10)
	deleted := store.addProduct("Woven Basket", 7)
	order := store.addOrder(domain.OrderStatusPending, line(kept, 2), line(deleted, 1))
	store.removeProduct(deleted.ID)
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeInsufficientStock, result.Code)
	assert.Equal(t, []domain.StockIssue{
		{ProductID: deleted.ID, Title: "Woven Basket", Requested: 1, Available: 0},
	}, result.StockIssues)
	assert.Equal(t, 10, store.stockOf(kept.ID))
	assert.Equal(t, domain.OrderStatusPending, store.statusOf(order.ID))
}

func TestTransitionOrder_AllItemsUnresolvedIsRejected(t *testing.T) {
	store := newMemStore()
	gone := store.addProduct("Woven Basket", 7)
	order := store.addOrder(domain.OrderStatusPending, line(gone, 1))
	store.removeProduct(gone.ID)
	svc := newTestOrderService(store, domain.UnresolvedItemSkip)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeUnresolvedItems, result.Code)
	assert.Len(t, result.SkippedItems, 1)
	assert.Equal(t, domain.OrderStatusPending, store.statusOf(order.ID))
}

func TestTransitionOrder_RejectsEdgesOutsideTheTable(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 10)
	order := store.addOrder(domain.OrderStatusShipped, line(p1, 5))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusPending, domain.OrderStatusShipped)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeIllegalTransition, result.Code)
	assert.Equal(t, 10, store.stockOf(p1.ID))
	assert.Equal(t, domain.OrderStatusShipped, store.statusOf(order.ID))
	assert.Zero(t, store.commits+store.rollbacks, "no transaction should be opened")
}

func TestTransitionOrder_RejectsUnknownStatuses(t *testing.T) {
	store := newMemStore()
	order := store.addOrder(domain.OrderStatusPending)
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	for _, raw := range []string{"accepted", "rejected", ""} {
		result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatus(raw), domain.OrderStatusPending)
		require.NoError(t, err)
		assert.Equal(t, CodeIllegalTransition, result.Code, raw)
	}
	assert.Equal(t, domain.OrderStatusPending, store.statusOf(order.ID))
}

func TestTransitionOrder_StaleCurrentStatusIsRejected(t *testing.T) {
	store := newMemStore()
	order := store.addOrder(domain.OrderStatusProcessing)
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusCancelled, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.Equal(t, CodeIllegalTransition, result.Code)
	assert.Equal(t, domain.OrderStatusProcessing, store.statusOf(order.ID))
}

func TestTransitionOrder_NonStockEdgesOnlyWriteStatus(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 10)
	order := store.addOrder(domain.OrderStatusProcessing, line(p1, 5))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusShipped, domain.OrderStatusProcessing)
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusDelivered, domain.OrderStatusShipped)
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, 10, store.stockOf(p1.ID))
	assert.Zero(t, store.decrements)
	assert.Equal(t, domain.OrderStatusDelivered, store.statusOf(order.ID))
}

func TestTransitionOrder_SelfTransitionIsAllowed(t *testing.T) {
	store := newMemStore()
	order := store.addOrder(domain.OrderStatusDelivered)
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusDelivered, domain.OrderStatusDelivered)

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestTransitionOrder_MissingOrder(t *testing.T) {
	store := newMemStore()
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	_, err := svc.TransitionOrder(context.Background(), uuid.New(), domain.OrderStatusCancelled, domain.OrderStatusPending)

	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestTransitionOrder_PersistenceFailureRollsBackPartialDeduction(t *testing.T) {
	store := newMemStore()
	first := store.addProduct("Jute Rug", 10)
	second := store.addProduct("Wall Clock", 10)
	order := store.addOrder(domain.OrderStatusPending, line(first, 2), line(second, 3))
	boom := errors.New("connection reset by peer")
	store.decrementErr[second.ID] = boom
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 10, store.stockOf(first.ID))
	assert.Equal(t, 10, store.stockOf(second.ID))
	assert.Equal(t, domain.OrderStatusPending, store.statusOf(order.ID))
	assert.Equal(t, 1, store.rollbacks)
}

func TestTransitionOrder_LostDeductionRaceReportsShortfalls(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 10)
	order := store.addOrder(domain.OrderStatusPending, line(p1, 5))
	store.decrementErr[p1.ID] = repository.ErrInsufficientStock
	store.afterRollback = func() { store.setStock(p1.ID, 2) }
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.TransitionOrder(context.Background(), order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, CodeInsufficientStock, result.Code)
	assert.Equal(t, []domain.StockIssue{
		{ProductID: p1.ID, Title: "Jute Rug", Requested: 5, Available: 2},
	}, result.StockIssues)
	assert.Equal(t, domain.OrderStatusPending, store.statusOf(order.ID))
	assert.Equal(t, 1, store.rollbacks)
}

func TestProperty_TransitionsMatchTheTable(t *testing.T) {
	statuses := domain.OrderStatuses()
	values := make([]interface{}, len(statuses))
	for i, s := range statuses {
		values[i] = s
	}

	properties := gopter.NewProperties(nil)

	properties.Property("a transition succeeds exactly when the edge is in the table", prop.ForAll(
		func(from, to domain.OrderStatus) bool {
			store := newMemStore()
			product := store.addProduct("Teak Stool", 50)
			order := store.addOrder(from, line(product, 1))
			svc := newTestOrderService(store, domain.UnresolvedItemFail)

			result, err := svc.TransitionOrder(context.Background(), order.ID, to, from)
			if err != nil {
				return false
			}

			if result.Success != domain.CanTransition(from, to) {
				return false
			}

			wantStatus := from
			if result.Success {
				wantStatus = to
			}
			wantStock := 50
			if result.Success && domain.IsStockSensitive(from, to) {
				wantStock = 49
			}
			return store.statusOf(order.ID) == wantStatus && store.stockOf(product.ID) == wantStock
		},
		gen.OneConstOf(values...),
		gen.OneConstOf(values...),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAllowedNextStatuses_TerminalStates(t *testing.T) {
	svc := newTestOrderService(newMemStore(), domain.UnresolvedItemFail)

	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusDelivered}, svc.AllowedNextStatuses(domain.OrderStatusDelivered))
	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusCancelled}, svc.AllowedNextStatuses(domain.OrderStatusCancelled))
}

func TestCreateOrder_SnapshotsProductsAndComputesTotals(t *testing.T) {
	store := newMemStore()
	vase := store.addProduct("Ceramic Vase", 10)
	store.mu.Lock()
	v := store.data.products[vase.ID]
	v.Price = decimal.RequireFromString("1250.00")
	v.SKU = "VASE-01"
	store.data.products[vase.ID] = v
	store.mu.Unlock()
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:    "Ayesha Khan",
		CustomerPhone:   "03001234567",
		ShippingAddress: "House 12, Street 4",
		City:            "Lahore",
		DeliveryFee:     decimal.RequireFromString("200"),
		Items:           []CreateOrderItemInput{{ProductID: vase.ID, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentMethodCOD, order.PaymentMethod)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("2500")))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("2700")))
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].ProductSnapshot)
	assert.Equal(t, "VASE-01", order.Items[0].ProductSnapshot.SKU)
	assert.Equal(t, 10, store.stockOf(vase.ID), "creating an order must not touch stock")

	stored, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	store := newMemStore()
	vase := store.addProduct("Ceramic Vase", 10)
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: vase.ID, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		Items: []CreateOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestCheckStock_IsReadOnly(t *testing.T) {
	store := newMemStore()
	p1 := store.addProduct("Jute Rug", 3)
	order := store.addOrder(domain.OrderStatusPending, line(p1, 5))
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	result, err := svc.CheckStock(context.Background(), order.ID)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 3, store.stockOf(p1.ID))
	assert.Zero(t, store.commits)
}

func TestDeleteOrder(t *testing.T) {
	store := newMemStore()
	order := store.addOrder(domain.OrderStatusCancelled)
	svc := newTestOrderService(store, domain.UnresolvedItemFail)

	require.NoError(t, svc.DeleteOrder(context.Background(), order.ID))
	assert.ErrorIs(t, svc.DeleteOrder(context.Background(), order.ID), repository.ErrOrderNotFound)
}
