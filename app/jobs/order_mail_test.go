package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/farmchain/farmchain/app/jobs"
	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/database/migrations"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/queue"
	"github.com/farmchain/farmchain/pkg/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (jobs.Deps, *testkit.MockMailer, *models.Order) {
	t.Helper()
	ctx := context.Background()
	db := testkit.NewQuery(t, migrations.All())
	users := repositories.NewUserRepository(db)
	orders := repositories.NewOrderRepository(db)

	farmer := &models.User{Username: "ravi", Password: "x", Email: "ravi@farm.test", Name: "Ravi", UserType: auth.RoleFarmer}
	buyer := &models.User{Username: "meera", Password: "x", Email: "meera@shop.test", Name: "Meera", UserType: auth.RoleBuyer}
	require.NoError(t, users.Create(ctx, farmer))
	require.NoError(t, users.Create(ctx, buyer))

	order := &models.Order{BuyerID: buyer.ID, TotalAmount: decimal.RequireFromString("80"), Status: models.StatusPending, PaymentStatus: models.PaymentPending}
	items := []models.OrderItem{{ProductID: 1, Quantity: decimal.NewFromInt(2), PricePerUnit: decimal.NewFromInt(40), Total: decimal.NewFromInt(80)}}
	require.NoError(t, orders.Create(ctx, order, items))

	mailer := testkit.NewMockMailer()
	return jobs.Deps{Users: users, Orders: orders, Mailer: mailer}, mailer, order
}

// process pushes job through a real manager so decoding and dependency
// injection are exercised like on a worker.
func process(t *testing.T, deps jobs.Deps, job queue.Job, opts ...queue.Option) *queue.Manager {
	t.Helper()
	ctx := context.Background()
	driver := queue.NewMemoryDriver(4)
	m := queue.New(driver, opts...)
	jobs.Register(m, deps)

	require.NoError(t, m.Dispatch(ctx, job))
	raw, err := driver.Pop(ctx)
	require.NoError(t, err)
	m.Process(ctx, raw)
	return m
}

func TestOrderPlacedMailGoesToFarmer(t *testing.T) {
	deps, mailer, order := setup(t)

	m := process(t, deps, &jobs.OrderPlacedMail{OrderID: order.ID, FarmerID: 1})

	assert.Empty(t, m.FailedJobs())
	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"ravi@farm.test"}, sent[0].To)
	assert.Equal(t, "New order #1", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "qty 2 @ 40 = 80")
}

func TestOrderStatusMailGoesToBuyer(t *testing.T) {
	deps, mailer, order := setup(t)

	process(t, deps, &jobs.OrderStatusMail{OrderID: order.ID, BuyerID: order.BuyerID, Status: models.StatusShipped})

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"meera@shop.test"}, sent[0].To)
	assert.Equal(t, "Order #1 is now shipped", sent[0].Subject)
}

func TestMailFailureEndsInFailedJobs(t *testing.T) {
	deps, _, order := setup(t)
	failing := &testkit.MockMailer{}
	failing.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	deps.Mailer = failing

	m := process(t, deps, &jobs.OrderStatusMail{OrderID: order.ID, BuyerID: order.BuyerID, Status: models.StatusShipped},
		queue.WithMaxRetry(2), queue.WithBackoff(func(int) time.Duration { return 0 }))

	failed := m.FailedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, "smtp down", failed[0].Error)
	failing.AssertNumberOfCalls(t, "Send", 2)
}
