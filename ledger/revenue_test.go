package ledger_test

import (
	"context"
	"testing"

	"referral-system/ledger"
	"referral-system/models"
	"referral-system/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedReferralPair(t *testing.T, store *testutil.MemoryStore) (referrer, referred *models.User) {
	t.Helper()
	ctx := context.Background()

	referrer = &models.User{Email: "referrer@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, referrer))

	referred = &models.User{Email: "referred@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, referred))

	require.NoError(t, store.CreateReferral(ctx, &models.Referral{
		ReferrerID: referrer.ID,
		ReferredID: referred.ID,
	}))
	return referrer, referred
}

func TestShareRevenueCreditsReferrer(t *testing.T) {
	store := testutil.NewMemoryStore()
	referrer, referred := seedReferralPair(t, store)
	svc := ledger.NewRevenueService(store, zap.NewNop())

	svc.ShareRevenue(context.Background(), referred.ID, 100)

	stats, err := store.GetUserStats(context.Background(), referrer.ID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, stats.Earnings, 1e-9)
	require.Equal(t, 0, stats.Referrals)

	txs, err := store.ListUserTransactions(context.Background(), referrer.ID, models.TransactionRevenueShare)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.InDelta(t, 10.0, txs[0].Amount, 1e-9)
}

func TestShareRevenueIgnoresNonPositiveAmounts(t *testing.T) {
	store := testutil.NewMemoryStore()
	referrer, referred := seedReferralPair(t, store)
	svc := ledger.NewRevenueService(store, zap.NewNop())

	svc.ShareRevenue(context.Background(), referred.ID, 0)
	svc.ShareRevenue(context.Background(), referred.ID, -50)

	stats, err := store.GetUserStats(context.Background(), referrer.ID)
	require.NoError(t, err)
	require.Zero(t, stats.Earnings)
	require.Empty(t, store.Transactions)
}

func TestShareRevenueNoReferrerIsNoop(t *testing.T) {
	store := testutil.NewMemoryStore()
	ctx := context.Background()

	user := &models.User{Email: "lonely@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, user))

	svc := ledger.NewRevenueService(store, zap.NewNop())
	svc.ShareRevenue(ctx, user.ID, 100)

	require.Empty(t, store.Transactions)
}

func TestShareRevenueIgnoresSelfReferral(t *testing.T) {
	store := testutil.NewMemoryStore()
	ctx := context.Background()

	user := &models.User{Email: "self@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, user))
	// самоссылка, просочившаяся в хранилище мимо валидации
	require.NoError(t, store.CreateReferral(ctx, &models.Referral{
		ReferrerID: user.ID,
		ReferredID: user.ID,
	}))

	svc := ledger.NewRevenueService(store, zap.NewNop())
	svc.ShareRevenue(ctx, user.ID, 100)

	stats, err := store.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, stats.Earnings)
}

func TestShareRevenueSwallowsStoreFailure(t *testing.T) {
	store := testutil.NewMemoryStore()
	ctx := context.Background()

	referred := &models.User{Email: "referred@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, referred))
	// реферер без строки user_stats: начисление упадёт внутри хранилища
	require.NoError(t, store.CreateReferral(ctx, &models.Referral{
		ReferrerID: "ghost-referrer",
		ReferredID: referred.ID,
	}))

	svc := ledger.NewRevenueService(store, zap.NewNop())
	svc.ShareRevenue(ctx, referred.ID, 100)
	// ошибка проглочена, вызывающая сторона её не видит
}

func TestShareReturnsErrNoReferrer(t *testing.T) {
	store := testutil.NewMemoryStore()
	ctx := context.Background()

	user := &models.User{Email: "lonely@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(ctx, user))

	svc := ledger.NewRevenueService(store, zap.NewNop())
	_, err := svc.Share(ctx, user.ID, 100)
	require.ErrorIs(t, err, ledger.ErrNoReferrer)
}

func TestShareReportsAmountAndReferrer(t *testing.T) {
	store := testutil.NewMemoryStore()
	referrer, referred := seedReferralPair(t, store)
	svc := ledger.NewRevenueService(store, zap.NewNop())

	result, err := svc.Share(context.Background(), referred.ID, 250)
	require.NoError(t, err)
	require.Equal(t, referrer.ID, result.ReferrerID)
	require.InDelta(t, 25.0, result.ShareAmount, 1e-9)
}

func TestRewardReferrerBonusAndCounter(t *testing.T) {
	store := testutil.NewMemoryStore()
	referrer, referred := seedReferralPair(t, store)
	svc := ledger.NewRevenueService(store, zap.NewNop())

	result, err := svc.RewardReferrer(context.Background(), referred.ID)
	require.NoError(t, err)
	require.InDelta(t, ledger.SignupBonus, result.ShareAmount, 1e-9)

	stats, err := store.GetUserStats(context.Background(), referrer.ID)
	require.NoError(t, err)
	require.InDelta(t, ledger.SignupBonus, stats.Earnings, 1e-9)
	require.Equal(t, 1, stats.Referrals)
}
