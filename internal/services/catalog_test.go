package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/internal/config"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/storage"
)

func newTestCatalogService(t *testing.T) (*CatalogService, *storage.InMemoryStore) {
	t.Helper()

	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	store := storage.NewInMemoryStore()
	combiner := NewCombiner(config.CombinationConfig{MaxPerType: 3, MaxPerPair: 10, DefaultBudget: 1_000_000})
	return NewCatalogService(store, combiner, log), store
}

func seedApprovedProvider(store *storage.InMemoryStore, userID, serviceType string) {
	store.SeedProvider(&models.ProviderProfile{
		UserID:         userID,
		ProviderName:   "Provider " + userID,
		BusinessName:   userID + " Studio",
		ServiceType:    serviceType,
		ApprovalStatus: models.ApprovalApproved,
	})
}

func seedActivePackage(t *testing.T, store *storage.InMemoryStore, providerID string, price int64, eventTypes []string) *models.Package {
	t.Helper()

	pkg := &models.Package{
		ID:           primitive.NewObjectID(),
		ProviderID:   providerID,
		Name:         "Package by " + providerID,
		Description:  "test package",
		Price:        price,
		Currency:     "LKR",
		CrowdSizeMin: 50,
		CrowdSizeMax: 300,
		EventTypes:   eventTypes,
		Status:       models.PackageActive,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	_, err := store.CreatePackage(context.Background(), pkg)
	require.NoError(t, err)
	return pkg
}

func TestSearchAnnotatesProviderInfo(t *testing.T) {
	svc, store := newTestCatalogService(t)

	seedApprovedProvider(store, "p1", "photography")
	seedActivePackage(t, store, "p1", 50_000, []string{"wedding"})

	result, err := svc.Search(context.Background(), models.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)

	pkg := result.Packages[0]
	assert.Equal(t, "photography", pkg.ServiceType)
	require.NotNil(t, pkg.ProviderInfo)
	assert.Equal(t, "p1 Studio", pkg.ProviderInfo.BusinessName)
}

func TestSearchExcludesUnapprovedProviders(t *testing.T) {
	svc, store := newTestCatalogService(t)

	seedApprovedProvider(store, "p1", "photography")
	store.SeedProvider(&models.ProviderProfile{
		UserID:         "p2",
		ServiceType:    "catering",
		ApprovalStatus: models.ApprovalPending,
	})
	seedActivePackage(t, store, "p1", 50_000, []string{"wedding"})
	seedActivePackage(t, store, "p2", 40_000, []string{"wedding"})

	result, err := svc.Search(context.Background(), models.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)
	assert.Equal(t, "p1", result.Packages[0].ProviderID)
}

func TestSearchFiltersByServiceType(t *testing.T) {
	svc, store := newTestCatalogService(t)

	seedApprovedProvider(store, "p1", "photography")
	seedApprovedProvider(store, "p2", "catering")
	seedActivePackage(t, store, "p1", 50_000, []string{"wedding"})
	seedActivePackage(t, store, "p2", 40_000, []string{"wedding"})

	result, err := svc.Search(context.Background(), models.SearchFilter{ServiceType: "photo"})
	require.NoError(t, err)
	require.Len(t, result.Packages, 1)
	assert.Equal(t, "p1", result.Packages[0].ProviderID)
}

func TestSearchGroupedBuildsCombos(t *testing.T) {
	svc, store := newTestCatalogService(t)

	seedApprovedProvider(store, "p1", "photography")
	seedApprovedProvider(store, "p2", "catering")
	seedActivePackage(t, store, "p1", 50_000, []string{"wedding"})
	seedActivePackage(t, store, "p2", 40_000, []string{"wedding"})

	result, err := svc.Search(context.Background(), models.SearchFilter{Grouped: true})
	require.NoError(t, err)

	require.Len(t, result.Combined, 1)
	assert.Equal(t, int64(90_000), result.Combined[0].Price)
}

func TestSearchNoApprovedProviders(t *testing.T) {
	svc, _ := newTestCatalogService(t)

	result, err := svc.Search(context.Background(), models.SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, result.Packages)
}

func TestCreatePackageDefaults(t *testing.T) {
	svc, _ := newTestCatalogService(t)

	pkg, err := svc.CreatePackage(context.Background(), &models.PackageRequest{
		Name:         "Gold Wedding Shoot",
		Description:  "Full day coverage",
		Price:        120_000,
		CrowdSizeMin: 50,
		CrowdSizeMax: 400,
		EventTypes:   []string{"wedding"},
	}, "p1")
	require.NoError(t, err)

	assert.Equal(t, "LKR", pkg.Currency)
	assert.Equal(t, models.PackageActive, pkg.Status)
	assert.False(t, pkg.ID.IsZero())
}

func TestCreatePackageValidation(t *testing.T) {
	svc, _ := newTestCatalogService(t)

	_, err := svc.CreatePackage(context.Background(), &models.PackageRequest{
		Name:         "Bad",
		Description:  "bad",
		Price:        -1,
		CrowdSizeMin: 50,
		CrowdSizeMax: 400,
	}, "p1")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreatePackage(context.Background(), &models.PackageRequest{
		Name:         "Bad",
		Description:  "bad",
		Price:        10_000,
		CrowdSizeMin: 500,
		CrowdSizeMax: 100,
	}, "p1")
	assert.ErrorIs(t, err, ErrInvalidCrowdRange)
}

func TestUpdatePackageScopedToOwner(t *testing.T) {
	svc, store := newTestCatalogService(t)

	pkg := seedActivePackage(t, store, "p1", 50_000, []string{"wedding"})

	req := &models.PackageRequest{
		Name:         "Renamed",
		Description:  "updated",
		Price:        60_000,
		CrowdSizeMin: 50,
		CrowdSizeMax: 300,
		EventTypes:   []string{"wedding"},
	}

	_, err := svc.UpdatePackage(context.Background(), pkg.ID.Hex(), req, "intruder")
	assert.ErrorIs(t, err, ErrPackageNotFound)

	updated, err := svc.UpdatePackage(context.Background(), pkg.ID.Hex(), req, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, int64(60_000), updated.Price)
}

func TestGetPackageNotFound(t *testing.T) {
	svc, _ := newTestCatalogService(t)

	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrPackageNotFound)

	_, err = svc.GetByID(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}
