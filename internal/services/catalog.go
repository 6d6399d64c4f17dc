package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/storage"
)

// SearchResult carries both views of a catalog query: the flat package list
// and, when grouping was requested, the synthetic multi-vendor bundles.
type SearchResult struct {
	Packages []*models.Package        `json:"packages"`
	Combined []models.CombinedPackage `json:"combinedPackages,omitempty"`
}

type CatalogService struct {
	store    storage.Store
	combiner *Combiner
	log      *logger.Logger
}

func NewCatalogService(store storage.Store, combiner *Combiner, log *logger.Logger) *CatalogService {
	return &CatalogService{
		store:    store,
		combiner: combiner,
		log:      log,
	}
}

// Search returns active packages from approved providers matching the filter.
// Packages are annotated with their provider's service type and display info
// before any service-type filtering or combination grouping runs.
func (s *CatalogService) Search(ctx context.Context, filter models.SearchFilter) (*SearchResult, error) {
	providers, err := s.store.ListApprovedProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	profiles := make(map[string]*models.ProviderProfile, len(providers))
	providerIDs := make([]string, 0, len(providers))
	for _, p := range providers {
		profiles[p.UserID] = p
		providerIDs = append(providerIDs, p.UserID)
	}
	if len(providerIDs) == 0 {
		return &SearchResult{Packages: []*models.Package{}}, nil
	}

	packages, err := s.store.FindActivePackages(ctx, storage.PackageQuery{
		EventType:   filter.EventType,
		MinPrice:    filter.MinPrice,
		MaxPrice:    filter.MaxPrice,
		CrowdSize:   filter.CrowdSize,
		ProviderIDs: providerIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search packages: %w", err)
	}

	annotated := make([]*models.Package, 0, len(packages))
	for _, pkg := range packages {
		profile, ok := profiles[pkg.ProviderID]
		if !ok {
			continue
		}
		annotate(pkg, profile)
		if filter.ServiceType != "" &&
			!strings.Contains(strings.ToLower(pkg.ServiceType), strings.ToLower(filter.ServiceType)) {
			continue
		}
		annotated = append(annotated, pkg)
	}

	result := &SearchResult{Packages: annotated}
	if filter.Grouped {
		result.Combined = s.combiner.Combine(annotated, filter.MaxBudget, filter.RequiredServices)
		s.log.LogProcess("COMBINE", fmt.Sprintf("Built %d combined packages from %d candidates", len(result.Combined), len(annotated)))
	}
	return result, nil
}

// GetByID returns one package with its provider annotation.
func (s *CatalogService) GetByID(ctx context.Context, packageID string) (*models.Package, error) {
	pkg, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	if profile, err := s.store.GetProviderProfile(ctx, pkg.ProviderID); err == nil {
		annotate(pkg, profile)
	}
	return pkg, nil
}

// CreatePackage validates and inserts a provider's package listing.
func (s *CatalogService) CreatePackage(ctx context.Context, req *models.PackageRequest, providerID string) (*models.Package, error) {
	if err := validatePackageRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pkg := &models.Package{
		ProviderID:   providerID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		Features:     req.Features,
		CrowdSizeMin: req.CrowdSizeMin,
		CrowdSizeMax: req.CrowdSizeMax,
		EventTypes:   req.EventTypes,
		Images:       req.Images,
		Status:       models.PackageStatus(req.Status),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if pkg.Currency == "" {
		pkg.Currency = "LKR"
	}
	if pkg.Status == "" {
		pkg.Status = models.PackageActive
	}

	id, err := s.store.CreatePackage(ctx, pkg)
	if err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	s.log.LogDatabase("INSERT", "provider_packages", fmt.Sprintf("Package %s created by provider %s", id, providerID))
	return pkg, nil
}

// UpdatePackage applies the request onto the provider's existing package.
// Ownership is enforced by the store filter, so another provider's package
// surfaces as not found.
func (s *CatalogService) UpdatePackage(ctx context.Context, packageID string, req *models.PackageRequest, providerID string) (*models.Package, error) {
	if err := validatePackageRequest(req); err != nil {
		return nil, err
	}

	pkg, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if pkg.ProviderID != providerID {
		return nil, ErrPackageNotFound
	}

	pkg.Name = req.Name
	pkg.Description = req.Description
	pkg.Price = req.Price
	if req.Currency != "" {
		pkg.Currency = req.Currency
	}
	pkg.Features = req.Features
	pkg.CrowdSizeMin = req.CrowdSizeMin
	pkg.CrowdSizeMax = req.CrowdSizeMax
	pkg.EventTypes = req.EventTypes
	pkg.Images = req.Images
	if req.Status != "" {
		pkg.Status = models.PackageStatus(req.Status)
	}
	pkg.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdatePackage(ctx, pkg); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to update package: %w", err)
	}

	s.log.LogDatabase("UPDATE", "provider_packages", fmt.Sprintf("Package %s updated by provider %s", packageID, providerID))
	return pkg, nil
}

// ListMine returns the provider's own packages regardless of status.
func (s *CatalogService) ListMine(ctx context.Context, providerID string) ([]*models.Package, error) {
	packages, err := s.store.ListPackagesByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

func validatePackageRequest(req *models.PackageRequest) error {
	if req.Price < 0 {
		return ErrInvalidPrice
	}
	if req.CrowdSizeMin > req.CrowdSizeMax {
		return ErrInvalidCrowdRange
	}
	return nil
}

func annotate(pkg *models.Package, profile *models.ProviderProfile) {
	pkg.ServiceType = profile.ServiceType
	pkg.ProviderInfo = &models.ProviderInfo{
		ID:           profile.UserID,
		Name:         profile.ProviderName,
		BusinessName: profile.BusinessName,
		ServiceType:  profile.ServiceType,
		ProfileImage: profile.ProfileImage,
	}
}
