package services

import (
	"fmt"
	"sort"
	"strings"

	"eventhub/internal/config"
	"eventhub/internal/models"
)

// Combiner builds synthetic two-vendor bundles out of the active package
// catalog. Bundles are computed per request and never persisted.
type Combiner struct {
	cfg config.CombinationConfig
}

func NewCombiner(cfg config.CombinationConfig) *Combiner {
	return &Combiner{cfg: cfg}
}

// Combine pairs packages across distinct service types. A pair is kept only
// when the two sides come from different providers and the summed price fits
// the budget. Results are sorted by total price ascending.
func (c *Combiner) Combine(packages []*models.Package, maxBudget *int64, requiredServices []string) []models.CombinedPackage {
	byType, typeOrder := groupByServiceType(packages)
	if len(typeOrder) < 2 {
		return []models.CombinedPackage{}
	}

	budget := c.cfg.DefaultBudget
	if maxBudget != nil {
		budget = *maxBudget
	}

	required := make([]string, 0, len(requiredServices))
	for _, svc := range requiredServices {
		if svc = strings.ToLower(strings.TrimSpace(svc)); svc != "" {
			required = append(required, svc)
		}
	}

	combos := []models.CombinedPackage{}
	for i := 0; i < len(typeOrder); i++ {
		for j := i + 1; j < len(typeOrder); j++ {
			typeA, typeB := typeOrder[i], typeOrder[j]
			if !pairCoversRequired(typeA, typeB, required) {
				continue
			}
			combos = append(combos, c.combinePair(typeA, typeB, byType[typeA], byType[typeB], budget)...)
		}
	}

	sort.SliceStable(combos, func(a, b int) bool {
		return combos[a].Price < combos[b].Price
	})
	return combos
}

func (c *Combiner) combinePair(typeA, typeB string, packagesA, packagesB []*models.Package, budget int64) []models.CombinedPackage {
	if len(packagesA) > c.cfg.MaxPerType {
		packagesA = packagesA[:c.cfg.MaxPerType]
	}
	if len(packagesB) > c.cfg.MaxPerType {
		packagesB = packagesB[:c.cfg.MaxPerType]
	}

	combos := []models.CombinedPackage{}
	for _, a := range packagesA {
		for _, b := range packagesB {
			if len(combos) >= c.cfg.MaxPerPair {
				return combos
			}
			if a.ProviderID == b.ProviderID {
				continue
			}
			total := a.Price + b.Price
			if total > budget {
				continue
			}
			combos = append(combos, buildCombo(typeA, typeB, a, b, total))
		}
	}
	return combos
}

func buildCombo(typeA, typeB string, a, b *models.Package, total int64) models.CombinedPackage {
	crowdMin := a.CrowdSizeMin
	if b.CrowdSizeMin > crowdMin {
		crowdMin = b.CrowdSizeMin
	}
	crowdMax := a.CrowdSizeMax
	if b.CrowdSizeMax < crowdMax {
		crowdMax = b.CrowdSizeMax
	}

	currency := a.Currency
	if currency == "" {
		currency = b.Currency
	}

	images := []string{}
	if len(a.Images) > 0 {
		images = append(images, a.Images[0])
	}
	if len(b.Images) > 0 {
		images = append(images, b.Images[0])
	}

	return models.CombinedPackage{
		ID:           fmt.Sprintf("combo_%s_%s", a.ID.Hex(), b.ID.Hex()),
		Name:         fmt.Sprintf("%s & %s Package", titleCase(typeA), titleCase(typeB)),
		Description:  fmt.Sprintf("Combined package including %s and %s", a.Name, b.Name),
		Price:        total,
		Currency:     currency,
		EventTypes:   unionEventTypes(a.EventTypes, b.EventTypes),
		CrowdSizeMin: crowdMin,
		CrowdSizeMax: crowdMax,
		Images:       images,
		Combined:     true,
		Packages:     []models.Package{*a, *b},
		ServiceTypes: []string{typeA, typeB},
	}
}

// groupByServiceType buckets packages by their annotated service type,
// preserving first-appearance order of the types. Packages without a resolved
// service type cannot be paired and are dropped.
func groupByServiceType(packages []*models.Package) (map[string][]*models.Package, []string) {
	byType := map[string][]*models.Package{}
	order := []string{}
	for _, pkg := range packages {
		svc := strings.ToLower(strings.TrimSpace(pkg.ServiceType))
		if svc == "" {
			continue
		}
		if _, seen := byType[svc]; !seen {
			order = append(order, svc)
		}
		byType[svc] = append(byType[svc], pkg)
	}
	return byType, order
}

// pairCoversRequired reports whether the pair of service types satisfies every
// requested service. More than two required services can never be covered by
// a two-sided bundle.
func pairCoversRequired(typeA, typeB string, required []string) bool {
	for _, svc := range required {
		if svc != typeA && svc != typeB {
			return false
		}
	}
	return true
}

func unionEventTypes(a, b []string) []string {
	seen := map[string]bool{}
	union := []string{}
	for _, t := range a {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
		}
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			union = append(union, t)
		}
	}
	return union
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
