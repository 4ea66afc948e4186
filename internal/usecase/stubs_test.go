package usecase

import (
	"context"

	"github.com/supportdesk/backend/internal/domain"
)

// scriptedChat is a deterministic ChatCompleter stub. Each call consumes
// the next scripted response; the last response repeats once the script
// runs out. Calls are recorded for assertions.
type scriptedChat struct {
	responses []string
	err       error
	errAtCall int // 1-based call index that fails; 0 means every call fails when err is set
	calls     []domain.ChatRequest
}

func (s *scriptedChat) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	s.calls = append(s.calls, req)
	n := len(s.calls)

	if s.err != nil && (s.errAtCall == 0 || s.errAtCall == n) {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	if n > len(s.responses) {
		return s.responses[len(s.responses)-1], nil
	}
	return s.responses[n-1], nil
}

// stubModerator is a canned Moderator stub.
type stubModerator struct {
	flagged bool
	scores  map[string]float64
	err     error
	calls   int
}

func (s *stubModerator) Moderate(ctx context.Context, input string) (*domain.ModerationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ModerationResult{
		Flagged:        s.flagged,
		CategoryScores: s.scores,
	}, nil
}

// fakeCatalog is an in-memory CatalogRepository for tests.
type fakeCatalog struct {
	products []domain.Product
}

func newFakeCatalog(products ...domain.Product) *fakeCatalog {
	return &fakeCatalog{products: products}
}

func (f *fakeCatalog) ByName(name string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.Name == name {
			product := p
			return &product, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeCatalog) ByCategory(category domain.Category) []domain.Product {
	out := []domain.Product{}
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeCatalog) ProductsByCategory() map[domain.Category][]string {
	out := make(map[domain.Category][]string)
	for _, p := range f.products {
		out[p.Category] = append(out[p.Category], p.Name)
	}
	return out
}

func (f *fakeCatalog) All() []domain.Product {
	return append([]domain.Product(nil), f.products...)
}

// smartPhone, dslrCamera and tv4k are the catalog entries most tests use.
var (
	smartPhone = domain.Product{
		Name:        "SmartX ProPhone",
		Category:    domain.CategorySmartphones,
		Brand:       "SmartX",
		ModelNumber: "SX-PP10",
		Warranty:    "1 year",
		Rating:      4.6,
		Features:    []string{"6.1-inch display", "128GB storage", "12MP dual camera", "5G"},
		Description: "A powerful smartphone with advanced camera features.",
		Price:       899.99,
	}
	dslrCamera = domain.Product{
		Name:        "FotoSnap DSLR Camera",
		Category:    domain.CategoryCameras,
		Brand:       "FotoSnap",
		ModelNumber: "FS-DSLR200",
		Warranty:    "1 year",
		Rating:      4.7,
		Features:    []string{"24.2MP sensor", "1080p video", "3-inch LCD", "Interchangeable lenses"},
		Description: "Capture stunning photos and videos with this versatile DSLR camera.",
		Price:       599.99,
	}
	tv4k = domain.Product{
		Name:        "CineView 4K TV",
		Category:    domain.CategoryTelevisions,
		Brand:       "CineView",
		ModelNumber: "CV-4K55",
		Warranty:    "2 years",
		Rating:      4.8,
		Features:    []string{"55-inch display", "4K resolution", "HDR", "Smart TV"},
		Description: "A stunning 4K TV with vibrant colors and smart features.",
		Price:       599.99,
	}
)
