package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/supportdesk/backend/internal/domain"
)

// entityRef is one element of the resolver's expected output list: either
// a category reference or a list of explicit product names.
type entityRef struct {
	Category string   `json:"category"`
	Products []string `json:"products"`
}

// ResolverService extracts category and product mentions from a query and
// resolves them against the catalog into an ordered, deduplicated context.
type ResolverService struct {
	chat    domain.ChatCompleter
	catalog domain.CatalogRepository
}

// NewResolverService creates a new entity resolver.
func NewResolverService(chat domain.ChatCompleter, catalog domain.CatalogRepository) *ResolverService {
	return &ResolverService{
		chat:    chat,
		catalog: catalog,
	}
}

// Resolve asks the backend which catalog entities the query mentions and
// expands them into products. Irrecoverable parse failures degrade to an
// empty context rather than failing the request; unknown product names
// are logged and skipped.
func (s *ResolverService) Resolve(ctx context.Context, query domain.Query) (domain.ResolvedContext, error) {
	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: s.systemMessage()},
			{Role: "user", Content: delimiter + query.Text + delimiter},
		},
	})
	if err != nil {
		return nil, err
	}

	refs, ok := parseEntityList(response)
	if !ok {
		log.Printf("[RESOLVE] Unparseable entity list, proceeding without context: %.120q", response)
		return domain.ResolvedContext{}, nil
	}

	return s.expand(refs), nil
}

// systemMessage builds the extraction instruction carrying the enumerated
// category -> product-name mapping from the catalog.
func (s *ResolverService) systemMessage() string {
	allowed, err := json.Marshal(s.catalog.ProductsByCategory())
	if err != nil {
		allowed = []byte("{}")
	}

	categories := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		categories = append(categories, string(c))
	}

	return fmt.Sprintf(`You will be provided with customer service queries. The customer service query will be delimited with %s characters.
Output a JSON list of objects, where each object has the following format:
    'category': <one of %s>,
OR
    'products': <a list of products that must be found in the allowed products below>

Where the categories and products must be found in the customer service query.
If a product is mentioned, it must be associated with the correct category in the allowed products list below.
If no products or categories are found, output an empty list.

The allowed products are provided in JSON format.
The keys of each item represent the category.
The values of each item is a list of products that are within that category.
Allowed products: %s`, delimiter, strings.Join(categories, ", "), allowed)
}

// expand resolves each reference against the catalog, preserving source
// order and removing duplicate products by name.
func (s *ResolverService) expand(refs []entityRef) domain.ResolvedContext {
	resolved := domain.ResolvedContext{}
	seen := make(map[string]bool)

	appendProduct := func(p domain.Product) {
		if seen[p.Name] {
			return
		}
		seen[p.Name] = true
		resolved = append(resolved, p)
	}

	for _, ref := range refs {
		switch {
		case len(ref.Products) > 0:
			for _, name := range ref.Products {
				product, err := s.catalog.ByName(name)
				if err != nil {
					if errors.Is(err, domain.ErrProductNotFound) {
						log.Printf("[RESOLVE] Product %q not found in catalog, skipping", name)
						continue
					}
					continue
				}
				appendProduct(*product)
			}
		case ref.Category != "":
			for _, product := range s.catalog.ByCategory(domain.Category(ref.Category)) {
				appendProduct(product)
			}
		default:
			log.Printf("[RESOLVE] Invalid entity reference, skipping")
		}
	}

	return resolved
}

// parseEntityList decodes the backend's JSON-like list output. The
// backend frequently emits single-quoted pseudo-JSON, so quotes are
// normalized before strict parsing. The boolean reports whether the
// output parsed; callers treat false as an empty extraction.
func parseEntityList(response string) ([]entityRef, bool) {
	cleaned := stripCodeFence(response)
	cleaned = strings.ReplaceAll(cleaned, "'", `"`)

	// Tolerate prose around the list itself.
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}
	cleaned = cleaned[start : end+1]

	var refs []entityRef
	if err := json.Unmarshal([]byte(cleaned), &refs); err != nil {
		return nil, false
	}

	return refs, true
}
