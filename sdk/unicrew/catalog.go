package unicrew

import (
	"context"
	"net/url"
	"strconv"
)

// CatalogService wraps the reference-data endpoints used to build search
// filters and profile forms.
type CatalogService struct {
	client *Client
}

// Skills returns the global skill catalog, optionally narrowed by a prefix
// query (autocomplete).
func (s *CatalogService) Skills(ctx context.Context, prefix string) ([]NamedItem, error) {
	return s.named(ctx, "skills/", prefix)
}

// PersonalQualities returns the personal-quality catalog, optionally
// narrowed by a prefix query.
func (s *CatalogService) PersonalQualities(ctx context.Context, prefix string) ([]NamedItem, error) {
	return s.named(ctx, "personal-qualities/", prefix)
}

// CustomSkills returns the authenticated user's own custom skills.
func (s *CatalogService) CustomSkills(ctx context.Context) ([]NamedItem, error) {
	return s.named(ctx, "custom-skills/", "")
}

// AddCustomSkill records a skill outside the global catalog.
func (s *CatalogService) AddCustomSkill(ctx context.Context, name string) (NamedItem, error) {
	return postJSON[NamedItem](ctx, s.client, "custom-skills/", map[string]string{"name": name})
}

// CustomPersonalQualities returns the user's own custom qualities.
func (s *CatalogService) CustomPersonalQualities(ctx context.Context) ([]NamedItem, error) {
	return s.named(ctx, "custom-personal-qualities/", "")
}

// AddCustomPersonalQuality records a quality outside the global catalog.
func (s *CatalogService) AddCustomPersonalQuality(ctx context.Context, name string) (NamedItem, error) {
	return postJSON[NamedItem](ctx, s.client, "custom-personal-qualities/", map[string]string{"name": name})
}

// ProjectCategories returns the project category catalog.
func (s *CatalogService) ProjectCategories(ctx context.Context) ([]NamedItem, error) {
	return s.named(ctx, "project-categories/", "")
}

// Schools returns all schools with their faculties.
func (s *CatalogService) Schools(ctx context.Context) ([]School, error) {
	return getJSON[[]School](ctx, s.client, "schools/", asList())
}

// Faculties returns faculties, optionally scoped to one school.
func (s *CatalogService) Faculties(ctx context.Context, schoolID int64) ([]Faculty, error) {
	q := url.Values{}
	if schoolID > 0 {
		q.Set("school", strconv.FormatInt(schoolID, 10))
	}
	return getJSON[[]Faculty](ctx, s.client, withQuery("faculties/", q), asList())
}

func (s *CatalogService) named(ctx context.Context, path, prefix string) ([]NamedItem, error) {
	q := url.Values{}
	if prefix != "" {
		q.Set("q", prefix)
	}
	return getJSON[[]NamedItem](ctx, s.client, withQuery(path, q), asList())
}
