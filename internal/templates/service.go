package templates

import "context"

// Service resolves and renders stored templates. It satisfies the renderer
// interface the quote workflow uses for its notification copy.
type Service struct {
	repo Repository
}

// NewService constructs the template service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Render loads a template by name and substitutes the variables.
func (s *Service) Render(ctx context.Context, name string, vars map[string]string) (string, string, error) {
	t, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return "", "", err
	}
	subject, body := t.Render(vars)
	return subject, body, nil
}

// Save creates or replaces a template.
func (s *Service) Save(ctx context.Context, t EmailTemplate) (*EmailTemplate, error) {
	return s.repo.Upsert(ctx, t)
}

// List returns every stored template.
func (s *Service) List(ctx context.Context) ([]EmailTemplate, error) {
	return s.repo.List(ctx)
}

// Get returns one template by name.
func (s *Service) Get(ctx context.Context, name string) (*EmailTemplate, error) {
	return s.repo.GetByName(ctx, name)
}

// Delete removes a template; the built-in copy takes over afterwards.
func (s *Service) Delete(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}
