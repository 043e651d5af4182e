package service

import (
	"context"

	"sriox/internal/apperr"
	"sriox/internal/hostfs"
	"sriox/internal/model"
	"sriox/internal/provision"
	"sriox/internal/redirectpage"
	"sriox/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type RedirectCreate struct {
	Name      string `json:"name" validate:"required,subdomain"`
	TargetURL string `json:"targetUrl" validate:"required,http_url"`
}

type RedirectUpdate struct {
	TargetURL *string `json:"targetUrl" validate:"omitempty,http_url"`
	IsActive  *bool   `json:"isActive"`
}

type RedirectService interface {
	Create(ctx context.Context, userID uuid.UUID, in RedirectCreate) (*model.Redirect, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Redirect, error)
	GetPublic(ctx context.Context, name string) (*model.Redirect, error)
	Update(ctx context.Context, id, userID uuid.UUID, in RedirectUpdate) (*model.Redirect, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	URL(r *model.Redirect) string
}

type redirectService struct {
	repo     repository.RedirectRepository
	workflow *provision.Workflow[RedirectCreate, RedirectUpdate, model.Redirect]
	domain   string
	logger   zerolog.Logger
}

func NewRedirectService(
	repo repository.RedirectRepository,
	pages *hostfs.Files,
	renderer *redirectpage.Renderer,
	validate *validator.Validate,
	domain string,
	deps provision.Deps,
) RedirectService {
	p := &redirectProvisioner{repo: repo, pages: pages, renderer: renderer, validate: validate}
	return &redirectService{
		repo:     repo,
		workflow: provision.New[RedirectCreate, RedirectUpdate, model.Redirect](p, deps),
		domain:   domain,
		logger:   deps.Logger.With().Str("service", "RedirectService").Logger(),
	}
}

func (s *redirectService) Create(ctx context.Context, userID uuid.UUID, in RedirectCreate) (*model.Redirect, error) {
	in.Name = normalizeKey(in.Name)
	return s.workflow.Create(ctx, userID, in)
}

func (s *redirectService) List(ctx context.Context, userID uuid.UUID) ([]model.Redirect, error) {
	redirects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list redirects")
		return nil, apperr.Internal("Error fetching redirects", err)
	}
	return redirects, nil
}

func (s *redirectService) GetPublic(ctx context.Context, name string) (*model.Redirect, error) {
	r, err := s.repo.GetActiveByKey(ctx, normalizeKey(name))
	if err != nil {
		return nil, apperr.Internal("Error fetching redirect", err)
	}
	if r == nil {
		return nil, apperr.New(apperr.ErrNotFoundOrForbidden, "Redirect not found")
	}
	return r, nil
}

func (s *redirectService) Update(ctx context.Context, id, userID uuid.UUID, in RedirectUpdate) (*model.Redirect, error) {
	return s.workflow.Update(ctx, id, userID, in)
}

func (s *redirectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.workflow.Delete(ctx, id, userID)
}

func (s *redirectService) URL(r *model.Redirect) string {
	return "https://" + s.domain + "/" + r.Name
}

// redirectProvisioner writes one page per redirect name.
type redirectProvisioner struct {
	repo     repository.RedirectRepository
	pages    *hostfs.Files
	renderer *redirectpage.Renderer
	validate *validator.Validate
}

func (p *redirectProvisioner) Kind() model.ResourceKind     { return model.KindRedirect }
func (p *redirectProvisioner) Noun() string                 { return "redirect" }
func (p *redirectProvisioner) Title() string                { return "Redirect" }
func (p *redirectProvisioner) KeyLabel() string             { return "Redirect name" }
func (p *redirectProvisioner) Key(in RedirectCreate) string { return in.Name }

func (p *redirectProvisioner) Describe(rec *model.Redirect) (uuid.UUID, string) {
	return rec.ID, rec.Name
}

func (p *redirectProvisioner) ValidateCreate(in RedirectCreate) error {
	return check(p.validate, in)
}

func (p *redirectProvisioner) Taken(ctx context.Context, key string) (bool, error) {
	return p.repo.KeyExists(ctx, key)
}

// write renders target into the page for name and returns an effect that
// puts back whatever was there before.
func (p *redirectProvisioner) write(name, target string) (provision.Effect, error) {
	page, err := p.renderer.Render(target)
	if err != nil {
		return provision.Effect{}, err
	}
	prev, err := p.pages.Read(name)
	if err != nil {
		return provision.Effect{}, err
	}
	if err := p.pages.Write(name, page); err != nil {
		return provision.Effect{}, err
	}
	eff := provision.Effect{
		Rollback: func(ctx context.Context) error { return p.pages.Restore(name, prev) },
	}
	if prev == nil {
		eff.Artifacts = []string{p.pages.Path(name)}
	}
	return eff, nil
}

func (p *redirectProvisioner) ApplyCreate(ctx context.Context, in RedirectCreate) (provision.Effect, error) {
	return p.write(in.Name, in.TargetURL)
}

func (p *redirectProvisioner) PersistCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, in RedirectCreate) (*model.Redirect, error) {
	r := &model.Redirect{
		UserID:    userID,
		Name:      in.Name,
		TargetURL: in.TargetURL,
		Path:      p.pages.Path(in.Name),
		IsActive:  true,
	}
	if err := p.repo.WithTx(tx).Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *redirectProvisioner) Load(ctx context.Context, id, userID uuid.UUID) (*model.Redirect, error) {
	return p.repo.GetOwned(ctx, id, userID)
}

func (p *redirectProvisioner) ValidateUpdate(in RedirectUpdate) error {
	return check(p.validate, in)
}

// ApplyUpdate regenerates the page only when the target changes.
func (p *redirectProvisioner) ApplyUpdate(ctx context.Context, cur *model.Redirect, in RedirectUpdate) (provision.Effect, error) {
	if in.TargetURL == nil || *in.TargetURL == cur.TargetURL {
		return provision.Effect{}, nil
	}
	return p.write(cur.Name, *in.TargetURL)
}

func (p *redirectProvisioner) PersistUpdate(ctx context.Context, tx *gorm.DB, cur *model.Redirect, in RedirectUpdate) error {
	if in.TargetURL != nil {
		cur.TargetURL = *in.TargetURL
	}
	if in.IsActive != nil {
		cur.IsActive = *in.IsActive
	}
	return p.repo.WithTx(tx).Save(ctx, cur)
}

func (p *redirectProvisioner) ApplyDelete(ctx context.Context, cur *model.Redirect) (provision.Effect, error) {
	name := cur.Name
	prev, err := p.pages.Read(name)
	if err != nil {
		return provision.Effect{}, err
	}
	if err := p.pages.Remove(name); err != nil {
		return provision.Effect{}, err
	}
	return provision.Effect{
		Rollback: func(ctx context.Context) error { return p.pages.Restore(name, prev) },
	}, nil
}

func (p *redirectProvisioner) PersistDelete(ctx context.Context, tx *gorm.DB, cur *model.Redirect) error {
	return p.repo.WithTx(tx).Delete(ctx, cur)
}
