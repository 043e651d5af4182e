package service

import (
	"context"
	"fmt"
	"strings"

	"sriox/internal/apperr"
	"sriox/internal/hostfs"
	"sriox/internal/model"
	"sriox/internal/provision"
	"sriox/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RepoHost looks up repositories on GitHub.
type RepoHost interface {
	RepositoryExists(ctx context.Context, owner, repo string) error
	FetchCNAME(ctx context.Context, owner, repo string) (string, error)
}

// DNSRecords points subdomains at GitHub Pages. Failures are handled by the
// implementation and never reach the caller.
type DNSRecords interface {
	Point(ctx context.Context, name, target string)
	Remove(ctx context.Context, name string)
}

type GithubPageCreate struct {
	Subdomain      string `json:"subdomain" validate:"required,subdomain"`
	GithubUsername string `json:"githubUsername" validate:"required,github_user"`
	Repository     string `json:"repository" validate:"required,github_repo"`
}

type GithubPageUpdate struct {
	GithubUsername *string `json:"githubUsername" validate:"omitempty,github_user"`
	Repository     *string `json:"repository" validate:"omitempty,github_repo"`
	IsActive       *bool   `json:"isActive"`
}

// VerificationError is returned by Verify when the CNAME file is missing or
// does not contain the custom domain. It unwraps to ErrVerificationFailed.
type VerificationError struct {
	ExpectedContent string
	Instructions    []string
	err             error
}

func (e *VerificationError) Error() string { return e.err.Error() }
func (e *VerificationError) Unwrap() error { return e.err }

type GithubPageService interface {
	Create(ctx context.Context, userID uuid.UUID, in GithubPageCreate) (*model.GithubPage, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.GithubPage, error)
	GetPublic(ctx context.Context, subdomain string) (*model.GithubPage, error)
	Update(ctx context.Context, id, userID uuid.UUID, in GithubPageUpdate) (*model.GithubPage, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	// Verify checks the repository's CNAME file against the custom domain.
	Verify(ctx context.Context, id, userID uuid.UUID) (*model.GithubPage, error)
	SetupInstructions(page *model.GithubPage) []string
}

type githubPageService struct {
	repo     repository.GithubPageRepository
	host     RepoHost
	workflow *provision.Workflow[GithubPageCreate, GithubPageUpdate, model.GithubPage]
	branch   string
	logger   zerolog.Logger
}

func NewGithubPageService(
	repo repository.GithubPageRepository,
	host RepoHost,
	dns DNSRecords,
	markers *hostfs.Files,
	validate *validator.Validate,
	domain, branch string,
	deps provision.Deps,
) GithubPageService {
	p := &githubPageProvisioner{repo: repo, host: host, dns: dns, markers: markers, validate: validate, domain: domain}
	return &githubPageService{
		repo:     repo,
		host:     host,
		workflow: provision.New[GithubPageCreate, GithubPageUpdate, model.GithubPage](p, deps),
		branch:   branch,
		logger:   deps.Logger.With().Str("service", "GithubPageService").Logger(),
	}
}

func (s *githubPageService) Create(ctx context.Context, userID uuid.UUID, in GithubPageCreate) (*model.GithubPage, error) {
	in.Subdomain = normalizeKey(in.Subdomain)
	in.GithubUsername = strings.TrimSpace(in.GithubUsername)
	in.Repository = strings.TrimSpace(in.Repository)
	return s.workflow.Create(ctx, userID, in)
}

func (s *githubPageService) List(ctx context.Context, userID uuid.UUID) ([]model.GithubPage, error) {
	pages, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list GitHub pages")
		return nil, apperr.Internal("Error fetching GitHub pages", err)
	}
	return pages, nil
}

func (s *githubPageService) GetPublic(ctx context.Context, subdomain string) (*model.GithubPage, error) {
	page, err := s.repo.GetActiveByKey(ctx, normalizeKey(subdomain))
	if err != nil {
		return nil, apperr.Internal("Error fetching GitHub page", err)
	}
	if page == nil {
		return nil, apperr.New(apperr.ErrNotFoundOrForbidden, "GitHub page not found")
	}
	return page, nil
}

func (s *githubPageService) Update(ctx context.Context, id, userID uuid.UUID, in GithubPageUpdate) (*model.GithubPage, error) {
	return s.workflow.Update(ctx, id, userID, in)
}

func (s *githubPageService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.workflow.Delete(ctx, id, userID)
}

func (s *githubPageService) Verify(ctx context.Context, id, userID uuid.UUID) (*model.GithubPage, error) {
	page, err := s.repo.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, apperr.Internal("Error fetching GitHub page", err)
	}
	if page == nil {
		return nil, apperr.New(apperr.ErrNotFoundOrForbidden, "GitHub page not found or you don't have permission")
	}
	log := s.logger.With().Str("subdomain", page.Subdomain).Logger()

	content, err := s.host.FetchCNAME(ctx, page.GithubUsername, page.Repository)
	if err != nil {
		log.Info().Err(err).Msg("CNAME file not readable")
		return nil, &VerificationError{
			ExpectedContent: page.CustomDomain,
			Instructions:    s.cnameInstructions(page),
			err: &apperr.Error{
				Kind:    apperr.ErrVerificationFailed,
				Message: fmt.Sprintf("Could not find a CNAME file on the %s branch of %s/%s", s.branch, page.GithubUsername, page.Repository),
			},
		}
	}
	if strings.TrimSpace(content) != page.CustomDomain {
		log.Info().Str("found", strings.TrimSpace(content)).Msg("CNAME file does not match")
		return nil, &VerificationError{
			ExpectedContent: page.CustomDomain,
			err:             apperr.Newf(apperr.ErrVerificationFailed, "CNAME file must contain exactly %s", page.CustomDomain),
		}
	}

	if !page.IsVerified {
		page.IsVerified = true
		if err := s.repo.Save(ctx, page); err != nil {
			return nil, apperr.Internal("Error verifying GitHub page", err)
		}
	}
	log.Info().Msg("GitHub page verified")
	return page, nil
}

func (s *githubPageService) cnameInstructions(page *model.GithubPage) []string {
	return []string{
		fmt.Sprintf("Go to your repository at https://github.com/%s/%s", page.GithubUsername, page.Repository),
		fmt.Sprintf("Create a file called CNAME in the root of the %s branch", s.branch),
		fmt.Sprintf("Add the following content to the CNAME file: %s", page.CustomDomain),
		"Go to repository Settings > Pages and ensure GitHub Pages is enabled",
	}
}

func (s *githubPageService) SetupInstructions(page *model.GithubPage) []string {
	return []string{
		fmt.Sprintf("Go to your GitHub repository: https://github.com/%s/%s", page.GithubUsername, page.Repository),
		"Open Settings > Pages",
		fmt.Sprintf("Under \"Custom domain\", enter: %s", page.CustomDomain),
		fmt.Sprintf("Make sure the %s branch has a CNAME file containing: %s", s.branch, page.CustomDomain),
		"Save the changes and wait for DNS propagation (may take up to 24 hours)",
		"Click Verify to confirm the setup",
	}
}

// githubPageProvisioner keeps a CNAME marker per subdomain and points DNS at
// <githubUsername>.github.io.
type githubPageProvisioner struct {
	repo     repository.GithubPageRepository
	host     RepoHost
	dns      DNSRecords
	markers  *hostfs.Files
	validate *validator.Validate
	domain   string
}

func (p *githubPageProvisioner) Kind() model.ResourceKind       { return model.KindGithubPage }
func (p *githubPageProvisioner) Noun() string                   { return "GitHub page" }
func (p *githubPageProvisioner) Title() string                  { return "GitHub page" }
func (p *githubPageProvisioner) KeyLabel() string               { return "Subdomain" }
func (p *githubPageProvisioner) Key(in GithubPageCreate) string { return in.Subdomain }

func (p *githubPageProvisioner) Describe(rec *model.GithubPage) (uuid.UUID, string) {
	return rec.ID, rec.Subdomain
}

func (p *githubPageProvisioner) customDomain(subdomain string) string {
	return subdomain + "." + p.domain
}

func pagesTarget(owner string) string {
	return strings.ToLower(owner) + ".github.io"
}

func (p *githubPageProvisioner) ValidateCreate(in GithubPageCreate) error {
	return check(p.validate, in)
}

func (p *githubPageProvisioner) Taken(ctx context.Context, key string) (bool, error) {
	return p.repo.KeyExists(ctx, key)
}

func (p *githubPageProvisioner) repositoryExists(ctx context.Context, owner, repo string) error {
	if err := p.host.RepositoryExists(ctx, owner, repo); err != nil {
		return &apperr.Error{Kind: apperr.ErrRepositoryNotFound, Message: "GitHub repository not found or not accessible", Err: err}
	}
	return nil
}

func (p *githubPageProvisioner) ApplyCreate(ctx context.Context, in GithubPageCreate) (provision.Effect, error) {
	if err := p.repositoryExists(ctx, in.GithubUsername, in.Repository); err != nil {
		return provision.Effect{}, err
	}

	name := in.Subdomain
	prev, err := p.markers.Read(name)
	if err != nil {
		return provision.Effect{}, err
	}
	if err := p.markers.Write(name, []byte(p.customDomain(name))); err != nil {
		return provision.Effect{}, err
	}
	p.dns.Point(ctx, name, pagesTarget(in.GithubUsername))

	eff := provision.Effect{
		Rollback: func(ctx context.Context) error {
			p.dns.Remove(ctx, name)
			return p.markers.Restore(name, prev)
		},
	}
	if prev == nil {
		eff.Artifacts = []string{p.markers.Path(name)}
	}
	return eff, nil
}

func (p *githubPageProvisioner) PersistCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, in GithubPageCreate) (*model.GithubPage, error) {
	page := &model.GithubPage{
		UserID:         userID,
		Subdomain:      in.Subdomain,
		GithubUsername: in.GithubUsername,
		Repository:     in.Repository,
		CustomDomain:   p.customDomain(in.Subdomain),
		IsActive:       true,
	}
	if err := p.repo.WithTx(tx).Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (p *githubPageProvisioner) Load(ctx context.Context, id, userID uuid.UUID) (*model.GithubPage, error) {
	return p.repo.GetOwned(ctx, id, userID)
}

func (p *githubPageProvisioner) ValidateUpdate(in GithubPageUpdate) error {
	return check(p.validate, in)
}

func target(cur *model.GithubPage, in GithubPageUpdate) (owner, repo string) {
	owner, repo = cur.GithubUsername, cur.Repository
	if in.GithubUsername != nil {
		owner = strings.TrimSpace(*in.GithubUsername)
	}
	if in.Repository != nil {
		repo = strings.TrimSpace(*in.Repository)
	}
	return owner, repo
}

// ApplyUpdate re-checks the repository and re-points DNS when the target
// repository changes.
func (p *githubPageProvisioner) ApplyUpdate(ctx context.Context, cur *model.GithubPage, in GithubPageUpdate) (provision.Effect, error) {
	owner, repo := target(cur, in)
	if owner == cur.GithubUsername && repo == cur.Repository {
		return provision.Effect{}, nil
	}
	if err := p.repositoryExists(ctx, owner, repo); err != nil {
		return provision.Effect{}, err
	}
	if pagesTarget(owner) == pagesTarget(cur.GithubUsername) {
		return provision.Effect{}, nil
	}

	name, previous := cur.Subdomain, pagesTarget(cur.GithubUsername)
	p.dns.Point(ctx, name, pagesTarget(owner))
	return provision.Effect{
		Rollback: func(ctx context.Context) error {
			p.dns.Point(ctx, name, previous)
			return nil
		},
	}, nil
}

func (p *githubPageProvisioner) PersistUpdate(ctx context.Context, tx *gorm.DB, cur *model.GithubPage, in GithubPageUpdate) error {
	owner, repo := target(cur, in)
	if owner != cur.GithubUsername || repo != cur.Repository {
		cur.GithubUsername, cur.Repository = owner, repo
		cur.IsVerified = false
	}
	if in.IsActive != nil {
		cur.IsActive = *in.IsActive
	}
	return p.repo.WithTx(tx).Save(ctx, cur)
}

func (p *githubPageProvisioner) ApplyDelete(ctx context.Context, cur *model.GithubPage) (provision.Effect, error) {
	name, owner := cur.Subdomain, cur.GithubUsername
	prev, err := p.markers.Read(name)
	if err != nil {
		return provision.Effect{}, err
	}
	if err := p.markers.Remove(name); err != nil {
		return provision.Effect{}, err
	}
	p.dns.Remove(ctx, name)
	return provision.Effect{
		Rollback: func(ctx context.Context) error {
			p.dns.Point(ctx, name, pagesTarget(owner))
			return p.markers.Restore(name, prev)
		},
	}, nil
}

func (p *githubPageProvisioner) PersistDelete(ctx context.Context, tx *gorm.DB, cur *model.GithubPage) error {
	return p.repo.WithTx(tx).Delete(ctx, cur)
}
