package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"sriox/internal/apperr"
	"sriox/internal/hostfs"
	"sriox/internal/model"
	"sriox/internal/provision"
	"sriox/internal/repository"
	"sriox/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// An archive may expand to this many times its upload limit.
const extractionFactor = 10

// SiteUpload is a new site archive for a subdomain.
type SiteUpload struct {
	Subdomain string      `json:"subdomain" validate:"required,subdomain"`
	Filename  string      `json:"siteZip" validate:"required"`
	Archive   io.ReaderAt `json:"-" validate:"-"`
	Size      int64       `json:"-" validate:"-"`

	maxExtract int64
	staged     *hostfs.Staged
	live       string
}

// SiteUpdate replaces the content of a site and/or toggles it. Archive is
// optional.
type SiteUpdate struct {
	Filename string      `json:"siteZip"`
	Archive  io.ReaderAt `json:"-" validate:"-"`
	Size     int64       `json:"-" validate:"-"`
	IsActive *bool       `json:"isActive"`

	maxExtract int64
	newSize    int64
}

type SiteService interface {
	Upload(ctx context.Context, userID uuid.UUID, in *SiteUpload) (*model.Site, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Site, error)
	// GetPublic returns an active site with its owner.
	GetPublic(ctx context.Context, subdomain string) (*model.Site, error)
	Update(ctx context.Context, id, userID uuid.UUID, in *SiteUpdate) (*model.Site, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	URL(site *model.Site) string
}

type siteService struct {
	repo     repository.SiteRepository
	p        *siteProvisioner
	workflow *provision.Workflow[*SiteUpload, *SiteUpdate, model.Site]
	domain   string
	logger   zerolog.Logger
}

func NewSiteService(
	repo repository.SiteRepository,
	subs repository.SubscriptionRepository,
	tree *hostfs.Tree,
	archives storage.ArchiveStore,
	validate *validator.Validate,
	domain string,
	deps provision.Deps,
) SiteService {
	logger := deps.Logger.With().Str("service", "SiteService").Logger()
	p := &siteProvisioner{repo: repo, subs: subs, tree: tree, archives: archives, validate: validate, logger: logger}
	return &siteService{
		repo:     repo,
		p:        p,
		workflow: provision.New[*SiteUpload, *SiteUpdate, model.Site](p, deps),
		domain:   domain,
		logger:   logger,
	}
}

func (s *siteService) Upload(ctx context.Context, userID uuid.UUID, in *SiteUpload) (*model.Site, error) {
	in.Subdomain = normalizeKey(in.Subdomain)
	if in.Archive == nil {
		return nil, apperr.New(apperr.ErrInvalidInput, "Please upload a zip file")
	}
	limit, err := s.p.checkArchive(ctx, userID, in.Filename, in.Size)
	if err != nil {
		return nil, err
	}
	in.maxExtract = limit * extractionFactor
	return s.workflow.Create(ctx, userID, in)
}

func (s *siteService) List(ctx context.Context, userID uuid.UUID) ([]model.Site, error) {
	sites, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list sites")
		return nil, apperr.Internal("Error fetching sites", err)
	}
	return sites, nil
}

func (s *siteService) GetPublic(ctx context.Context, subdomain string) (*model.Site, error) {
	site, err := s.repo.GetActiveByKey(ctx, normalizeKey(subdomain))
	if err != nil {
		return nil, apperr.Internal("Error fetching site", err)
	}
	if site == nil {
		return nil, apperr.New(apperr.ErrNotFoundOrForbidden, "Site not found")
	}
	return site, nil
}

func (s *siteService) Update(ctx context.Context, id, userID uuid.UUID, in *SiteUpdate) (*model.Site, error) {
	return s.workflow.Update(ctx, id, userID, in)
}

func (s *siteService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.workflow.Delete(ctx, id, userID)
}

func (s *siteService) URL(site *model.Site) string {
	return "https://" + site.Subdomain + "." + s.domain
}

// checkArchive applies the plan's upload limit and returns it.
func (p *siteProvisioner) checkArchive(ctx context.Context, userID uuid.UUID, filename string, size int64) (int64, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".zip") {
		return 0, apperr.New(apperr.ErrInvalidInput, "Only .zip files are allowed")
	}
	sub, err := p.subs.GetActiveSubscription(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("Error checking subscription", err)
	}
	if sub == nil {
		return 0, apperr.New(apperr.ErrNoActiveSubscription, "No active subscription found")
	}
	if size > sub.Plan.MaxUploadSize {
		return 0, apperr.Newf(apperr.ErrInvalidInput, "File too large. Maximum size is %dMB", sub.Plan.MaxUploadSize>>20)
	}
	return sub.Plan.MaxUploadSize, nil
}

// siteProvisioner extracts archives into <sites>/<subdomain>.
type siteProvisioner struct {
	repo     repository.SiteRepository
	subs     repository.SubscriptionRepository
	tree     *hostfs.Tree
	archives storage.ArchiveStore
	validate *validator.Validate
	logger   zerolog.Logger
}

func (p *siteProvisioner) Kind() model.ResourceKind  { return model.KindSite }
func (p *siteProvisioner) Noun() string              { return "site" }
func (p *siteProvisioner) Title() string             { return "Site" }
func (p *siteProvisioner) KeyLabel() string          { return "Subdomain" }
func (p *siteProvisioner) Key(in *SiteUpload) string { return in.Subdomain }

func (p *siteProvisioner) Describe(rec *model.Site) (uuid.UUID, string) {
	return rec.ID, rec.Subdomain
}

func (p *siteProvisioner) ValidateCreate(in *SiteUpload) error {
	return check(p.validate, in)
}

func (p *siteProvisioner) Taken(ctx context.Context, key string) (bool, error) {
	return p.repo.KeyExists(ctx, key)
}

func (p *siteProvisioner) stage(in io.ReaderAt, size, maxExtract int64) (*hostfs.Staged, error) {
	staged, err := p.tree.Stage(in, size, maxExtract)
	switch {
	case err == nil:
		return staged, nil
	case errors.Is(err, hostfs.ErrMissingIndex):
		return nil, apperr.New(apperr.ErrMissingIndexDocument, "index.html not found in the root of the zip file")
	case errors.Is(err, hostfs.ErrUnsafePath):
		return nil, apperr.New(apperr.ErrInvalidInput, "Zip file contains invalid paths")
	case errors.Is(err, hostfs.ErrArchiveTooBig):
		return nil, apperr.New(apperr.ErrInvalidInput, "Extracted site is too large")
	case errors.Is(err, zip.ErrFormat), errors.Is(err, zip.ErrAlgorithm), errors.Is(err, zip.ErrChecksum):
		return nil, apperr.New(apperr.ErrInvalidInput, "Invalid zip file")
	}
	return nil, err
}

func (p *siteProvisioner) ApplyCreate(ctx context.Context, in *SiteUpload) (provision.Effect, error) {
	staged, err := p.stage(in.Archive, in.Size, in.maxExtract)
	if err != nil {
		return provision.Effect{}, err
	}
	live, err := p.tree.Install(staged, in.Subdomain)
	if errors.Is(err, hostfs.ErrExists) {
		return provision.Effect{}, apperr.New(apperr.ErrNameTaken, "Subdomain is already taken")
	}
	if err != nil {
		return provision.Effect{}, err
	}
	in.staged, in.live = staged, live

	return provision.Effect{
		Rollback: func(ctx context.Context) error { return p.tree.Remove(live) },
		Commit: func(ctx context.Context) error {
			return p.archives.PutArchive(ctx, in.Subdomain, io.NewSectionReader(in.Archive, 0, in.Size), in.Size)
		},
		Artifacts: []string{live},
	}, nil
}

func (p *siteProvisioner) PersistCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, in *SiteUpload) (*model.Site, error) {
	site := &model.Site{
		UserID:    userID,
		Subdomain: in.Subdomain,
		Path:      in.live,
		Size:      in.staged.Size,
		IsActive:  true,
	}
	if err := p.repo.WithTx(tx).Create(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

func (p *siteProvisioner) Load(ctx context.Context, id, userID uuid.UUID) (*model.Site, error) {
	return p.repo.GetOwned(ctx, id, userID)
}

func (p *siteProvisioner) ValidateUpdate(in *SiteUpdate) error {
	return check(p.validate, in)
}

// ApplyUpdate swaps in the new tree only once it has been fully extracted
// and checked, so a rejected archive leaves the live site untouched. The
// upload limit is the owner's, checked after ownership.
func (p *siteProvisioner) ApplyUpdate(ctx context.Context, cur *model.Site, in *SiteUpdate) (provision.Effect, error) {
	if in.Archive == nil {
		return provision.Effect{}, nil
	}
	limit, err := p.checkArchive(ctx, cur.UserID, in.Filename, in.Size)
	if err != nil {
		return provision.Effect{}, err
	}
	in.maxExtract = limit * extractionFactor
	staged, err := p.stage(in.Archive, in.Size, in.maxExtract)
	if err != nil {
		return provision.Effect{}, err
	}
	backup, err := p.tree.Replace(staged, cur.Subdomain)
	if err != nil {
		return provision.Effect{}, err
	}
	in.newSize = staged.Size
	name := cur.Subdomain

	return provision.Effect{
		Rollback: func(ctx context.Context) error { return p.tree.Restore(backup, name) },
		Commit: func(ctx context.Context) error {
			if err := p.tree.Remove(backup); err != nil {
				return err
			}
			return p.archives.PutArchive(ctx, name, io.NewSectionReader(in.Archive, 0, in.Size), in.Size)
		},
	}, nil
}

func (p *siteProvisioner) PersistUpdate(ctx context.Context, tx *gorm.DB, cur *model.Site, in *SiteUpdate) error {
	if in.Archive != nil {
		cur.Size = in.newSize
		cur.Path = p.tree.Dir(cur.Subdomain)
	}
	if in.IsActive != nil {
		cur.IsActive = *in.IsActive
	}
	return p.repo.WithTx(tx).Save(ctx, cur)
}

func (p *siteProvisioner) ApplyDelete(ctx context.Context, cur *model.Site) (provision.Effect, error) {
	name := cur.Subdomain
	aside, err := p.tree.Trash(name)
	if err != nil {
		return provision.Effect{}, fmt.Errorf("remove site %s: %w", name, err)
	}
	return provision.Effect{
		Rollback: func(ctx context.Context) error { return p.tree.Restore(aside, name) },
		Commit: func(ctx context.Context) error {
			if err := p.tree.Remove(aside); err != nil {
				return err
			}
			return p.archives.DeleteArchive(ctx, name)
		},
	}, nil
}

func (p *siteProvisioner) PersistDelete(ctx context.Context, tx *gorm.DB, cur *model.Site) error {
	return p.repo.WithTx(tx).Delete(ctx, cur)
}
