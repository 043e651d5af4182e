package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"sriox/internal/api/v1/dto"
	"sriox/internal/api/v1/operation"
	"sriox/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	// Hard cap on a multipart request. Plan limits are applied by the service.
	maxRequestBytes = 64 << 20
	// Parts beyond this are spooled to temporary files.
	multipartMemory = 8 << 20

	archiveField = "siteZip"
)

// SiteHandler serves site operations. Upload and update read multipart
// bodies and are mounted as raw chi handlers.
type SiteHandler struct {
	siteService service.SiteService
	logger      zerolog.Logger
}

func NewSiteHandler(siteService service.SiteService, logger zerolog.Logger) *SiteHandler {
	return &SiteHandler{
		siteService: siteService,
		logger:      logger.With().Str("handler", "SiteHandler").Logger(),
	}
}

// Upload deploys a zip archive to a new subdomain
func (h *SiteHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	form, err := h.parseForm(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer form.RemoveAll()

	in := &service.SiteUpload{Subdomain: r.FormValue("subdomain")}
	file, header, err := archive(form)
	if err != nil {
		writeError(w, err)
		return
	}
	if file != nil {
		defer file.Close()
		in.Filename = header.Filename
		in.Archive = file
		in.Size = header.Size
	}

	site, err := h.siteService.Upload(r.Context(), userID, in)
	if err != nil {
		writeError(w, serviceError(err))
		return
	}

	writeJSON(w, http.StatusCreated, dto.SiteResponseDTO{
		Success: true,
		Message: "Site uploaded and deployed successfully",
		Site:    toSiteDTO(site, h.siteService.URL(site)),
	})
}

// Update replaces a site's content and/or toggles it. Accepts multipart with
// optional siteZip and isActive fields, or a JSON {"isActive": bool} body.
func (h *SiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := parseID(chi.URLParam(r, "id"), "Site")
	if err != nil {
		writeError(w, err)
		return
	}

	in := &service.SiteUpdate{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			IsActive *bool `json:"isActive"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
			writeError(w, huma.Error400BadRequest("Invalid JSON body"))
			return
		}
		in.IsActive = body.IsActive
	} else {
		form, err := h.parseForm(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		defer form.RemoveAll()

		if raw := r.FormValue("isActive"); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, huma.Error400BadRequest("isActive must be a boolean"))
				return
			}
			in.IsActive = &active
		}
		file, header, err := archive(form)
		if err != nil {
			writeError(w, err)
			return
		}
		if file != nil {
			defer file.Close()
			in.Filename = header.Filename
			in.Archive = file
			in.Size = header.Size
		}
	}

	site, err := h.siteService.Update(r.Context(), id, userID, in)
	if err != nil {
		writeError(w, serviceError(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.SiteResponseDTO{
		Success: true,
		Message: "Site updated successfully",
		Site:    toSiteDTO(site, h.siteService.URL(site)),
	})
}

func (h *SiteHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, huma.Error400BadRequest("File too large")
		}
		h.logger.Debug().Err(err).Msg("Rejected multipart body")
		return nil, huma.Error400BadRequest("Invalid multipart form")
	}
	return r.MultipartForm, nil
}

// archive opens the uploaded zip, if any.
func archive(form *multipart.Form) (multipart.File, *multipart.FileHeader, error) {
	headers := form.File[archiveField]
	if len(headers) == 0 {
		return nil, nil, nil
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, nil, huma.Error500InternalServerError("Error reading upload", err)
	}
	return file, headers[0], nil
}

// ListSites returns the caller's sites
func (h *SiteHandler) ListSites(ctx context.Context, input *operation.ListSitesInput) (*operation.ListSitesOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sites, err := h.siteService.List(ctx, userID)
	if err != nil {
		return nil, serviceError(err)
	}

	out := make([]dto.SiteDTO, 0, len(sites))
	for i := range sites {
		out = append(out, toSiteDTO(&sites[i], h.siteService.URL(&sites[i])))
	}
	return &operation.ListSitesOutput{
		Body: dto.SiteListResponseDTO{Success: true, Count: len(out), Sites: out},
	}, nil
}

// GetSite returns an active site by subdomain. No authentication required.
func (h *SiteHandler) GetSite(ctx context.Context, input *operation.GetSiteInput) (*operation.GetSiteOutput, error) {
	site, err := h.siteService.GetPublic(ctx, input.Subdomain)
	if err != nil {
		return nil, serviceError(err)
	}
	return &operation.GetSiteOutput{
		Body: dto.SiteResponseDTO{Success: true, Site: toSiteDTO(site, h.siteService.URL(site))},
	}, nil
}

// DeleteSite removes a site and its files
func (h *SiteHandler) DeleteSite(ctx context.Context, input *operation.DeleteSiteInput) (*operation.DeleteSiteOutput, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(input.ID, "Site")
	if err != nil {
		return nil, err
	}

	if err := h.siteService.Delete(ctx, id, userID); err != nil {
		return nil, serviceError(err)
	}
	return &operation.DeleteSiteOutput{
		Body: dto.MessageResponseDTO{Success: true, Message: "Site deleted successfully"},
	}, nil
}
