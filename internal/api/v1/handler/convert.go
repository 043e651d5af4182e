package handler

import (
	"sriox/internal/api/v1/dto"
	"sriox/internal/model"
)

func toUserDTO(u *model.User, sub *model.Subscription) dto.UserDTO {
	out := dto.UserDTO{
		ID:         u.ID.String(),
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
	}
	if sub != nil {
		s := toSubscriptionDTO(sub)
		out.Subscription = &s
	}
	return out
}

func toPlanDTO(p *model.Plan) dto.PlanDTO {
	return dto.PlanDTO{
		ID:                  p.ID.String(),
		Name:                p.Name,
		MaxSubdomains:       p.MaxSubdomains,
		MaxRedirects:        p.MaxRedirects,
		MaxGithubPages:      p.MaxGithubPages,
		MaxUploadSize:       p.MaxUploadSize,
		AllowCustomBranding: p.AllowCustomBranding,
		Price:               p.Price,
	}
}

func toSubscriptionDTO(s *model.Subscription) dto.SubscriptionDTO {
	return dto.SubscriptionDTO{
		ID:              s.ID.String(),
		Status:          string(s.Status),
		Plan:            toPlanDTO(&s.Plan),
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		NextPaymentDate: s.NextPaymentDate,
	}
}

func owner(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func toSiteDTO(s *model.Site, url string) dto.SiteDTO {
	return dto.SiteDTO{
		ID:        s.ID.String(),
		Subdomain: s.Subdomain,
		URL:       url,
		Size:      s.Size,
		IsActive:  s.IsActive,
		Owner:     owner(s.User),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toRedirectDTO(r *model.Redirect, url string) dto.RedirectDTO {
	return dto.RedirectDTO{
		ID:        r.ID.String(),
		Name:      r.Name,
		TargetURL: r.TargetURL,
		URL:       url,
		IsActive:  r.IsActive,
		Owner:     owner(r.User),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toGithubPageDTO(g *model.GithubPage) dto.GithubPageDTO {
	return dto.GithubPageDTO{
		ID:             g.ID.String(),
		Subdomain:      g.Subdomain,
		GithubUsername: g.GithubUsername,
		Repository:     g.Repository,
		CustomDomain:   g.CustomDomain,
		IsVerified:     g.IsVerified,
		IsActive:       g.IsActive,
		Owner:          owner(g.User),
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}
