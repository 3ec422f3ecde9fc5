package services

import "github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"

// ProjectStats shapes a link and its clicks into the reporting view.
// Detail order follows clicks.
func ProjectStats(link *domain.Link, clicks []domain.Click) domain.StatsView {
	details := make([]domain.ClickDetail, 0, len(clicks))
	for _, c := range clicks {
		details = append(details, domain.ClickDetail{
			Timestamp: c.Timestamp.UTC(),
			Source:    c.Source,
			Geo:       c.Geo,
		})
	}

	return domain.StatsView{
		TotalClicks: int64(len(clicks)),
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt.UTC(),
		ExpiresAt:   link.ExpiresAt.UTC(),
		Clicks:      details,
	}
}
