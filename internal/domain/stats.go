package domain

type RegionStats struct {
	Name            string `db:"name" json:"name"`
	NumberCountries int64  `db:"number_countries" json:"number_countries"`
	TotalPopulation int64  `db:"total_population" json:"total_population"`
}

type PageMeta struct {
	TotalRegions int64 `json:"total_regions"`
	Page         int   `json:"page"`
	TotalPages   int   `json:"total_pages"`
	PerPage      int   `json:"per_page"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
}

// RegionStatsPage is one page of the per-region aggregate.
type RegionStatsPage struct {
	Regions []RegionStats `json:"regions"`
	Meta    PageMeta      `json:"meta"`
}

// NewPageMeta computes pagination metadata. An empty result still has one page.
func NewPageMeta(total int64, page, perPage int) PageMeta {
	totalPages := 1
	if perPage > 0 && total > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return PageMeta{
		TotalRegions: total,
		Page:         page,
		TotalPages:   totalPages,
		PerPage:      perPage,
		HasNext:      page < totalPages,
		HasPrevious:  page > 1,
	}
}
