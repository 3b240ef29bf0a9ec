package models

// Banner представляет рекламный баннер главной страницы.
// Покупателям отдаются только активные баннеры, полный список
// видят администраторы.
type Banner struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	LinkURL  *string `json:"link_url,omitempty"`
	IsActive bool    `json:"is_active"`
}

// BannerPatch — частичное обновление баннера: применяются только заполненные поля.
type BannerPatch struct {
	Title    *string
	ImageURL *string
	LinkURL  *string
	IsActive *bool
}
