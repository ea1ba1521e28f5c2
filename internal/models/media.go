package models

// Media — публикуемый материал портала: статья, видео, баннер или оповещение.
type Media struct {
	ID          string   `json:"_id"`                // Идентификатор материала
	Title       string   `json:"title"`              // Заголовок
	Description string   `json:"description"`        // Краткое описание
	Type        string   `json:"type"`               // Тип: article, video, banner, update, alert
	Content     string   `json:"content,omitempty"`  // Текстовое содержимое
	MediaURL    string   `json:"mediaUrl,omitempty"`  // Ссылка на загруженный файл
	Tags        []string `json:"tags,omitempty"`     // Теги
	IsPublished bool     `json:"isPublished"`        // Опубликован ли материал
	IsBroadcast bool     `json:"isBroadcast"`        // Показывается ли в рассылке обновлений
	ViewCount   int      `json:"viewCount,omitempty"` // Количество просмотров
	CreatedAt   string   `json:"createdAt,omitempty"` // Дата создания
}

// MediaPage — страница списка материалов с данными пагинации.
type MediaPage struct {
	Media       []Media `json:"media"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
	Total       int     `json:"total"`
}
