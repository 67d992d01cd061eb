package models

// EmbedRequest - тело запроса POST /api/embed.
type EmbedRequest struct {
	URL     string  `json:"url"`
	Options Options `json:"options"`
}

// EmbedResponse - ответ на одиночную генерацию.
type EmbedResponse struct {
	Code string `json:"code"`
	Mode string `json:"mode"`
}

// BatchRequest - тело запроса пакетной генерации. URL можно передать
// списком или одной строкой с переводами строк.
type BatchRequest struct {
	URLs    []string `json:"urls"`
	Text    string   `json:"text"`
	Options Options  `json:"options"`
}

// BatchResponse - итог пакетной генерации.
type BatchResponse struct {
	Output string     `json:"output"`
	Rows   []BatchRow `json:"rows"`
	Failed int        `json:"failed"`
}
