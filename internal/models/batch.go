package models

// BatchRow - результат обработки одного URL в пакете. Code пуст при ошибке.
type BatchRow struct {
	URL   string `json:"url"`
	Code  string `json:"code"`
	Error string `json:"error,omitempty"`
}

// Failed сообщает, завершилась ли обработка строки ошибкой.
func (r BatchRow) Failed() bool {
	return r.Error != ""
}
