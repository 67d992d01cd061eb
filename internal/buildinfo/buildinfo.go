// Package buildinfo хранит сведения о сборке: версию, дату и commit.
// Значения задаются при сборке через -ldflags и используются в заголовке
// User-Agent исходящих запросов и в ответе /version.
package buildinfo

import "fmt"

// Значения подставляются при сборке:
//
//	go build -ldflags "-X github.com/InQaaaaGit/tweet_embed/internal/buildinfo.Version=v1.2.0"
var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// Info содержит информацию о сборке приложения
type Info struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// Current возвращает информацию о текущей сборке
func Current() Info {
	return Info{
		Version: Version,
		Date:    Date,
		Commit:  Commit,
	}
}

// String возвращает строковое представление информации о сборке
func (info Info) String() string {
	return fmt.Sprintf("Version: %s, Date: %s, Commit: %s", info.Version, info.Date, info.Commit)
}

// UserAgent возвращает значение заголовка User-Agent для запросов к провайдеру
func (info Info) UserAgent() string {
	version := info.Version
	if version == "" || version == "N/A" {
		version = "dev"
	}
	return "tweet-embed/" + version
}
