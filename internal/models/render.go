package models

import (
	"fmt"
	"strings"
)

// Mode - способ представления embed-кода.
type Mode int

const (
	// ModeDataURI - iframe, документ которого закодирован в data: URI атрибута src.
	ModeDataURI Mode = iota
	// ModeSrcDoc - iframe с документом в атрибуте srcdoc.
	ModeSrcDoc
	// ModeBlockquote - исходная разметка провайдера без скриптов.
	ModeBlockquote
)

var modeNames = map[Mode]string{
	ModeDataURI:    "dataUri",
	ModeSrcDoc:     "srcDoc",
	ModeBlockquote: "blockquote",
}

// String возвращает имя режима в том виде, в каком его передаёт клиент.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode разбирает имя режима без учёта регистра.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// MarshalText реализует encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("unknown render mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// RenderConfig - настройки генерации embed-кода, передаются в каждый вызов.
type RenderConfig struct {
	Mode          Mode `json:"mode"`
	DefaultHeight int  `json:"default_height"`
	RemoveBorder  bool `json:"remove_border"`
	HideOverflow  bool `json:"hide_overflow"`
	Sandbox       bool `json:"sandbox"`
}

// URLInputType - одиночный URL или список URL построчно.
type URLInputType string

const (
	InputSingle   URLInputType = "single"
	InputMultiple URLInputType = "multiple"
)

// Options - настройки в том виде, в каком их присылает форма клиента.
type Options struct {
	URLInputType   URLInputType `json:"urlInputType"`
	BlockQuoteMode bool         `json:"blockQuoteMode"`
	IframeType     string       `json:"iframeType"`
	DefaultHeight  int          `json:"defaultHeight"`
	RemoveBorder   bool         `json:"removeBorder"`
	Sandbox        bool         `json:"sandbox"`
	HideOverflow   bool         `json:"hideOverflow"`
	Params         OEmbedParams `json:"params"`
	NoCache        bool         `json:"noCache"`
}

// RenderConfig собирает настройки генератора. Режим blockquote важнее типа iframe;
// пустой тип iframe означает data: URI, нулевая высота - fallbackHeight.
func (o Options) RenderConfig(fallbackHeight int) (RenderConfig, error) {
	rc := RenderConfig{
		Mode:          ModeDataURI,
		DefaultHeight: o.DefaultHeight,
		RemoveBorder:  o.RemoveBorder,
		HideOverflow:  o.HideOverflow,
		Sandbox:       o.Sandbox,
	}
	if rc.DefaultHeight <= 0 {
		rc.DefaultHeight = fallbackHeight
	}

	switch {
	case o.BlockQuoteMode:
		rc.Mode = ModeBlockquote
	case o.IframeType != "":
		mode, err := ParseMode(o.IframeType)
		if err != nil {
			return RenderConfig{}, err
		}
		rc.Mode = mode
	}
	return rc, nil
}
