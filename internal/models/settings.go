package models

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type PanelPosition string

const (
	PanelAuto  PanelPosition = "auto"
	PanelLeft  PanelPosition = "left"
	PanelRight PanelPosition = "right"
)

// Settings are the user preferences.
type Settings struct {
	TargetLanguage    string        `json:"targetLanguage"`
	DefaultDictionary Source        `json:"defaultDictionary"`
	AutoPronunciation bool          `json:"autoPronunciation"`
	Theme             Theme         `json:"theme"`
	PanelPosition     PanelPosition `json:"panelPosition"`
	ShowFloatingIcon  bool          `json:"showFloatingIcon"`
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		TargetLanguage:    "vi",
		DefaultDictionary: SourceGoogle,
		AutoPronunciation: false,
		Theme:             ThemeLight,
		PanelPosition:     PanelAuto,
		ShowFloatingIcon:  true,
	}
}
