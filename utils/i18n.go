package utils

import (
	"io/fs"
	"path"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// SupportedLanguages lists the locales shipped in locales/.
var SupportedLanguages = []string{"en", "ja"}

var (
	// Bundle is the global translation bundle
	Bundle *i18n.Bundle
	// Localizer is the default (English) localizer
	Localizer *i18n.Localizer

	i18nMu sync.RWMutex
)

func init() {
	Bundle = i18n.NewBundle(language.English)
	Bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	Localizer = i18n.NewLocalizer(Bundle, language.English.String())
}

// InitI18n loads active.<lang>.toml for every supported language from fsys.
// Messages missing from the files fall back to the English defaults in messages.go.
func InitI18n(fsys fs.FS) error {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range SupportedLanguages {
		name := "active." + lang + ".toml"
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			Log.Warn("Failed to read %s locale: %v", lang, err)
			continue
		}
		if _, err := bundle.ParseMessageFileBytes(data, path.Base(name)); err != nil {
			Log.Warn("Failed to parse %s locale: %v", lang, err)
		}
	}

	i18nMu.Lock()
	Bundle = bundle
	Localizer = i18n.NewLocalizer(bundle, language.English.String())
	i18nMu.Unlock()

	Log.Info("i18n system initialized (%d languages)", len(SupportedLanguages))
	return nil
}

// GetLocalizer returns a localizer for the specified language
func GetLocalizer(lang string) *i18n.Localizer {
	if lang == "" {
		lang = "en"
	}
	i18nMu.RLock()
	defer i18nMu.RUnlock()
	return i18n.NewLocalizer(Bundle, lang)
}

func orDefault(localizer *i18n.Localizer) *i18n.Localizer {
	if localizer != nil {
		return localizer
	}
	i18nMu.RLock()
	defer i18nMu.RUnlock()
	return Localizer
}

// T translates msg, falling back to its English default.
func T(localizer *i18n.Localizer, msg *i18n.Message) string {
	return TWithData(localizer, msg, nil)
}

// TWithData translates msg with template data
func TWithData(localizer *i18n.Localizer, msg *i18n.Message, data map[string]interface{}) string {
	out, err := orDefault(localizer).Localize(&i18n.LocalizeConfig{
		DefaultMessage: msg,
		TemplateData:   data,
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", msg.ID, err)
		if out != "" {
			return out
		}
		return msg.Other
	}
	return out
}

// TPlural translates msg with plural support
func TPlural(localizer *i18n.Localizer, msg *i18n.Message, count int) string {
	out, err := orDefault(localizer).Localize(&i18n.LocalizeConfig{
		DefaultMessage: msg,
		PluralCount:    count,
		TemplateData: map[string]interface{}{
			"Count": count,
		},
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", msg.ID, err)
		if out != "" {
			return out
		}
		return msg.Other
	}
	return out
}
