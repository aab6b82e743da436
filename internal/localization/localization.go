package localization

import (
	"embed"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
)

const (
	MsgInStock                      = "InStock"
	MsgInStockWithQuantity          = "InStockWithQuantity"
	MsgOutOfStock                   = "OutOfStock"
	MsgBackordering                 = "Backordering"
	MsgAttributeCombinationNotExist = "AttributeCombinationNotExist"
)

//go:embed active.*.yaml
var messageFiles embed.FS

var DefaultLanguage = language.English

func NewBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	if _, err := bundle.LoadMessageFileFS(messageFiles, "active.en.yaml"); err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}

	return bundle, nil
}

// Localize resolves id for lang, falling back to the default language. The
// message id itself is returned when no translation exists.
func Localize(bundle *i18n.Bundle, lang, id string, data map[string]interface{}) string {
	localizer := i18n.NewLocalizer(bundle, lang, DefaultLanguage.String())

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}

	return msg
}
