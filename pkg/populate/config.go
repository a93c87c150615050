package populate

import (
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/prefs"
)

// FieldsFromConfig maps configured field names, falling back to the defaults
// for any left empty.
func FieldsFromConfig(cfg *config.Config) Fields {
	def := DefaultFields()
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	set := func(c config.ConfigFieldSet, d FieldSet) FieldSet {
		return FieldSet{
			Title:    pick(c.Title, d.Title),
			Image:    pick(c.Image, d.Image),
			Category: pick(c.Category, d.Category),
		}
	}
	return Fields{
		Products: set(cfg.Render.Fields.Products, def.Products),
		Gallery:  set(cfg.Render.Fields.Gallery, def.Gallery),
	}
}

// ConfigOptions returns the controller options implied by cfg.
func ConfigOptions(cfg *config.Config, store prefs.Store, handler events.Handler) []Option {
	return []Option{
		WithFields(FieldsFromConfig(cfg)),
		WithTitle(cfg.Site.Title),
		WithStore(store),
		WithEvents(handler),
	}
}
