// Package i18n is the in-repo localization dictionary used for labels the
// browse service renders itself.
package i18n

// DefaultLanguage is used when a lookup names an unknown language.
const DefaultLanguage = "uk"

// Message keys.
const (
	KeyPriceFrom = "price_from"
	KeyPriceTo   = "price_to"
	KeyBrand     = "brand"
	KeyInStock   = "in_stock"
	KeyCurrency  = "currency"
)

// Translator looks up a string by language and key.
type Translator interface {
	T(lang, key string) string
}

// Dictionary is a static Translator.
type Dictionary map[string]map[string]string

var _ Translator = Dictionary(nil)

// T returns the string for key in lang, falling back to DefaultLanguage and
// then to key itself.
func (d Dictionary) T(lang, key string) string {
	if s, ok := d[lang][key]; ok {
		return s
	}
	if s, ok := d[DefaultLanguage][key]; ok {
		return s
	}
	return key
}

// Default returns the dictionary shipped with the service.
func Default() Dictionary {
	return Dictionary{
		"uk": {
			KeyPriceFrom: "Ціна від",
			KeyPriceTo:   "Ціна до",
			KeyBrand:     "Бренд",
			KeyInStock:   "Тільки в наявності",
			KeyCurrency:  "₴",
		},
		"ru": {
			KeyPriceFrom: "Цена от",
			KeyPriceTo:   "Цена до",
			KeyBrand:     "Бренд",
			KeyInStock:   "Только в наличии",
			KeyCurrency:  "₴",
		},
		"en": {
			KeyPriceFrom: "Price from",
			KeyPriceTo:   "Price to",
			KeyBrand:     "Brand",
			KeyInStock:   "In stock only",
			KeyCurrency:  "UAH",
		},
	}
}
