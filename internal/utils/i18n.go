package utils

// Server-side strings only: API error messages shown by the site as-is.
var translations = map[string]map[string]string{
	"ru": {
		"health.ok":          "ок",
		"error.generic":      "Не удалось обработать запрос, попробуйте позже",
		"error.invalid":      "Проверьте заполнение полей",
		"error.unauthorized": "Требуется авторизация",
		"lead.accepted":      "Спасибо! Мы свяжемся с вами в ближайшее время",
	},
	"en": {
		"health.ok":          "ok",
		"error.generic":      "Something went wrong, please try again later",
		"error.invalid":      "Please check the submitted fields",
		"error.unauthorized": "Authorization required",
		"lead.accepted":      "Thank you! We will contact you shortly",
	},
}

// T returns the translated string for key in locale, falling back to Russian and
// then to the key itself.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["ru"][key]; ok {
		return v
	}
	return key
}
