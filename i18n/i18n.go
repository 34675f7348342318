// Package i18n holds the message catalogues used for API error details.
package i18n

import "golang.org/x/text/language"

// DefaultLang is used when nothing in Accept-Language matches.
const DefaultLang = "fr"

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

var catalogues = map[string]map[string]string{
	"fr": {
		"required":             "Requis",
		"must_be_positive":     "Doit etre positif",
		"must_not_be_negative": "Ne doit pas etre negatif",
		"out_of_range":         "Hors limites",
		"min_items":            "Au moins une ligne est requise",
		"invalid_date":         "Date invalide",
		"invalid_json":         "Requete invalide",
		"validation_failed":    "Formulaire invalide",
		"save_failed":          "Erreur lors de la sauvegarde",
		"delete_failed":        "Erreur lors de la suppression",
		"not_found":            "Facture introuvable",
		"unauthorized":         "Connexion requise",
		"reset_unsupported":    "Reinitialisation disponible uniquement en mode local",
		"email_in_use":         "Cette adresse email est déjà utilisée",
		"invalid_email":        "Adresse email invalide",
		"weak_password":        "Le mot de passe doit contenir au moins 6 caractères",
		"user_not_found":       "Aucun compte avec cette adresse email",
		"wrong_password":       "Mot de passe incorrect",
		"too_many_requests":    "Trop de tentatives, réessayez plus tard",
		"internal_error":       "Une erreur est survenue",
	},
	"en": {
		"required":             "Required",
		"must_be_positive":     "Must be positive",
		"must_not_be_negative": "Must not be negative",
		"out_of_range":         "Out of range",
		"min_items":            "At least one line is required",
		"invalid_date":         "Invalid date",
		"invalid_json":         "Invalid request",
		"validation_failed":    "Invalid form",
		"save_failed":          "Save failed",
		"delete_failed":        "Delete failed",
		"not_found":            "Invoice not found",
		"unauthorized":         "Sign-in required",
		"reset_unsupported":    "Reset is only available with the local store",
		"email_in_use":         "This email address is already in use",
		"invalid_email":        "Invalid email address",
		"weak_password":        "Password must be at least 6 characters long",
		"user_not_found":       "No account with this email address",
		"wrong_password":       "Wrong password",
		"too_many_requests":    "Too many attempts, try again later",
		"internal_error":       "Something went wrong",
	},
}

// DetectLanguage picks "fr" or "en" from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// T translates a message code. Unknown languages fall back to French,
// unknown codes to the code itself.
func T(lang, code string) string {
	if msg, ok := catalogues[lang][code]; ok {
		return msg
	}
	if msg, ok := catalogues[DefaultLang][code]; ok {
		return msg
	}
	return code
}

// TranslateAll maps every value of a code map through T.
func TranslateAll(lang string, codes map[string]string) map[string]string {
	out := make(map[string]string, len(codes))
	for field, code := range codes {
		out[field] = T(lang, code)
	}
	return out
}
