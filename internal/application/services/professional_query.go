package services

import (
	"strings"

	"github.com/zatekoja/carefinder/pkg/utils"
)

// categoryQueryPhrases maps category ids to the provider text query used for them.
var categoryQueryPhrases = map[string]string{
	"psicologo":             "psicólogo infantil autismo",
	"fonoaudiologo":         "fonoaudiólogo infantil autismo",
	"fono":                  "fonoaudiólogo infantil autismo",
	"terapeuta_ocupacional": "terapeuta ocupacional infantil integração sensorial autismo",
	"to":                    "terapeuta ocupacional infantil integração sensorial autismo",
	"neuropediatra":         "neuropediatra autismo",
	"psiquiatra_infantil":   "psiquiatra infantil autismo",
	"psicopedagogo":         "psicopedagogo autismo infantil",
	"fisioterapeuta":        "fisioterapeuta infantil autismo",
	"nutricionista":         "nutricionista infantil seletividade alimentar autismo",
	"musicoterapeuta":       "musicoterapia infantil autismo",
	"aba":                   "clínica ABA autismo infantil",
}

// brazilianStates holds normalized state names and UF abbreviations.
var brazilianStates = map[string]struct{}{}

func init() {
	states := map[string]string{
		"ac": "acre", "al": "alagoas", "ap": "amapa", "am": "amazonas",
		"ba": "bahia", "ce": "ceara", "df": "distrito federal", "es": "espirito santo",
		"go": "goias", "ma": "maranhao", "mt": "mato grosso", "ms": "mato grosso do sul",
		"mg": "minas gerais", "pa": "para", "pb": "paraiba", "pr": "parana",
		"pe": "pernambuco", "pi": "piaui", "rj": "rio de janeiro", "rn": "rio grande do norte",
		"rs": "rio grande do sul", "ro": "rondonia", "rr": "roraima", "sc": "santa catarina",
		"sp": "sao paulo", "se": "sergipe", "to": "tocantins",
	}
	for uf, name := range states {
		brazilianStates[uf] = struct{}{}
		brazilianStates[name] = struct{}{}
	}
}

// BuildTextQuery returns the provider query for a category, optionally
// scoped to a location. Unknown categories fall back to a generic phrase.
func BuildTextQuery(categoryID, locationLabel string) string {
	phrase, ok := categoryQueryPhrases[categoryID]
	if !ok {
		phrase = categoryID + " autismo infantil"
	}
	if location := strings.TrimSpace(locationLabel); location != "" {
		return phrase + " em " + location
	}
	return phrase
}

// ExtractCity returns the city part of a free-text location label such as
// "Itabuna, BA". A label without a comma that names only a state ("Bahia",
// "SP") is not a city.
func ExtractCity(locationLabel string) (string, bool) {
	before, _, hasComma := strings.Cut(locationLabel, ",")
	candidate := strings.TrimSpace(before)
	if candidate == "" {
		return "", false
	}
	if !hasComma {
		if _, isState := brazilianStates[utils.NormalizeText(candidate)]; isState {
			return "", false
		}
	}
	return candidate, true
}

// AddressMatchesCity reports whether the address mentions city, ignoring
// case and diacritics.
func AddressMatchesCity(address, city string) bool {
	return strings.Contains(utils.NormalizeText(address), utils.NormalizeText(strings.TrimSpace(city)))
}
