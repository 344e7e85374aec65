package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

var sportStatPresets = map[string][]string{
	"futebol":  {"Gols", "Assistências", "Finalizações", "Km percorridos"},
	"basquete": {"Pontos", "Assistências", "Rebotes", "Bolas recuperadas"},
	"volei":    {"Aces", "Bloqueios", "Defesas", "Eficiência de ataque"},
	"tenis":    {"Aces", "Duplas faltas", "Primeiro saque %", "Quebras"},
	"corrida":  {"Ritmo médio", "Passadas por minuto", "Frequência cardíaca", "Negativos no fim"},
	"generico": {"Participação confirmada", "Pontuação Fair Play"},
}

// normalizeSport lowercases and strips accents so "Vôlei 6x6" matches "vole".
func normalizeSport(sport string) string {
	return strings.ToLower(unidecode.Unidecode(sport))
}

// StatsPresetFor returns a fresh copy of the tracked stats for a sport name.
func StatsPresetFor(sport string) []string {
	normalized := normalizeSport(sport)
	key := "generico"
	switch {
	case strings.Contains(normalized, "fut"):
		key = "futebol"
	case strings.Contains(normalized, "basq"):
		key = "basquete"
	case strings.Contains(normalized, "vole"):
		key = "volei"
	case strings.Contains(normalized, "tenis"):
		key = "tenis"
	case strings.Contains(normalized, "corrid"):
		key = "corrida"
	}
	preset := sportStatPresets[key]
	out := make([]string, len(preset))
	copy(out, preset)
	return out
}

// slugID builds a readable id from a label plus a millisecond timestamp.
func slugID(label string, now time.Time) string {
	return slug.Make(label + " " + strconv.FormatInt(now.UnixMilli(), 10))
}
