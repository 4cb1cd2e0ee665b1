// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package answer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the domain knowledge the column namer relies on.
type Vocabulary struct {
	// DisplayNames maps raw column identifiers to display names
	DisplayNames map[string]string `yaml:"display_names"`

	// Tournaments are keywords that identify tournament names
	Tournaments []string `yaml:"tournaments"`

	// Surfaces are the exact court surface values
	Surfaces []string `yaml:"surfaces"`
}

// DefaultVocabulary returns the built-in tennis vocabulary.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		DisplayNames: map[string]string{
			"winner_name":        "Winner",
			"loser_name":         "Loser",
			"winner":             "Winner",
			"loser":              "Loser",
			"player":             "Player",
			"player_name":        "Player",
			"name":               "Name",
			"score":              "Score",
			"tourney_name":       "Tournament",
			"tournament":         "Tournament",
			"tourney_level":      "Level",
			"tourney_date":       "Date",
			"surface":            "Surface",
			"year":               "Year",
			"round":              "Round",
			"minutes":            "Minutes",
			"best_of":            "Best Of",
			"winner_rank":        "Winner Rank",
			"loser_rank":         "Loser Rank",
			"winner_rank_points": "Winner Points",
			"loser_rank_points":  "Loser Points",
			"winner_ioc":         "Winner Country",
			"loser_ioc":          "Loser Country",
			"winner_age":         "Winner Age",
			"loser_age":          "Loser Age",
			"w_ace":              "Winner Aces",
			"l_ace":              "Loser Aces",
			"rank":               "Rank",
			"ranking":            "Rank",
			"points":             "Points",
			"wins":               "Wins",
			"losses":             "Losses",
			"titles":             "Titles",
			"matches":            "Matches",
			"count":              "Count",
		},
		Tournaments: []string{
			"wimbledon", "roland garros", "french open", "us open", "australian open",
			"masters", "indian wells", "miami", "monte carlo", "madrid", "rome",
			"canada", "cincinnati", "shanghai", "paris", "tour finals", "olympics",
			"davis cup", "queens", "halle",
		},
		Surfaces: []string{"Hard", "Clay", "Grass", "Carpet"},
	}
}

// LoadVocabulary reads a YAML vocabulary file and merges it over the
// defaults: display names are added or replaced, non-empty lists replace.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}

	var file Vocabulary
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	v := DefaultVocabulary()
	for k, name := range file.DisplayNames {
		v.DisplayNames[strings.ToLower(k)] = name
	}
	if len(file.Tournaments) > 0 {
		v.Tournaments = file.Tournaments
	}
	if len(file.Surfaces) > 0 {
		v.Surfaces = file.Surfaces
	}
	return v, nil
}

func (v *Vocabulary) displayName(ident string) (string, bool) {
	name, ok := v.DisplayNames[strings.ToLower(ident)]
	return name, ok
}

func (v *Vocabulary) isTournament(s string) bool {
	lower := strings.ToLower(s)
	for _, t := range v.Tournaments {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func (v *Vocabulary) isSurface(s string) bool {
	for _, surface := range v.Surfaces {
		if strings.EqualFold(s, surface) {
			return true
		}
	}
	return false
}
