package rss

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"rssdigest/internal/domain/entity"
)

// DefaultSources are used when no source file is configured or it cannot be read.
func DefaultSources() []entity.Source {
	return []entity.Source{
		{Name: "VnExpress", URL: "https://vnexpress.net/rss/tin-moi-nhat.rss"},
		{Name: "Vietstock", URL: "https://vietstock.vn/830/chung-khoan/co-phieu.rss"},
		{Name: "Lao Động", URL: "https://laodong.vn/rss/home.rss"},
	}
}

// LoadSources reads the source list from path. Both a name→URL object and an
// array of {name, url} are accepted; .yaml and .yml files are parsed as YAML.
// Any failure falls back to DefaultSources.
func LoadSources(path string, logger zerolog.Logger) []entity.Source {
	if strings.TrimSpace(path) == "" {
		return DefaultSources()
	}
	logger = logger.With().Str("sources_file", path).Logger()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info().Msg("sources file not found, using defaults")
		return DefaultSources()
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read sources file, using defaults")
		return DefaultSources()
	}

	sources, err := ParseSources(data, isYAML(path))
	if err != nil {
		logger.Warn().Err(err).Msg("failed to parse sources file, using defaults")
		return DefaultSources()
	}
	if len(sources) == 0 {
		logger.Warn().Msg("sources file is empty, using defaults")
		return DefaultSources()
	}
	return sources
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func ParseSources(data []byte, asYAML bool) ([]entity.Source, error) {
	unmarshal := json.Unmarshal
	if asYAML {
		unmarshal = yaml.Unmarshal
	}

	var list []entity.Source
	if err := unmarshal(data, &list); err == nil {
		return validSources(list), nil
	}

	var byName map[string]string
	if err := unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w", err)
	}
	list = make([]entity.Source, 0, len(byName))
	for name, url := range byName {
		list = append(list, entity.Source{Name: name, URL: url})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return validSources(list), nil
}

func validSources(in []entity.Source) []entity.Source {
	out := make([]entity.Source, 0, len(in))
	for _, s := range in {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" {
			continue
		}
		if strings.TrimSpace(s.Name) == "" {
			s.Name = s.URL
		}
		out = append(out, s)
	}
	return out
}

// WriteDefaultSources writes DefaultSources to path as a name→URL mapping.
func WriteDefaultSources(path string) error {
	byName := make(map[string]string)
	for _, s := range DefaultSources() {
		byName[s.Name] = s.URL
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(byName)
	} else {
		data, err = json.MarshalIndent(byName, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode default sources: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create sources directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sources file: %w", err)
	}
	return nil
}
