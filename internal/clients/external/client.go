// Package external is the location for the dnd5e-api client
package external

//go:generate mockgen -destination=mock/mock_client.go -package=externalmock github.com/KirkDiggler/rpg-tracker/internal/clients/external Client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	"github.com/fadedpez/dnd5e-api/entities"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

var (
	slugPattern   = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenPattern = regexp.MustCompile(`-+`)
)

// SpellKey turns a display name like "Hold Person" into the API key "hold-person"
func SpellKey(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "'", "")
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = hyphenPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Client looks up spell content for casting
type Client interface {
	// GetSpell fetches one spell by display name or API key
	// Returns errors.NotFound if the API has no such spell
	GetSpell(ctx context.Context, name string) (*SpellData, error)

	// ListSpells returns spells filtered by class and level
	ListSpells(ctx context.Context, input *ListSpellsInput) ([]*SpellData, error)
}

// SpellSource is the part of the dnd5e-api client this package uses
type SpellSource interface {
	GetSpell(key string) (*entities.Spell, error)
	ListSpells(input *dnd5e.ListSpellsInput) ([]*entities.ReferenceItem, error)
}

type client struct {
	source SpellSource
}

// Config contains configuration options for the external client.
type Config struct {
	// BaseURL for the D&D 5e API (optional, defaults to https://www.dnd5eapi.co/api/2014/)
	BaseURL string
	// HTTPTimeout for API requests (optional, defaults to 30 seconds)
	HTTPTimeout time.Duration
	// CacheTTL for the cached client (optional, defaults to 24 hours)
	CacheTTL time.Duration
	// Source replaces the HTTP client; used by tests
	Source SpellSource
}

// Validate validates the Config and sets defaults if not provided.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.dnd5eapi.co/api/2014/"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.HTTPTimeout < 0 || cfg.CacheTTL < 0 {
		return errors.InvalidArgument("timeouts must not be negative")
	}
	return nil
}

// New creates a new external client with the given configuration.
func New(cfg *Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Source != nil {
		return &client{source: cfg.Source}, nil
	}

	baseClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create D&D 5e API client: %w", err)
	}

	return &client{
		source: dnd5e.NewCachedClient(baseClient, cfg.CacheTTL),
	}, nil
}

func (c *client) GetSpell(_ context.Context, name string) (*SpellData, error) {
	key := SpellKey(name)
	if key == "" {
		return nil, errors.InvalidArgument("spell name is required")
	}

	spell, err := c.source.GetSpell(key)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeNotFound, fmt.Sprintf("failed to get spell %s", key))
	}
	if spell == nil {
		return nil, errors.NotFoundf("spell %s not found", key)
	}
	return convertSpell(spell), nil
}

func (c *client) ListSpells(ctx context.Context, input *ListSpellsInput) ([]*SpellData, error) {
	apiInput := &dnd5e.ListSpellsInput{}
	if input != nil {
		if input.Level != nil {
			level := *input.Level
			apiInput.Level = &level
		}
		apiInput.Class = strings.ToLower(strings.TrimSpace(input.ClassName))
	}

	slog.Info("Calling D&D 5e API to list spells", "class", apiInput.Class)
	refs, err := c.source.ListSpells(apiInput)
	if err != nil {
		return nil, fmt.Errorf("failed to list spells from D&D 5e API: %w", err)
	}

	spells := make([]*SpellData, len(refs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, ref := range refs {
		g.Go(func() error {
			spell, err := c.source.GetSpell(ref.Key)
			if err != nil {
				slog.Error("Failed to get spell details", "spell", ref.Key, "error", err)
				return fmt.Errorf("failed to get spell %s: %w", ref.Key, err)
			}
			spells[i] = convertSpell(spell)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return spells, nil
}

func convertSpell(spell *entities.Spell) *SpellData {
	data := &SpellData{
		Key:           spell.Key,
		Name:          spell.Name,
		Level:         spell.SpellLevel,
		CastingTime:   spell.CastingTime,
		Range:         spell.Range,
		Duration:      spell.Duration,
		Concentration: spell.Concentration,
		Ritual:        spell.Ritual,
	}
	if spell.SpellSchool != nil {
		data.School = spell.SpellSchool.Name
	}
	if spell.DC != nil && spell.DC.DCType != nil {
		data.SaveAbility = strings.ToUpper(spell.DC.DCType.Key)
		data.SaveEffect = spell.DC.DCSuccess
	}
	for _, class := range spell.SpellClasses {
		if class != nil {
			data.Classes = append(data.Classes, class.Name)
		}
	}
	return data
}
