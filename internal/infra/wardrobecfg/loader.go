package wardrobecfg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Loader reads the wardrobe rules and the days off calendar from YAML files.
type Loader struct {
	rulesPath   string
	daysOffPath string
	logger      *slog.Logger
}

// NewLoader builds a loader. An empty daysOffPath means no days off.
func NewLoader(rulesPath, daysOffPath string, logger *slog.Logger) *Loader {
	return &Loader{
		rulesPath:   rulesPath,
		daysOffPath: daysOffPath,
		logger:      logger.With("component", "wardrobecfg.loader"),
	}
}

var _ wardrobe.RulesLoader = (*Loader)(nil)

// Load parses and validates both files on every call so edits apply to the next run.
func (l *Loader) Load(_ context.Context) (*wardrobe.RuleSet, wardrobe.Items, error) {
	data, err := os.ReadFile(l.rulesPath)
	if err != nil {
		return nil, wardrobe.Items{}, apperrors.Wrap(apperrors.CodeConfiguration, "failed to read wardrobe rules", err)
	}
	rules, items, err := Parse(data)
	if err != nil {
		return nil, wardrobe.Items{}, err
	}
	calendar, err := l.loadDaysOff()
	if err != nil {
		return nil, wardrobe.Items{}, err
	}
	rules.DaysOff = calendar
	l.logger.Debug("wardrobe rules loaded", "path", l.rulesPath, "daysOff", calendar.Len())
	return rules, items, nil
}

func (l *Loader) loadDaysOff() (wardrobe.Calendar, error) {
	if strings.TrimSpace(l.daysOffPath) == "" {
		return wardrobe.NewCalendar(), nil
	}
	data, err := os.ReadFile(l.daysOffPath)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("days off file missing, assuming none", "path", l.daysOffPath)
		return wardrobe.NewCalendar(), nil
	}
	if err != nil {
		return wardrobe.Calendar{}, apperrors.Wrap(apperrors.CodeConfiguration, "failed to read days off", err)
	}
	return ParseDaysOff(data)
}

type rulesFile struct {
	Temperature []struct {
		Range  [2]float64 `yaml:"range"`
		Shirt  shirtSpec  `yaml:"shirt"`
		Jacket bool       `yaml:"jacket"`
	} `yaml:"temperature"`
	Precipitation []struct {
		Range    [2]float64 `yaml:"range"`
		Footwear string     `yaml:"footwear"`
	} `yaml:"precipitation"`
	JacketPrecipitation float64 `yaml:"jacketPrecipitation"`
	Pairings            struct {
		Footwear map[string][]string `yaml:"footwear"`
		Bottoms  map[string][]string `yaml:"bottoms"`
	} `yaml:"pairings"`
	Structured struct {
		ExcludedBottoms []string `yaml:"excludedBottoms"`
		DarkBottom      string   `yaml:"darkBottom"`
		DarkBottomExtra string   `yaml:"darkBottomExtra"`
	} `yaml:"structured"`
	Belts struct {
		Default    string            `yaml:"default"`
		ByFootwear map[string]string `yaml:"byFootwear"`
	} `yaml:"belts"`
	Inventory struct {
		Bottoms  []string            `yaml:"bottoms"`
		Shirts   map[string][]string `yaml:"shirts"`
		Footwear map[string][]string `yaml:"footwear"`
		Belts    []string            `yaml:"belts"`
	} `yaml:"inventory"`
}

// shirtSpec accepts either a category name or a {primary, fallback} mapping.
type shirtSpec struct {
	category wardrobe.ShirtCategory
}

func (s *shirtSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.category = wardrobe.Simple(strings.TrimSpace(node.Value))
		return nil
	case yaml.MappingNode:
		var structured struct {
			Primary  string `yaml:"primary"`
			Fallback string `yaml:"fallback"`
		}
		if err := node.Decode(&structured); err != nil {
			return err
		}
		if structured.Fallback == "" {
			s.category = wardrobe.Simple(structured.Primary)
			return nil
		}
		s.category = wardrobe.StructuredWithFallback(structured.Primary, structured.Fallback)
		return nil
	default:
		return fmt.Errorf("line %d: shirt must be a name or a {primary, fallback} mapping", node.Line)
	}
}

// Parse decodes and validates a rules document.
func Parse(data []byte) (*wardrobe.RuleSet, wardrobe.Items, error) {
	var raw rulesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, wardrobe.Items{}, apperrors.Wrap(apperrors.CodeConfiguration, "failed to parse wardrobe rules", err)
	}

	rules := &wardrobe.RuleSet{
		BottomsByFootwear: raw.Pairings.Footwear,
		ShirtsByBottom:    raw.Pairings.Bottoms,
		Structured: wardrobe.StructuredRules{
			ExcludedBottoms: raw.Structured.ExcludedBottoms,
			DarkBottom:      raw.Structured.DarkBottom,
			DarkBottomExtra: raw.Structured.DarkBottomExtra,
		},
		Belts: wardrobe.BeltRules{
			Default:    raw.Belts.Default,
			ByFootwear: raw.Belts.ByFootwear,
		},
		JacketPrecipitation: raw.JacketPrecipitation,
		DaysOff:             wardrobe.NewCalendar(),
	}
	for _, band := range raw.Temperature {
		rules.Temperature = append(rules.Temperature, wardrobe.TemperatureBand{
			Range:  wardrobe.Range{Min: band.Range[0], Max: band.Range[1]},
			Shirt:  band.Shirt.category,
			Jacket: band.Jacket,
		})
	}
	for _, band := range raw.Precipitation {
		rules.Precipitation = append(rules.Precipitation, wardrobe.PrecipitationBand{
			Range:    wardrobe.Range{Min: band.Range[0], Max: band.Range[1]},
			Footwear: band.Footwear,
		})
	}
	items := wardrobe.Items{
		Bottoms:  raw.Inventory.Bottoms,
		Shirts:   raw.Inventory.Shirts,
		Footwear: raw.Inventory.Footwear,
		Belts:    raw.Inventory.Belts,
	}
	if err := rules.Validate(items); err != nil {
		return nil, wardrobe.Items{}, err
	}
	return rules, items, nil
}

// ParseDaysOff decodes a list of YYYY-MM-DD dates.
func ParseDaysOff(data []byte) (wardrobe.Calendar, error) {
	var raw struct {
		DaysOff []string `yaml:"daysOff"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return wardrobe.Calendar{}, apperrors.Wrap(apperrors.CodeConfiguration, "failed to parse days off", err)
	}
	dates := make([]time.Time, 0, len(raw.DaysOff))
	for _, value := range raw.DaysOff {
		date, err := time.Parse(util.ISODateLayout, strings.TrimSpace(value))
		if err != nil {
			return wardrobe.Calendar{}, apperrors.Wrap(apperrors.CodeConfiguration, fmt.Sprintf("invalid day off %q", value), err)
		}
		dates = append(dates, date)
	}
	return wardrobe.NewCalendar(dates...), nil
}
