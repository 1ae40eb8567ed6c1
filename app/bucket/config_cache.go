package bucket

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is a bucket rule defined in a YAML file. The bucket id is derived
// from the file name.
type Config struct {
	ID            string   `yaml:"-"`
	Name          string   `yaml:"name"`
	Color         string   `yaml:"color"`
	Keywords      []string `yaml:"keywords"`
	Operator      string   `yaml:"operator"`
	CaseSensitive bool     `yaml:"case_sensitive"`
	UseRegex      bool     `yaml:"use_regex"`
	SearchInTitle *bool    `yaml:"search_in_title"` // default true
	SearchInBody  *bool    `yaml:"search_in_body"`  // default true
}

func (c *Config) Bucket() Bucket {
	op, _ := ParseOperator(c.Operator)
	b := Bucket{
		ID:            c.ID,
		Name:          c.Name,
		Color:         c.Color,
		Keywords:      append([]string{}, c.Keywords...),
		Operator:      op,
		CaseSensitive: c.CaseSensitive,
		UseRegex:      c.UseRegex,
		SearchInTitle: c.SearchInTitle == nil || *c.SearchInTitle,
		SearchInBody:  c.SearchInBody == nil || *c.SearchInBody,
	}
	if b.Name == "" {
		b.Name = b.ID
	}
	if b.Color == "" {
		b.Color = DefaultColor
	}
	return b
}

type ConfigCache struct {
	bucketsDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(bucketsDir string) *ConfigCache {
	return &ConfigCache{
		bucketsDir: bucketsDir,
		cache:      make(map[string]*Config),
	}
}

// Run (re)loads every *.yml and *.yaml file of the buckets directory. A
// missing directory yields an empty cache.
func (cc *ConfigCache) Run() error {
	if cc.bucketsDir == "" {
		return nil
	}
	if _, err := os.Stat(cc.bucketsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.bucketsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(cc.bucketsDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)

	loaded := make(map[string]*Config, len(files))
	for _, file := range files {
		bucketConfig, err := cc.parseConfig(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
		if err := cc.validateConfig(bucketConfig); err != nil {
			return fmt.Errorf("invalid config %s: %w", file, err)
		}
		if _, dup := loaded[bucketConfig.ID]; dup {
			return fmt.Errorf("duplicate bucket id %q in %s", bucketConfig.ID, file)
		}
		loaded[bucketConfig.ID] = bucketConfig

		slog.Debug("Bucket configuration loaded", "bucket", bucketConfig.ID, "keywords", len(bucketConfig.Keywords), "operator", bucketConfig.Operator)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache = loaded

	return nil
}

func (cc *ConfigCache) GetConfig(id string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	bucketConfig, ok := cc.cache[id]
	if !ok {
		return nil, fmt.Errorf("bucket config with id '%s' not found", id)
	}
	return bucketConfig, nil
}

// Buckets returns the loaded definitions ordered by id.
func (cc *ConfigCache) Buckets() []Bucket {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	out := make([]Bucket, 0, len(cc.cache))
	for _, c := range cc.cache {
		out = append(out, c.Bucket())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var bucketConfig Config
	if err := yaml.Unmarshal(data, &bucketConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fileName := filepath.Base(configFile)
	bucketConfig.ID = strings.TrimSuffix(fileName, filepath.Ext(fileName))

	if bucketConfig.Operator == "" {
		bucketConfig.Operator = string(OperatorAnd)
	}

	return &bucketConfig, nil
}

func (cc *ConfigCache) validateConfig(bucketConfig *Config) error {
	if bucketConfig == nil {
		return fmt.Errorf("bucketConfig is nil")
	}
	if bucketConfig.ID == "" {
		return fmt.Errorf("bucket id is required")
	}

	if _, err := ParseOperator(bucketConfig.Operator); err != nil {
		return err
	}

	usable := 0
	for _, k := range bucketConfig.Keywords {
		if strings.TrimSpace(k) != "" {
			usable++
		}
	}
	if usable == 0 {
		return fmt.Errorf("bucket must have at least one keyword")
	}

	return nil
}
