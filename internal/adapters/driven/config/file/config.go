package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/campusgpt/harvester/internal/core/domain"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "harvester.toml"

// fileConfig mirrors domain.Config in TOML form. Durations are strings
// accepted by time.ParseDuration.
type fileConfig struct {
	OutputDir            string    `toml:"output_dir"`
	CorpusFile           string    `toml:"corpus_file"`
	AllowedDomains       []string  `toml:"allowed_domains"`
	ExcludePaths         []string  `toml:"exclude_paths"`
	MaxPages             int       `toml:"max_pages"`
	MaxDepth             int       `toml:"max_depth"`
	MaxBytes             int64     `toml:"max_bytes"`
	MaxPDFPages          int       `toml:"max_pdf_pages"`
	MinChunkLen          int       `toml:"min_chunk_len"`
	MaxChunkLen          int       `toml:"max_chunk_len"`
	MinSectionLen        int       `toml:"min_section_len"`
	ChunkSize            int       `toml:"chunk_size"`
	ChunkOverlap         int       `toml:"chunk_overlap"`
	SentenceTolerance    int       `toml:"sentence_tolerance"`
	BoilerplateThreshold int       `toml:"boilerplate_threshold"`
	FAQThreshold         float64   `toml:"faq_threshold"`
	JobTimeout           string    `toml:"job_timeout"`
	RequestTimeout       string    `toml:"request_timeout"`
	Workers              int       `toml:"workers"`
	RequestsPerSecond    float64   `toml:"requests_per_second"`
	JitterMin            string    `toml:"jitter_min"`
	JitterMax            string    `toml:"jitter_max"`
	UserAgents           []string  `toml:"user_agents"`
	CacheDir             string    `toml:"cache_dir,omitempty"`
	CacheTTL             string    `toml:"cache_ttl,omitempty"`
	LedgerDir            string    `toml:"ledger_dir,omitempty"`
	MetricsFile          string    `toml:"metrics_file,omitempty"`
	RulesFile            string    `toml:"rules_file,omitempty"`
	MergeOnly            bool      `toml:"merge_only"`
	Jobs                 []fileJob `toml:"jobs"`
}

type fileJob struct {
	Name     string       `toml:"name"`
	Type     string       `toml:"type"`
	Seeds    []string     `toml:"seeds,omitempty"`
	MaxPages int          `toml:"max_pages,omitempty"`
	MaxDepth int          `toml:"max_depth,omitempty"`
	Timeout  string       `toml:"timeout,omitempty"`
	Workers  int          `toml:"workers,omitempty"`
	Sources  []fileSource `toml:"sources,omitempty"`
}

type fileSource struct {
	Key         string `toml:"key"`
	URL         string `toml:"url"`
	Title       string `toml:"title,omitempty"`
	Persona     string `toml:"persona,omitempty"`
	FAQCategory string `toml:"faq_category,omitempty"`
	Priority    string `toml:"priority,omitempty"`
}

// Load reads the TOML config at path over the defaults, loads the rules
// file it names, and validates the result. A missing file at the default
// path yields the defaults; a missing explicit path is an error.
func Load(path string) (domain.Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg := domain.DefaultConfig()
		return cfg, cfg.Validate()
	case err != nil:
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.RulesFile != "" {
		rulesPath := cfg.RulesFile
		if !filepath.IsAbs(rulesPath) {
			rulesPath = filepath.Join(filepath.Dir(path), rulesPath)
		}
		rules, err := LoadRules(rulesPath, cfg.Rules)
		if err != nil {
			return domain.Config{}, err
		}
		cfg.Rules = rules
	}

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults without validating.
func Parse(data []byte) (domain.Config, error) {
	fc := fromDomain(domain.DefaultConfig())
	fc.Jobs = nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return domain.Config{}, fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strict.String())
		}
		return domain.Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return fc.toDomain()
}

// Marshal renders cfg as TOML. Rule tables are not included.
func Marshal(cfg domain.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(fromDomain(cfg)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write saves cfg as TOML at path, refusing to overwrite an existing file.
func Write(path string, cfg domain.Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fromDomain(c domain.Config) fileConfig {
	fc := fileConfig{
		OutputDir:            c.OutputDir,
		CorpusFile:           c.CorpusFile,
		AllowedDomains:       c.AllowedDomains,
		ExcludePaths:         c.ExcludePaths,
		MaxPages:             c.MaxPages,
		MaxDepth:             c.MaxDepth,
		MaxBytes:             c.MaxBytes,
		MaxPDFPages:          c.MaxPDFPages,
		MinChunkLen:          c.MinChunkLen,
		MaxChunkLen:          c.MaxChunkLen,
		MinSectionLen:        c.MinSectionLen,
		ChunkSize:            c.ChunkSize,
		ChunkOverlap:         c.ChunkOverlap,
		SentenceTolerance:    c.SentenceTolerance,
		BoilerplateThreshold: c.BoilerplateThreshold,
		FAQThreshold:         c.FAQThreshold,
		JobTimeout:           formatDuration(c.JobTimeout),
		RequestTimeout:       formatDuration(c.RequestTimeout),
		Workers:              c.Workers,
		RequestsPerSecond:    c.RequestsPerSecond,
		JitterMin:            formatDuration(c.JitterMin),
		JitterMax:            formatDuration(c.JitterMax),
		UserAgents:           c.UserAgents,
		CacheDir:             c.CacheDir,
		CacheTTL:             formatDuration(c.CacheTTL),
		LedgerDir:            c.LedgerDir,
		MetricsFile:          c.MetricsFile,
		RulesFile:            c.RulesFile,
		MergeOnly:            c.MergeOnly,
	}
	for _, j := range c.Jobs {
		fj := fileJob{
			Name:     j.Name,
			Type:     string(j.Kind),
			Seeds:    j.Seeds,
			MaxPages: j.MaxPages,
			MaxDepth: j.MaxDepth,
			Timeout:  formatDuration(j.Timeout),
			Workers:  j.Workers,
		}
		for _, s := range j.Sources {
			fj.Sources = append(fj.Sources, fileSource(s))
		}
		fc.Jobs = append(fc.Jobs, fj)
	}
	return fc
}

func (fc fileConfig) toDomain() (domain.Config, error) {
	c := domain.DefaultConfig()
	c.OutputDir = fc.OutputDir
	c.CorpusFile = fc.CorpusFile
	c.AllowedDomains = fc.AllowedDomains
	c.ExcludePaths = fc.ExcludePaths
	c.MaxPages = fc.MaxPages
	c.MaxDepth = fc.MaxDepth
	c.MaxBytes = fc.MaxBytes
	c.MaxPDFPages = fc.MaxPDFPages
	c.MinChunkLen = fc.MinChunkLen
	c.MaxChunkLen = fc.MaxChunkLen
	c.MinSectionLen = fc.MinSectionLen
	c.ChunkSize = fc.ChunkSize
	c.ChunkOverlap = fc.ChunkOverlap
	c.SentenceTolerance = fc.SentenceTolerance
	c.BoilerplateThreshold = fc.BoilerplateThreshold
	c.FAQThreshold = fc.FAQThreshold
	c.Workers = fc.Workers
	c.RequestsPerSecond = fc.RequestsPerSecond
	c.UserAgents = fc.UserAgents
	c.CacheDir = fc.CacheDir
	c.LedgerDir = fc.LedgerDir
	c.MetricsFile = fc.MetricsFile
	c.RulesFile = fc.RulesFile
	c.MergeOnly = fc.MergeOnly

	durations := []struct {
		key string
		src string
		dst *time.Duration
	}{
		{"job_timeout", fc.JobTimeout, &c.JobTimeout},
		{"request_timeout", fc.RequestTimeout, &c.RequestTimeout},
		{"jitter_min", fc.JitterMin, &c.JitterMin},
		{"jitter_max", fc.JitterMax, &c.JitterMax},
		{"cache_ttl", fc.CacheTTL, &c.CacheTTL},
	}
	for _, d := range durations {
		v, err := parseDuration(d.src)
		if err != nil {
			return domain.Config{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, d.key, err)
		}
		*d.dst = v
	}

	c.Jobs = nil
	for _, fj := range fc.Jobs {
		timeout, err := parseDuration(fj.Timeout)
		if err != nil {
			return domain.Config{}, fmt.Errorf("%w: job %q timeout: %v", domain.ErrInvalidConfig, fj.Name, err)
		}
		job := domain.JobConfig{
			Name:     fj.Name,
			Kind:     domain.JobKind(fj.Type),
			Seeds:    fj.Seeds,
			MaxPages: fj.MaxPages,
			MaxDepth: fj.MaxDepth,
			Timeout:  timeout,
			Workers:  fj.Workers,
		}
		for _, s := range fj.Sources {
			job.Sources = append(job.Sources, domain.PDFSource(s))
		}
		c.Jobs = append(c.Jobs, job)
	}
	return c, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
