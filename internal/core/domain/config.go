package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Default pipeline settings.
const (
	DefaultOutputDir            = "data"
	DefaultCorpusFile           = "combined_corpus.jsonl"
	DefaultMaxPages             = 500
	DefaultMaxBytes             = 25 << 20
	DefaultMaxPDFPages          = 2000
	DefaultMinChunkLen          = 200
	DefaultMaxChunkLen          = 3000
	DefaultMinSectionLen        = 50
	DefaultChunkSize            = 1000
	DefaultChunkOverlap         = 100
	DefaultSentenceTolerance    = 200
	DefaultBoilerplateThreshold = 5
	DefaultFAQThreshold         = 0.85
	DefaultJobTimeout           = 30 * time.Minute
	DefaultRequestTimeout       = 30 * time.Second
	DefaultWorkers              = 4
	DefaultRequestsPerSecond    = 1.0
	DefaultJitterMin            = 1 * time.Second
	DefaultJitterMax            = 3 * time.Second
)

// JobsDir is the subdirectory of the output directory holding per-job outputs.
const JobsDir = "jobs"

// Config is the immutable pipeline configuration. It is built once by the
// config adapter and passed by value into every component constructor.
type Config struct {
	OutputDir  string
	CorpusFile string

	AllowedDomains []string
	ExcludePaths   []string

	MaxPages    int
	MaxDepth    int
	MaxBytes    int64
	MaxPDFPages int

	MinChunkLen       int
	MaxChunkLen       int
	MinSectionLen     int
	ChunkSize         int
	ChunkOverlap      int
	SentenceTolerance int

	BoilerplateThreshold int
	FAQThreshold         float64

	JobTimeout        time.Duration
	RequestTimeout    time.Duration
	Workers           int
	RequestsPerSecond float64
	JitterMin         time.Duration
	JitterMax         time.Duration
	UserAgents        []string

	CacheDir    string
	CacheTTL    time.Duration
	LedgerDir   string
	MetricsFile string
	RulesFile   string

	MergeOnly bool

	Rules Rules
	Jobs  []JobConfig
}

// Rules holds the data-driven rule tables.
type Rules struct {
	PersonaRules        []PersonaRule `yaml:"persona_rules"`
	FAQ                 []FAQEntry    `yaml:"faq"`
	NoisePatterns       []string      `yaml:"noise_patterns"`
	ErrorSignatures     []string      `yaml:"error_signatures"`
	BoilerplatePatterns []string      `yaml:"boilerplate_patterns"`
}

// PersonaRule maps a URL host and/or path prefix to a persona tag.
// Rules sharing a Facet compete (longest match wins); distinct facets
// each contribute a tag.
type PersonaRule struct {
	Facet      string `yaml:"facet"`
	Host       string `yaml:"host,omitempty"`
	PathPrefix string `yaml:"path_prefix,omitempty"`
	Persona    string `yaml:"persona"`
}

// FAQEntry is a high-traffic quick-answer topic.
type FAQEntry struct {
	Category  string   `yaml:"category"`
	URL       string   `yaml:"url,omitempty"`
	Questions []string `yaml:"questions"`
}

// JobKind selects the connector a job uses.
type JobKind string

const (
	// JobWeb crawls HTML pages from seed URLs.
	JobWeb JobKind = "web"

	// JobPDF downloads and parses a list of PDF sources.
	JobPDF JobKind = "pdf"
)

// JobConfig describes one independent harvest job.
type JobConfig struct {
	Name     string
	Kind     JobKind
	Seeds    []string
	Sources  []PDFSource
	MaxPages int
	MaxDepth int
	Timeout  time.Duration
	Workers  int
}

// PDFSource is one configured PDF document.
type PDFSource struct {
	Key         string
	URL         string
	Title       string
	Persona     string
	FAQCategory string
	Priority    string
}

// Priorities lists the accepted source priority values, highest first.
var Priorities = []string{"critical", "high", "medium", "low"}

// IsPriority reports whether p is an accepted source priority.
func IsPriority(p string) bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// DefaultConfig returns a configuration with every default applied and
// the built-in rule tables.
func DefaultConfig() Config {
	return Config{
		OutputDir:            DefaultOutputDir,
		CorpusFile:           DefaultCorpusFile,
		MaxPages:             DefaultMaxPages,
		MaxBytes:             DefaultMaxBytes,
		MaxPDFPages:          DefaultMaxPDFPages,
		MinChunkLen:          DefaultMinChunkLen,
		MaxChunkLen:          DefaultMaxChunkLen,
		MinSectionLen:        DefaultMinSectionLen,
		ChunkSize:            DefaultChunkSize,
		ChunkOverlap:         DefaultChunkOverlap,
		SentenceTolerance:    DefaultSentenceTolerance,
		BoilerplateThreshold: DefaultBoilerplateThreshold,
		FAQThreshold:         DefaultFAQThreshold,
		JobTimeout:           DefaultJobTimeout,
		RequestTimeout:       DefaultRequestTimeout,
		Workers:              DefaultWorkers,
		RequestsPerSecond:    DefaultRequestsPerSecond,
		JitterMin:            DefaultJitterMin,
		JitterMax:            DefaultJitterMax,
		UserAgents:           []string{"campus-harvester/1.0 (+https://github.com/campusgpt/harvester)"},
		Rules:                DefaultRules(),
	}
}

// DefaultRules returns the built-in rule tables.
func DefaultRules() Rules {
	return Rules{
		PersonaRules: []PersonaRule{
			{Facet: "audience", PathPrefix: "/admissions", Persona: PersonaProspective},
			{Facet: "audience", PathPrefix: "/apply", Persona: PersonaProspective},
			{Facet: "audience", PathPrefix: "/visit", Persona: PersonaProspective},
			{Facet: "audience", PathPrefix: "/future-students", Persona: PersonaProspective},
			{Facet: "audience", PathPrefix: "/current-students", Persona: PersonaStudent},
			{Facet: "audience", PathPrefix: "/registrar", Persona: PersonaStudent},
			{Facet: "audience", PathPrefix: "/student-life", Persona: PersonaStudent},
			{Facet: "audience", PathPrefix: "/faculty", Persona: PersonaFaculty},
			{Facet: "audience", PathPrefix: "/staff", Persona: PersonaFaculty},
			{Facet: "audience", Host: "inside.nku.edu", Persona: PersonaFaculty},
			{Facet: "topic", PathPrefix: "/financial-aid", Persona: PersonaFinancial},
			{Facet: "topic", PathPrefix: "/tuition", Persona: PersonaFinancial},
			{Facet: "topic", PathPrefix: "/bursar", Persona: PersonaFinancial},
			{Facet: "topic", PathPrefix: "/scholarships", Persona: PersonaFinancial},
			{Facet: "topic", PathPrefix: "/housing", Persona: PersonaHousing},
			{Facet: "topic", PathPrefix: "/residence", Persona: PersonaHousing},
			{Facet: "topic", PathPrefix: "/living-on-campus", Persona: PersonaHousing},
		},
		FAQ: []FAQEntry{
			{Category: "campus_map", URL: "https://www.nku.edu/map", Questions: []string{"Campus Map", "Where is the campus map?"}},
			{Category: "mynku_portal", URL: "https://www.nku.edu/mynku", Questions: []string{"MyNKU Student Portal", "How do I log in to the student portal?"}},
			{Category: "financial_aid", URL: "https://www.nku.edu/financialaid", Questions: []string{"Financial Aid & Tuition", "How much is tuition?"}},
			{Category: "registrar", URL: "https://www.nku.edu/registrar", Questions: []string{"Registrar's Office", "How do I get my transcript?"}},
			{Category: "academic_calendar", URL: "https://www.nku.edu/academics/calendar", Questions: []string{"Academic Calendar", "When are the semester deadlines?"}},
		},
		NoisePatterns: []string{
			`(?i)Page \d+ of \d+`,
			`(?i)Printed on:.*`,
			`(?i)Generated from.*`,
			`(?i)NKU Catalog \d{4}-\d{4}`,
			`(?i)www\.nku\.edu`,
		},
		ErrorSignatures: []string{
			"404",
			"page not found",
			"the page you requested could not be found",
			"access denied",
			"500 internal server error",
		},
		BoilerplatePatterns: []string{
			`(?is)NKU uses cookies on this website.*?(Accept|$)`,
			`(?is)This website uses cookies!.*?Accept`,
			`(?i)\[Skip to main content\]\([^)]*\)`,
			`(?i)Toggle navigation`,
			`(?i)Enter the search term or name`,
			`(?i)Connect with us on social media:`,
			`(?i)© \d{4} Northern Kentucky University\. All rights reserved\.`,
			`(?i)Loading - JavaScript`,
		},
	}
}

// Validate checks ranges and compiles every pattern once so that broken
// rules fail at load time rather than mid-run.
func (c Config) Validate() error {
	switch {
	case c.OutputDir == "":
		return fmt.Errorf("%w: output_dir is required", ErrInvalidConfig)
	case c.CorpusFile == "":
		return fmt.Errorf("%w: corpus_file is required", ErrInvalidConfig)
	case c.MinChunkLen <= 0 || c.MaxChunkLen < c.MinChunkLen:
		return fmt.Errorf("%w: need 0 < min_chunk_len <= max_chunk_len", ErrInvalidConfig)
	case c.ChunkSize <= 0 || c.ChunkSize+c.MinChunkLen > c.MaxChunkLen:
		return fmt.Errorf("%w: need 0 < chunk_size and chunk_size + min_chunk_len <= max_chunk_len", ErrInvalidConfig)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: need 0 <= chunk_overlap < chunk_size", ErrInvalidConfig)
	case c.SentenceTolerance < 0 || c.SentenceTolerance >= c.ChunkSize-c.ChunkOverlap:
		return fmt.Errorf("%w: sentence_tolerance must be below chunk_size - chunk_overlap", ErrInvalidConfig)
	case c.MinSectionLen < 0:
		return fmt.Errorf("%w: min_section_len must not be negative", ErrInvalidConfig)
	case c.FAQThreshold <= 0 || c.FAQThreshold > 1:
		return fmt.Errorf("%w: faq_threshold must be in (0, 1]", ErrInvalidConfig)
	case c.BoilerplateThreshold < 1:
		return fmt.Errorf("%w: boilerplate_threshold must be at least 1", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.JitterMax < c.JitterMin:
		return fmt.Errorf("%w: jitter_max must not be below jitter_min", ErrInvalidConfig)
	case c.MaxBytes <= 0:
		return fmt.Errorf("%w: max_bytes must be positive", ErrInvalidConfig)
	}

	for _, group := range [][]string{c.Rules.NoisePatterns, c.Rules.BoilerplatePatterns} {
		for _, p := range group {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("%w: pattern %q: %v", ErrInvalidConfig, p, err)
			}
		}
	}
	for _, rule := range c.Rules.PersonaRules {
		if !IsPersona(rule.Persona) {
			return fmt.Errorf("%w: unknown persona %q", ErrInvalidConfig, rule.Persona)
		}
		if rule.Host == "" && rule.PathPrefix == "" {
			return fmt.Errorf("%w: persona rule for %q needs host or path_prefix", ErrInvalidConfig, rule.Persona)
		}
	}

	seen := make(map[string]bool, len(c.Jobs))
	for _, job := range c.Jobs {
		if job.Name == "" {
			return fmt.Errorf("%w: job without name", ErrInvalidConfig)
		}
		if seen[job.Name] {
			return fmt.Errorf("%w: duplicate job %q", ErrInvalidConfig, job.Name)
		}
		seen[job.Name] = true
		switch job.Kind {
		case JobWeb:
			if len(job.Seeds) == 0 {
				return fmt.Errorf("%w: web job %q has no seeds", ErrInvalidConfig, job.Name)
			}
		case JobPDF:
			if len(job.Sources) == 0 {
				return fmt.Errorf("%w: pdf job %q has no sources", ErrInvalidConfig, job.Name)
			}
			for _, src := range job.Sources {
				for _, tag := range SplitPersonas(src.Persona) {
					if !IsPersona(tag) {
						return fmt.Errorf("%w: job %q source %q: unknown persona %q", ErrInvalidConfig, job.Name, src.Key, tag)
					}
				}
				if src.Priority != "" && !IsPriority(src.Priority) {
					return fmt.Errorf("%w: job %q source %q: priority %q is not one of %s",
						ErrInvalidConfig, job.Name, src.Key, src.Priority, strings.Join(Priorities, ", "))
				}
			}
		default:
			return fmt.Errorf("%w: job %q has unknown type %q", ErrInvalidConfig, job.Name, job.Kind)
		}
	}
	return nil
}

// Job returns the named job configuration.
func (c Config) Job(name string) (JobConfig, bool) {
	for _, job := range c.Jobs {
		if job.Name == name {
			return job, true
		}
	}
	return JobConfig{}, false
}

// JobNames returns configured job names in declaration order.
func (c Config) JobNames() []string {
	names := make([]string, len(c.Jobs))
	for i, job := range c.Jobs {
		names[i] = job.Name
	}
	return names
}

// TimeoutFor returns the wall-clock budget of a job.
func (c Config) TimeoutFor(job JobConfig) time.Duration {
	if job.Timeout > 0 {
		return job.Timeout
	}
	return c.JobTimeout
}

// WorkersFor returns the fetch concurrency of a job.
func (c Config) WorkersFor(job JobConfig) int {
	if job.Workers > 0 {
		return job.Workers
	}
	return c.Workers
}

// MaxPagesFor returns the document ceiling of a job.
func (c Config) MaxPagesFor(job JobConfig) int {
	if job.MaxPages > 0 {
		return job.MaxPages
	}
	return c.MaxPages
}

// MaxDepthFor returns the crawl depth limit of a job (0 = unlimited).
func (c Config) MaxDepthFor(job JobConfig) int {
	if job.MaxDepth > 0 {
		return job.MaxDepth
	}
	return c.MaxDepth
}

// CacheDirOrDefault returns the fetch cache directory, defaulting to
// <output_dir>/cache.
func (c Config) CacheDirOrDefault() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return filepath.Join(c.OutputDir, "cache")
}

// LedgerDirOrDefault returns the run ledger directory, defaulting to the
// output directory.
func (c Config) LedgerDirOrDefault() string {
	if c.LedgerDir != "" {
		return c.LedgerDir
	}
	return c.OutputDir
}
