package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"DailyByte/internal/domain"
)

const (
	defaultTimezone = "UTC"
	defaultLocale   = "pt-BR"

	configPathEnv      = "DAILYBYTE_CONFIG"
	logLevelEnv        = "LOG_LEVEL"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	anthropicModelEnv  = "ANTHROPIC_MODEL"
	chatGPTAPIKeyEnv   = "CHATGPT_API_KEY"
	chatGPTModelEnv    = "CHATGPT_MODEL"
	buttondownKeyEnv   = "BUTTONDOWN_API_KEY"
	xBearerTokenEnv    = "X_BEARER_TOKEN"
	stateBackendEnv    = "STATE_BACKEND"
	redisAddrEnv       = "REDIS_ADDR"
	redisPasswordEnv   = "REDIS_PASSWORD"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Curator    CuratorConfig    `yaml:"curator"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	ChatGPT    ChatGPTConfig    `yaml:"chatgpt"`
	X          XConfig          `yaml:"x"`
	Buttondown ButtondownConfig `yaml:"buttondown"`
	Digest     DigestConfig     `yaml:"digest"`
	State      StateConfig      `yaml:"state"`
	Families   []FamilyConfig   `yaml:"families"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when the daemon should run the pipeline.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FetchConfig applies to every outbound source request.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// CuratorConfig tunes pre-filtering, prompting and the model retry loop.
type CuratorConfig struct {
	Provider        string        `yaml:"provider"`
	MaxPromptItems  int           `yaml:"maxPromptItems"`
	ContentLimit    int           `yaml:"contentLimit"`
	MaxItems        int           `yaml:"maxItems"`
	MinHeatScore    int           `yaml:"minHeatScore"`
	MaxAttempts     int           `yaml:"maxAttempts"`
	BaseBackoff     time.Duration `yaml:"baseBackoff"`
	Freshness       time.Duration `yaml:"freshness"`
	NewsletterFresh time.Duration `yaml:"newsletterFreshness"`
	OverridePath    string        `yaml:"overridePath"`
}

// AnthropicConfig defines how to contact the Messages API.
type AnthropicConfig struct {
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	BaseURL   string        `yaml:"baseUrl"`
	MaxTokens int64         `yaml:"maxTokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible chat completions API.
type ChatGPTConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	MaxTokens int           `yaml:"maxTokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// XConfig carries the X API v2 bearer token; an empty token disables the family.
type XConfig struct {
	BearerToken string `yaml:"bearerToken"`
	BaseURL     string `yaml:"baseUrl"`
}

// ButtondownConfig wires the email provider.
type ButtondownConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"apiKey"`
	AuthScheme string        `yaml:"authScheme"`
	Status     string        `yaml:"status"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DigestConfig controls rendering and preview output.
type DigestConfig struct {
	Locale      string `yaml:"locale"`
	Timezone    string `yaml:"timezone"`
	PreviewPath string `yaml:"previewPath"`
}

// StateConfig selects where intermediate run documents live.
type StateConfig struct {
	Backend       string        `yaml:"backend"`
	Dir           string        `yaml:"dir"`
	SQLitePath    string        `yaml:"sqlitePath"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDb"`
	RedisPrefix   string        `yaml:"redisPrefix"`
	TTL           time.Duration `yaml:"ttl"`
}

// FamilyConfig describes one source family with its scanner strategy.
type FamilyConfig struct {
	Name       string         `yaml:"name"`
	Scanner    string         `yaml:"scanner"`
	SourceType string         `yaml:"sourceType"`
	Cutoff     time.Duration  `yaml:"cutoff"`
	MaxItems   int            `yaml:"maxItems"`
	Sources    []SourceConfig `yaml:"sources"`
}

// SourceConfig holds one concrete endpoint of a family.
type SourceConfig struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	SourceType   string `yaml:"sourceType"`
	CategoryHint string `yaml:"categoryHint"`
	Language     string `yaml:"language"`
}

// ModelAPIKey returns the credential of the configured curator provider.
func (c Config) ModelAPIKey() (name, value string) {
	if c.Curator.Provider == ProviderOpenAI {
		return chatGPTAPIKeyEnv, c.ChatGPT.APIKey
	}
	return anthropicAPIKeyEnv, c.Anthropic.APIKey
}

// DeliveryAPIKey returns the email provider credential.
func (c Config) DeliveryAPIKey() (name, value string) {
	return buttondownKeyEnv, c.Buttondown.APIKey
}

// Load reads .env, the YAML configuration (if present) and applies environment overrides.
// An empty path falls back to DAILYBYTE_CONFIG.
func Load(path string) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.normalizeFamilies()

	if cfg.Curator.OverridePath == "" {
		cfg.Curator.OverridePath = filepath.Join(cfg.State.Dir, "digest_override.json")
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv(anthropicModelEnv); v != "" {
		c.Anthropic.Model = v
	}
	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
	if v := os.Getenv(buttondownKeyEnv); v != "" {
		c.Buttondown.APIKey = v
	}
	if v := os.Getenv(xBearerTokenEnv); v != "" {
		c.X.BearerToken = v
	}
	if v := os.Getenv(stateBackendEnv); v != "" {
		c.State.Backend = normalizeBackend(v)
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.State.RedisAddr = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.State.RedisPassword = v
	}
}

func normalizeBackend(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// normalizeFamilies fills per-family defaults so a partial YAML entry stays usable.
func (c *Config) normalizeFamilies() {
	defaults := map[string]FamilyConfig{}
	for _, fam := range defaultFamilies() {
		defaults[fam.Name] = fam
	}
	for i := range c.Families {
		fam := &c.Families[i]
		def, ok := defaults[fam.Name]
		if fam.Scanner == "" && ok {
			fam.Scanner = def.Scanner
		}
		if fam.SourceType == "" {
			if ok {
				fam.SourceType = def.SourceType
			} else {
				fam.SourceType = string(domain.SourceArticle)
			}
		}
		if fam.Cutoff <= 0 {
			fam.Cutoff = 24 * time.Hour
			if ok {
				fam.Cutoff = def.Cutoff
			}
		}
		if fam.MaxItems <= 0 {
			fam.MaxItems = 10
			if ok {
				fam.MaxItems = def.MaxItems
			}
		}
		if len(fam.Sources) == 0 && ok {
			fam.Sources = def.Sources
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}

	base.Curator = mergeCurator(base.Curator, override.Curator)

	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}
	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.Anthropic.BaseURL != "" {
		base.Anthropic.BaseURL = override.Anthropic.BaseURL
	}
	if override.Anthropic.MaxTokens > 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}
	if override.Anthropic.Timeout > 0 {
		base.Anthropic.Timeout = override.Anthropic.Timeout
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.MaxTokens > 0 {
		base.ChatGPT.MaxTokens = override.ChatGPT.MaxTokens
	}
	if override.ChatGPT.Timeout > 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.X.BearerToken != "" {
		base.X.BearerToken = override.X.BearerToken
	}
	if override.X.BaseURL != "" {
		base.X.BaseURL = override.X.BaseURL
	}

	if override.Buttondown.Endpoint != "" {
		base.Buttondown.Endpoint = override.Buttondown.Endpoint
	}
	if override.Buttondown.APIKey != "" {
		base.Buttondown.APIKey = override.Buttondown.APIKey
	}
	if override.Buttondown.AuthScheme != "" {
		base.Buttondown.AuthScheme = override.Buttondown.AuthScheme
	}
	if override.Buttondown.Status != "" {
		base.Buttondown.Status = override.Buttondown.Status
	}
	if override.Buttondown.Timeout > 0 {
		base.Buttondown.Timeout = override.Buttondown.Timeout
	}

	if override.Digest.Locale != "" {
		base.Digest.Locale = override.Digest.Locale
	}
	if override.Digest.Timezone != "" {
		base.Digest.Timezone = override.Digest.Timezone
	}
	if override.Digest.PreviewPath != "" {
		base.Digest.PreviewPath = override.Digest.PreviewPath
	}

	if override.State.Backend != "" {
		base.State.Backend = normalizeBackend(override.State.Backend)
	}
	if override.State.Dir != "" {
		base.State.Dir = override.State.Dir
	}
	if override.State.SQLitePath != "" {
		base.State.SQLitePath = override.State.SQLitePath
	}
	if override.State.RedisAddr != "" {
		base.State.RedisAddr = override.State.RedisAddr
	}
	if override.State.RedisPassword != "" {
		base.State.RedisPassword = override.State.RedisPassword
	}
	if override.State.RedisDB != 0 {
		base.State.RedisDB = override.State.RedisDB
	}
	if override.State.RedisPrefix != "" {
		base.State.RedisPrefix = override.State.RedisPrefix
	}
	if override.State.TTL > 0 {
		base.State.TTL = override.State.TTL
	}

	if len(override.Families) > 0 {
		base.Families = override.Families
	}

	return base
}

func mergeCurator(base, override CuratorConfig) CuratorConfig {
	if override.Provider != "" {
		base.Provider = strings.ToLower(override.Provider)
	}
	if override.MaxPromptItems > 0 {
		base.MaxPromptItems = override.MaxPromptItems
	}
	if override.ContentLimit > 0 {
		base.ContentLimit = override.ContentLimit
	}
	if override.MaxItems > 0 {
		base.MaxItems = override.MaxItems
	}
	if override.MinHeatScore > 0 {
		base.MinHeatScore = override.MinHeatScore
	}
	if override.MaxAttempts > 0 {
		base.MaxAttempts = override.MaxAttempts
	}
	if override.BaseBackoff > 0 {
		base.BaseBackoff = override.BaseBackoff
	}
	if override.Freshness > 0 {
		base.Freshness = override.Freshness
	}
	if override.NewsletterFresh > 0 {
		base.NewsletterFresh = override.NewsletterFresh
	}
	if override.OverridePath != "" {
		base.OverridePath = override.OverridePath
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Fetch: FetchConfig{
			Timeout:   20 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; DailyByte/1.0)",
		},
		Curator: CuratorConfig{
			Provider:        ProviderAnthropic,
			MaxPromptItems:  100,
			ContentLimit:    500,
			MaxItems:        20,
			MinHeatScore:    60,
			MaxAttempts:     3,
			BaseBackoff:     30 * time.Second,
			Freshness:       24 * time.Hour,
			NewsletterFresh: 36 * time.Hour,
		},
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
			Timeout:   120 * time.Second,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Model:     "gpt-4o-mini",
			MaxTokens: 4096,
			Timeout:   120 * time.Second,
		},
		X: XConfig{BaseURL: "https://api.twitter.com/2"},
		Buttondown: ButtondownConfig{
			Endpoint:   "https://api.buttondown.email/v1/emails",
			AuthScheme: "Token",
			Status:     "about_to_send",
			Timeout:    30 * time.Second,
		},
		Digest: DigestConfig{
			Locale:      defaultLocale,
			Timezone:    "America/Sao_Paulo",
			PreviewPath: filepath.Join(os.TempDir(), "digest_preview.md"),
		},
		State: StateConfig{
			Backend:    BackendFile,
			Dir:        os.TempDir(),
			SQLitePath: filepath.Join(os.TempDir(), "dailybyte.db"),
			RedisAddr:  "localhost:6379",
			TTL:        36 * time.Hour,
		},
		Families: defaultFamilies(),
	}
}

func defaultFamilies() []FamilyConfig {
	return []FamilyConfig{
		{
			Name:       "rss",
			Scanner:    "feed",
			SourceType: string(domain.SourceArticle),
			Cutoff:     24 * time.Hour,
			MaxItems:   20,
			Sources: []SourceConfig{
				{Name: "hacker_news", URL: "https://hnrss.org/frontpage?points=100"},
				{Name: "ars_technica", URL: "https://feeds.arstechnica.com/arstechnica/index"},
				{Name: "wired", URL: "https://www.wired.com/feed/rss"},
				{Name: "the_verge", URL: "https://www.theverge.com/rss/index.xml"},
				{Name: "reuters_tech", URL: "https://www.reuters.com/technology/rss"},
				{Name: "techcrunch_ai", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
				{Name: "mit_tech_review", URL: "https://www.technologyreview.com/feed/"},
				{Name: "arxiv_ai", URL: "http://export.arxiv.org/rss/cs.AI", SourceType: string(domain.SourcePaper)},
			},
		},
		{
			Name:       "world",
			Scanner:    "feed",
			SourceType: string(domain.SourceWorld),
			Cutoff:     24 * time.Hour,
			MaxItems:   10,
			Sources: []SourceConfig{
				{Name: "reuters_world", URL: "https://www.reuters.com/world/rss"},
				{Name: "reuters_business", URL: "https://www.reuters.com/business/rss"},
				{Name: "forbes_business", URL: "https://www.forbes.com/business/feed/"},
				{Name: "forbes_innovation", URL: "https://www.forbes.com/innovation/feed/"},
				{Name: "bbc_world", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
				{Name: "bbc_business", URL: "https://feeds.bbci.co.uk/news/business/rss.xml"},
			},
		},
		{
			Name:       "youtube",
			Scanner:    "feed",
			SourceType: string(domain.SourceVideo),
			Cutoff:     48 * time.Hour,
			MaxItems:   5,
			Sources: []SourceConfig{
				{Name: "fireship", URL: youtubeFeed("UCsBjURrPoezykLs9EqgamOA")},
				{Name: "two_minute_papers", URL: youtubeFeed("UCbfYPyITQ-7l4upoX8nvctg")},
				{Name: "ai_explained", URL: youtubeFeed("UCNF8RjQNdHcz4n4vMBhlaJQ")},
				{Name: "matt_wolfe", URL: youtubeFeed("UCJvbN6qX8gJM6Y4NRm81tSA")},
				{Name: "lex_fridman", URL: youtubeFeed("UCSHZKyawb77ixDdsGog4iWA")},
				{Name: "andrej_karpathy", URL: youtubeFeed("UCWN3xxRkmTPmbKwht9FuE5A")},
				{Name: "ai_daily_brief", URL: youtubeFeed("UCKa4vLnfLYnxKZ4fKJttGsA")},
			},
		},
		{
			Name:       "newsletter",
			Scanner:    "newsletter",
			SourceType: string(domain.SourceNewsletter),
			Cutoff:     36 * time.Hour,
			MaxItems:   5,
			Sources: []SourceConfig{
				{Name: "AiDrop", URL: "https://www.aidrop.news", Language: "pt-br", CategoryHint: "ai_models"},
				{Name: "Evolving AI", URL: "https://evolvingai.io", Language: "en", CategoryHint: "ai_models"},
				{Name: "Update Diário", URL: "https://updatediario.beehiiv.com", Language: "pt-br", CategoryHint: "world"},
				{Name: "TechDrop", URL: "https://www.techdrop.news", Language: "pt-br", CategoryHint: "saas_enterprise"},
				{Name: "AlphaSignal", URL: "https://alphasignalai.beehiiv.com", Language: "en", CategoryHint: "ai_models"},
			},
		},
		{
			Name:       "x",
			Scanner:    "social",
			SourceType: string(domain.SourceTweet),
			Cutoff:     24 * time.Hour,
			MaxItems:   10,
			Sources: handles(
				"sama", "AnthropicAI", "alexalbert__", "satyanadella", "sundarpichai", "JeffDean",
				"ylecun", "AIatMeta", "karpathy", "drfeifei", "AndrewYNg", "MistralAI", "perplexity_ai",
			),
		},
	}
}

func youtubeFeed(channelID string) string {
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + channelID
}

func handles(names ...string) []SourceConfig {
	out := make([]SourceConfig, 0, len(names))
	for _, name := range names {
		out = append(out, SourceConfig{Name: name})
	}
	return out
}
