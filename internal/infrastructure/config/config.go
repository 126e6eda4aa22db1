package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Parser      ParserConfig    `mapstructure:"parser"`
	LocalLLM    LocalLLMConfig  `mapstructure:"local_llm"`
	CloudLLM    CloudLLMConfig  `mapstructure:"cloud_llm"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ParserConfig 解析核心設定
type ParserConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"` // 低於此值才升級後端
	StatusTTL           time.Duration `mapstructure:"status_ttl"`           // 後端可用性快取壽命
	MaxRetries          int           `mapstructure:"max_retries"`          // 每個後端每輪的暫態錯誤重試次數
}

// LocalLLMConfig 本地 LLM 後端設定（Ollama 相容 API）
type LocalLLMConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CloudLLMConfig 雲端 LLM 後端設定（OpenRouter）
type CloudLLMConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig 解析結果緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"` // 空字串則使用記憶體緩存
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		// .env 不存在時仍可用環境變數啟動
		fmt.Println("Warning: .env file not found")
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("cloud_llm.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("cloud_llm.model", "OPENROUTER_MODEL")
	viper.BindEnv("cloud_llm.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("local_llm.base_url", "LOCAL_LLM_BASE_URL")
	viper.BindEnv("local_llm.model", "LOCAL_LLM_MODEL")
	viper.BindEnv("parser.confidence_threshold", "PARSER_CONFIDENCE_THRESHOLD")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration",
		"cloud_llm_api_key:", maskAPIKey(viper.GetString("cloud_llm.api_key")),
		"cloud_llm_model:", viper.GetString("cloud_llm.model"),
		"local_llm_base_url:", viper.GetString("local_llm.base_url"),
	)

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-parser")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 解析核心設定
	viper.SetDefault("parser.confidence_threshold", 0.6)
	viper.SetDefault("parser.status_ttl", "60s")
	viper.SetDefault("parser.max_retries", 1)

	// 本地 LLM 設定
	viper.SetDefault("local_llm.enabled", true)
	viper.SetDefault("local_llm.base_url", "http://localhost:11434")
	viper.SetDefault("local_llm.model", "qwen2.5:7b-instruct")
	viper.SetDefault("local_llm.timeout", "8s")

	// 雲端 LLM 設定
	viper.SetDefault("cloud_llm.enabled", false)
	viper.SetDefault("cloud_llm.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("cloud_llm.max_tokens", 2048)
	viper.SetDefault("cloud_llm.timeout", "30s")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.redis_addr", "")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 新增 dedup window 預設
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證解析核心設定
	if config.Parser.ConfidenceThreshold <= 0 || config.Parser.ConfidenceThreshold > 1 {
		return fmt.Errorf("invalid parser confidence threshold")
	}
	if config.Parser.StatusTTL <= 0 {
		return fmt.Errorf("invalid parser status ttl")
	}
	if config.Parser.MaxRetries < 0 {
		return fmt.Errorf("invalid parser max retries")
	}

	// 驗證 LLM 後端設定
	if config.LocalLLM.Enabled && config.LocalLLM.BaseURL == "" {
		return fmt.Errorf("local llm base url is required")
	}
	if config.CloudLLM.Enabled && config.CloudLLM.APIKey == "" {
		return fmt.Errorf("cloud llm api key is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	return nil
}
