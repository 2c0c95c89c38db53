package types

// ProjectConfig represents the top-level accredit.yaml configuration.
// Every scalar can be overridden from the environment (ACCREDIT_*).
type ProjectConfig struct {
	Provider  string           `yaml:"provider" env:"ACCREDIT_PROVIDER"`
	SQLite    *SQLiteConfig    `yaml:"sqlite,omitempty" envPrefix:"ACCREDIT_SQLITE_"`
	Postgres  *PostgresConfig  `yaml:"postgres,omitempty" envPrefix:"ACCREDIT_POSTGRES_"`
	DynamoDB  *DynamoDBConfig  `yaml:"dynamodb,omitempty" envPrefix:"ACCREDIT_DYNAMODB_"`
	Redis     *RedisConfig     `yaml:"redis,omitempty" envPrefix:"ACCREDIT_REDIS_"`
	Server    *ServerConfig    `yaml:"server,omitempty" envPrefix:"ACCREDIT_SERVER_"`
	Ingest    *IngestConfig    `yaml:"ingest,omitempty" envPrefix:"ACCREDIT_INGEST_"`
	Listing   *ListingConfig   `yaml:"listing,omitempty" envPrefix:"ACCREDIT_LISTING_"`
	Breaker   *BreakerConfig   `yaml:"breaker,omitempty" envPrefix:"ACCREDIT_BREAKER_"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty" envPrefix:"ACCREDIT_TELEMETRY_"`
	Notify    *NotifyConfig    `yaml:"notify,omitempty" envPrefix:"ACCREDIT_NOTIFY_"`
	Archive   *ArchiveConfig   `yaml:"archive,omitempty" envPrefix:"ACCREDIT_ARCHIVE_"`
	Watchdog  *WatchdogConfig  `yaml:"watchdog,omitempty" envPrefix:"ACCREDIT_WATCHDOG_"`
	Alerts    []AlertConfig    `yaml:"alerts,omitempty" envPrefix:"ACCREDIT_ALERTS_"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path" env:"PATH"`
}

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn" json:"dsn" env:"DSN"`
}

// DynamoDBConfig holds DynamoDB connection and table settings.
type DynamoDBConfig struct {
	TableName   string `yaml:"tableName" json:"tableName" env:"TABLE_NAME"`
	Region      string `yaml:"region" json:"region" env:"REGION"`
	Endpoint    string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" env:"ENDPOINT"`
	CreateTable bool   `yaml:"createTable,omitempty" json:"createTable,omitempty" env:"CREATE_TABLE"`
}

// RedisConfig holds Redis/Valkey connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password,omitempty" env:"PASSWORD"`
	DB        int    `yaml:"db,omitempty" env:"DB"`
	KeyPrefix string `yaml:"keyPrefix" env:"KEY_PREFIX"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string `yaml:"addr" env:"ADDR"`
	APIKey         string `yaml:"apiKey,omitempty" env:"API_KEY"`
	APIKeySecretID string `yaml:"apiKeySecretId,omitempty" env:"API_KEY_SECRET_ID"` // Secrets Manager id; overrides apiKey
	MaxRequestBody int64  `yaml:"maxRequestBody,omitempty" env:"MAX_REQUEST_BODY"`
}

// IngestConfig controls spreadsheet extraction and projection fan-out.
type IngestConfig struct {
	// StudentIDLength is the exact digit count a student identifier must have.
	StudentIDLength int          `yaml:"studentIdLength" env:"STUDENT_ID_LENGTH"`
	Policy          IngestPolicy `yaml:"policy" env:"POLICY"`
}

// ListingConfig controls reconstruction and pagination defaults.
type ListingConfig struct {
	FlattenPolicy   FlattenPolicy `yaml:"flattenPolicy" env:"FLATTEN_POLICY"`
	DefaultPageSize int           `yaml:"defaultPageSize" env:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int           `yaml:"maxPageSize" env:"MAX_PAGE_SIZE"`
}

// BreakerConfig wraps storage calls in circuit breakers.
type BreakerConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	FailThreshold int    `yaml:"failThreshold,omitempty" env:"FAIL_THRESHOLD"`
	Cooldown      string `yaml:"cooldown,omitempty" env:"COOLDOWN"`
}

// TelemetryConfig configures OTLP export. An empty endpoint disables export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty" env:"OTLP_ENDPOINT"`
	ServiceName  string `yaml:"serviceName,omitempty" env:"SERVICE_NAME"`
	Insecure     bool   `yaml:"insecure,omitempty" env:"INSECURE"`
}

// NotifyConfig configures ingestion notifications.
type NotifyConfig struct {
	EventBusName string `yaml:"eventBusName,omitempty" env:"EVENT_BUS_NAME"`
	Source       string `yaml:"source,omitempty" env:"SOURCE"`
}

// ArchiveConfig copies complete observations from the primary provider into
// a second one on a fixed interval. The destination reuses the matching
// provider section (sqlite, postgres, redis or dynamodb).
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Provider string `yaml:"provider" env:"PROVIDER"`
	Interval string `yaml:"interval,omitempty" env:"INTERVAL"`
}

// WatchdogConfig controls the background scan for observations that stayed
// incomplete past a grace period.
type WatchdogConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Interval string `yaml:"interval,omitempty" env:"INTERVAL"`
	Grace    string `yaml:"grace,omitempty" env:"GRACE"`
}

// AlertConfig defines an alert sink configuration. From the environment,
// sinks are indexed: ACCREDIT_ALERTS_0_TYPE, ACCREDIT_ALERTS_0_URL, ...
type AlertConfig struct {
	Type       AlertType  `yaml:"type" json:"type" env:"TYPE"`
	MinLevel   AlertLevel `yaml:"minLevel,omitempty" json:"minLevel,omitempty" env:"MIN_LEVEL"`
	URL        string     `yaml:"url,omitempty" json:"url,omitempty" env:"URL"`
	Path       string     `yaml:"path,omitempty" json:"path,omitempty" env:"PATH"`
	BucketName string     `yaml:"bucketName,omitempty" json:"bucketName,omitempty" env:"BUCKET_NAME"`
	Prefix     string     `yaml:"prefix,omitempty" json:"prefix,omitempty" env:"PREFIX"`
}
