package config

import "time"

// Application constants
const (
	AppName   = "radiomics-reshaper"
	EnvPrefix = "RADIOMICS"

	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	DefaultRequestTimeout    = 2 * time.Minute
	DefaultProcessingTimeout = 90 * time.Second

	DefaultMaxUploadBytes int64 = 100 << 20 // 100MB
	DefaultInputSheet           = "Feuil1"
	DefaultOutputSheet          = "Sheet1"
	DefaultPreviewRows          = 10
	DefaultStatColumns          = 50

	DefaultDownloadsDir    = "data/downloads"
	DefaultDownloadTTL     = time.Hour
	DefaultJanitorInterval = 10 * time.Minute

	DefaultMaxConcurrent int64 = 4

	DefaultLogFile = "logs/app.log"
)
