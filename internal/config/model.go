package config

type ServerCfg struct {
	Listen               string `json:"listen"`
	ReadHeaderTimeoutSec int    `json:"readHeaderTimeoutSec"`
	// PublicOrigin is used in share texts when the page cannot report its own origin.
	PublicOrigin string `json:"publicOrigin"`
}

type LoggingCfg struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
}

type LimitsCfg struct {
	MaxUploadBytes  int64 `json:"maxUploadBytes"`
	MaxMessageBytes int   `json:"maxMessageBytes"`
	// MaxPixels caps the declared width*height of an upload before decoding.
	MaxPixels int `json:"maxPixels"`
}

type CryptoCfg struct {
	KDFIterations int `json:"kdfIterations"`
}

type QRCfg struct {
	Size            int    `json:"size"`
	Level           string `json:"level"` // low|medium|high|highest
	MaxContentBytes int    `json:"maxContentBytes"`
}

type LedgerCfg struct {
	Path           string `json:"path"`
	RetentionHours int    `json:"retentionHours"`
}

type UICfg struct {
	AssetsDir string `json:"assetsDir"`
	Title     string `json:"title"`
}

type Config struct {
	Version int        `json:"version"`
	Server  ServerCfg  `json:"server"`
	Logging LoggingCfg `json:"logging"`
	Limits  LimitsCfg  `json:"limits"`
	Crypto  CryptoCfg  `json:"crypto"`
	QR      QRCfg      `json:"qr"`
	Ledger  LedgerCfg  `json:"ledger"`
	UI      UICfg      `json:"ui"`
}
