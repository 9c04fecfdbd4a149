package config

import (
	"github.com/jackzampolin/quire/internal/convert"
	"github.com/jackzampolin/quire/internal/pdftext"
	"github.com/jackzampolin/quire/internal/reflow"
)

// Config holds quire configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Reflow  reflow.Options         `mapstructure:"reflow" yaml:"reflow" json:"reflow"`
	PDF     PDFConfig              `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	Preview convert.PreviewOptions `mapstructure:"preview" yaml:"preview" json:"preview"`
	Server  ServerConfig           `mapstructure:"server" yaml:"server" json:"server"`
}

// PDFConfig selects how PDF text is extracted.
type PDFConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"` // "text-layer", "content-stream"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        string `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Reflow: reflow.DefaultOptions(),
		PDF: PDFConfig{
			Backend: pdftext.BackendTextLayer,
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        "8080",
			MaxUploadMB: 100,
		},
	}
}

// ConvertOptions returns the conversion service options this config selects.
func (c *Config) ConvertOptions() convert.Options {
	return convert.Options{
		PDFBackend: c.PDF.Backend,
		Reflow:     c.Reflow,
	}
}
