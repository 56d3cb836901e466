package common

import (
	"github.com/futig/fundqa-bot/internal/config"
	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds a connector with the shared timeout, TLS and logging policy.
// Extra options (auth) are applied after the defaults.
func NewBaseConnector(
	baseURL string,
	cfg config.HTTPClientConfig,
	insecureSkipVerify bool,
	logger *zap.Logger,
	opts ...pkgHTTP.HttpOpts,
) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: baseURL,
	}

	if insecureSkipVerify {
		logger.Warn("TLS certificate verification disabled", zap.String("base_url", baseURL))
	}

	options := append(HTTPOptions(cfg),
		pkgHTTP.WithInsecureSkipVerify(insecureSkipVerify),
		pkgHTTP.WithRequestLogging(),
	)

	return pkgHTTP.NewConnector(connCfg, append(options, opts...)...)
}

// HTTPOptions converts the configured timeouts, skipping zero values so the
// client defaults stay in place. RequestTimeout zero means no deadline. The
// response header timeout follows RequestTimeout unless set on its own.
func HTTPOptions(cfg config.HTTPClientConfig) []pkgHTTP.HttpOpts {
	headerTimeout := cfg.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = cfg.RequestTimeout
	}

	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithResponseHeaderTimeout(headerTimeout),
	}
	if cfg.ConnTimeout > 0 {
		opts = append(opts, pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout))
	}
	if cfg.KeepAlive > 0 {
		opts = append(opts, pkgHTTP.WithClientKeepAlive(cfg.KeepAlive))
	}
	if cfg.IdleConnTimeout > 0 {
		opts = append(opts, pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout))
	}
	return opts
}
