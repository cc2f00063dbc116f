package tls

import (
	cryptotls "crypto/tls"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
)

// Enabled reports whether TLS serving is configured.
func Enabled() bool {
	return configuration.GetBool("TLS", "enabled", false)
}

// NewManager builds an autocert manager for the configured domains.
func NewManager() *autocert.Manager {
	domains := strings.Split(configuration.GetString("TLS", "domains", ""), ",")
	for i := range domains {
		domains[i] = strings.TrimSpace(domains[i])
	}
	cacheDir := configuration.GetString("TLS", "cache_dir", "certs")
	logger.Info(logger.AreaGeneral, "autocert enabled for %v, cache %s", domains, cacheDir)
	return &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}
}

// Serve runs the handler over HTTPS with automatic certificates, plus a
// plain HTTP listener for ACME challenges and redirects.
func Serve(handler http.Handler) error {
	manager := NewManager()
	server := &http.Server{
		Addr:         configuration.GetString("TLS", "bind_address", ":443"),
		Handler:      handler,
		TLSConfig:    &cryptotls.Config{GetCertificate: manager.GetCertificate, MinVersion: cryptotls.VersionTLS12},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
	}
	go func() {
		redirect := manager.HTTPHandler(nil)
		if err := http.ListenAndServe(":80", redirect); err != nil {
			logger.Error(logger.AreaGeneral, "http challenge listener: %v", err)
		}
	}()
	return server.ListenAndServeTLS("", "")
}
