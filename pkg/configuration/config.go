package configuration

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds the application settings parsed from an INI-style file.
type Config struct {
	settings map[string]map[string]string
	filePath string
	mu       sync.RWMutex
}

var (
	globalConfig *Config
	once         sync.Once
)

// Initialize loads the global configuration. If the file does not exist a
// default configuration is written first. A settings.local.cfg next to the
// binary overrides individual keys and is never written back.
func Initialize(configPath string) error {
	var err error
	once.Do(func() {
		globalConfig, err = loadConfig(configPath)
		if err != nil {
			return
		}
		localConfigPath := "settings.local.cfg"
		if _, statErr := os.Stat(localConfigPath); statErr == nil {
			// Local overrides are optional; a parse failure keeps the base config.
			_ = globalConfig.mergeFile(localConfigPath)
		}
	})
	return err
}

func loadConfig(filePath string) (*Config, error) {
	config := &Config{
		settings: make(map[string]map[string]string),
		filePath: filePath,
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		config.createDefaultConfig()
		if err := config.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}
	if err := config.mergeFile(filePath); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile parses an INI-style file into the settings map, overriding
// already-present keys.
func (c *Config) mergeFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	currentSection := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = line[1 : len(line)-1]
			if c.settings[currentSection] == nil {
				c.settings[currentSection] = make(map[string]string)
			}
			continue
		}
		if currentSection != "" && strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			c.settings[currentSection][key] = value
		}
	}
	return scanner.Err()
}

// createDefaultConfig fills in every key the server reads, so a fresh
// installation starts without manual editing.
func (c *Config) createDefaultConfig() {
	c.settings["Server"] = map[string]string{
		"bind_address":     ":8080",
		"static_dir":       "static",
		"allowed_origin":   "",
		"max_message_size": "8192",
	}
	c.settings["TLS"] = map[string]string{
		"enabled":      "false",
		"domains":      "",
		"cache_dir":    "certs",
		"bind_address": ":443",
	}
	c.settings["Database"] = map[string]string{
		"path":               "basic64.db",
		"max_file_size":      "65536",
		"max_files_per_user": "64",
	}
	c.settings["Basic"] = map[string]string{
		"max_gosub_depth":     "64",
		"max_for_depth":       "32",
		"default_array_bound": "10",
		"output_buffer":       "256",
	}
	c.settings["Network"] = map[string]string{
		"patch_base_url": "https://raw.githubusercontent.com/antibyte/basic64/master/patch/",
		"fetch_timeout":  "15s",
		"max_fetch_size": "262144",
	}
	c.settings["Session"] = map[string]string{
		"jwt_secret":       "",
		"token_lifetime":   "24h",
		"pong_wait":        "60s",
		"max_idle":         "30m",
		"cleanup_interval": "1m",
	}
	c.settings["Debug"] = map[string]string{
		"enable_logging": "true",
		"log_file":       "debug.log",
		"log_level":      "info",
		"max_log_size":   "10485760",
		"log_basic":      "true",
		"log_terminal":   "true",
		"log_websocket":  "false",
		"log_auth":       "true",
		"log_database":   "false",
		"log_filesystem": "false",
		"log_network":    "true",
		"log_session":    "false",
		"log_config":     "true",
		"log_general":    "true",
	}
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	file, err := os.Create(c.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	file.WriteString("; basic64 configuration file\n")
	file.WriteString("; Generated automatically - modify with care\n")
	file.WriteString(";\n\n")

	sections := []string{"Server", "TLS", "Database", "Basic", "Network", "Session", "Debug"}
	for _, section := range sections {
		settings, exists := c.settings[section]
		if !exists {
			continue
		}
		fmt.Fprintf(file, "[%s]\n", section)
		for key, value := range settings {
			fmt.Fprintf(file, "%s = %s\n", key, value)
		}
		file.WriteString("\n")
	}
	return nil
}

// GetString returns a string value from the configuration.
func GetString(section, key, defaultValue string) string {
	if globalConfig == nil {
		return defaultValue
	}
	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()
	if sectionMap, exists := globalConfig.settings[section]; exists {
		if value, exists := sectionMap[key]; exists {
			return value
		}
	}
	return defaultValue
}

// GetInt returns an integer value from the configuration.
func GetInt(section, key string, defaultValue int) int {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(str); err == nil {
		return value
	}
	return defaultValue
}

// GetBool returns a boolean value from the configuration.
func GetBool(section, key string, defaultValue bool) bool {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(str); err == nil {
		return value
	}
	return defaultValue
}

// GetDuration returns a duration value from the configuration.
func GetDuration(section, key string, defaultValue time.Duration) time.Duration {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(str); err == nil {
		return value
	}
	return defaultValue
}

// GetSection returns a copy of all key-value pairs in a section.
func GetSection(sectionName string) map[string]string {
	result := make(map[string]string)
	if globalConfig == nil {
		return result
	}
	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()
	for key, value := range globalConfig.settings[sectionName] {
		result[key] = value
	}
	return result
}

// SetString sets a value in the configuration (in memory only; use Save to
// persist).
func SetString(section, key, value string) {
	if globalConfig == nil {
		return
	}
	globalConfig.mu.Lock()
	defer globalConfig.mu.Unlock()
	if globalConfig.settings[section] == nil {
		globalConfig.settings[section] = make(map[string]string)
	}
	globalConfig.settings[section][key] = value
}

// Save writes the current configuration back to its file.
func Save() error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}
	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()
	return globalConfig.saveToFile()
}
