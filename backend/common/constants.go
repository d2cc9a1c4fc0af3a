package common

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var Version = "v0.1.0"

// Command line flags
var (
	Port          = flag.Int("port", 3000, "the listening port")
	PrintVersion  = flag.Bool("version", false, "print version and exit")
	PrintHelpFlag = flag.Bool("help", false, "print help and exit")
	LogDir        = flag.String("log-dir", "", "specify the log directory")
)

// Secrets are regenerated on every start unless configured, which invalidates
// existing sessions and tokens.
var (
	SessionSecret    = uuid.New().String()
	JWTSecret        = uuid.New().String()
	JWTRefreshSecret = uuid.New().String()
)

var SQLitePath = "data/formbox.db"

// Upload limits and storage locations. Read once at startup, no hot reload.
var (
	MaxFileSize      int64 = 10 * 1024 * 1024
	AllowedMimeTypes       = []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain",
		"text/csv",
	}
	StorageDir  = "data/storage"
	TempDir     = "data/tmp"
	ScanEnabled = true
)

// Role constants
const (
	RoleGuestUser  = 0
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

// Status constants
const (
	UserStatusEnabled  = 1
	UserStatusDisabled = 2
)

func PrintHelp() {
	println("formbox " + Version)
	println("Usage: formbox [--port <port>] [--log-dir <log directory>]")
}

// LoadConfig applies the config file first, then environment variables on top.
func LoadConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	applyEnvOverrides()
	return nil
}

func applyEnvOverrides() {
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		SessionSecret = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		JWTSecret = v
		if os.Getenv("JWT_REFRESH_SECRET") == "" {
			JWTRefreshSecret = v
		}
	}
	if v := os.Getenv("JWT_REFRESH_SECRET"); v != "" {
		JWTRefreshSecret = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		SQLitePath = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		StorageDir = v
	}
	if v := os.Getenv("TEMP_DIR"); v != "" {
		TempDir = v
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size > 0 {
			MaxFileSize = size
		}
	}
	if v := os.Getenv("ALLOWED_MIME_TYPES"); v != "" {
		var types []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			AllowedMimeTypes = types
		}
	}
	if v := os.Getenv("SCAN_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			ScanEnabled = enabled
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if portInt, err := strconv.Atoi(v); err == nil {
			*Port = portInt
		}
	}
}
