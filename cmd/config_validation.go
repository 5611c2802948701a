package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates the loaded settings before anything is dialed.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.Shared.Get(key)
	})
}

// validateStartupConfigWithGetter reports every malformed value at once.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateAdminConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)
	validateDBConfig(get, &validationErrs)
	validateMediaConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

func validateAdminConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.secret", errs)
	validateOptionalIntMin(get, "settings.admin.token_ttl_hours", 1, errs)
	validateOptionalBool(get, "settings.admin.cookie_secure", errs)
	validateOptionalIntMin(get, "settings.admin.login_max_failures", 1, errs)
	validateOptionalIntMin(get, "settings.admin.login_lock_seconds", 1, errs)
}

func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.web.static_dir", errs)
	validateOptionalBool(get, "settings.web.enable_metric", errs)
	validateOptionalIntMin(get, "settings.web.max_upload_images", 1, errs)
	validateOptionalIntMin(get, "settings.web.multipart_memory_mb", 1, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.total_per_sec", 0, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.total_burst", 0, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.client_per_sec", 0, errs)
	validateOptionalIntMin(get, "settings.web.rate_limit.client_burst", 0, errs)
	validateCORSOrigins(get, errs)
}

// validateCORSOrigins accepts "*", "*.domain" and absolute origins.
func validateCORSOrigins(get configGetter, errs *[]string) {
	const key = "settings.web.cors_origins"
	raw := get(key)
	if raw == nil {
		return
	}

	origins, ok := toStringSlice(raw)
	if !ok {
		appendValidationError(errs, "%s must be a list of strings", key)
		return
	}

	for i, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "*":
		case strings.HasPrefix(origin, "*."):
			if len(origin) == 2 || strings.ContainsAny(origin[2:], "/:*") {
				appendValidationError(errs, "%s[%d] must be a valid wildcard domain", key, i)
			}
		default:
			parsed, err := url.Parse(origin)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				appendValidationError(errs, "%s[%d] must be an absolute origin", key, i)
			}
		}
	}
}

func validateDBConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.db.blog.addr", errs)
	validateOptionalStringNonEmpty(get, "settings.db.blog.db", errs)
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
}

func validateMediaConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.media.concurrency", 1, errs)
	validateOptionalIntMin(get, "settings.media.max_width", 0, errs)
	validateOptionalBool(get, "settings.media.minio.secure", errs)
	validateOptionalURL(get, "settings.media.minio.public_url", errs)
	validateOptionalStringNonEmpty(get, "settings.media.local.dir", errs)

	raw := get("settings.media.driver")
	if raw == nil {
		return
	}
	driver, err := parseStrictString(raw)
	if err != nil {
		appendValidationError(errs, "settings.media.driver must be a string")
		return
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case mediaDriverLocal:
	case mediaDriverMinio:
		for _, key := range []string{
			"settings.media.minio.endpoint",
			"settings.media.minio.bucket",
		} {
			if get(key) == nil {
				appendValidationError(errs, "%s is required when settings.media.driver is minio", key)
			}
		}
		validateOptionalStringNonEmpty(get, "settings.media.minio.endpoint", errs)
		validateOptionalStringNonEmpty(get, "settings.media.minio.bucket", errs)
	default:
		appendValidationError(errs, "settings.media.driver must be one of [%s, %s]", mediaDriverLocal, mediaDriverMinio)
	}
}

// validateOptionalBool validates an optionally configured boolean key.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// appendValidationError appends a formatted validation error to the collector.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}

// toStringSlice accepts both []string and the []any yaml decoding produces.
func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
