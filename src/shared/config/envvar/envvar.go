package envvar

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ENVIRONMENT                      = "ENVIRONMENT"
	LOG_LEVEL                        = "LOG_LEVEL"
	AWS_ACCESS_KEY_ID                = "AWS_ACCESS_KEY_ID"
	AWS_SECRET_ACCESS_KEY            = "AWS_SECRET_ACCESS_KEY"
	RABBITMQ_URL                     = "RABBITMQ_URL"
	RABBITMQ_QUEUE_NAME              = "RABBITMQ_QUEUE_NAME"
	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"
	DEMUCS_BIN_PATH                  = "DEMUCS_BIN_PATH"
	DEMUCS_MODEL                     = "DEMUCS_MODEL"
	FFMPEG_BIN_PATH                  = "FFMPEG_BIN_PATH"
	REMIX_WORKING_DIR_PATH           = "REMIX_WORKING_DIR_PATH"
	REMIX_ENCODER_LADDER             = "REMIX_ENCODER_LADDER"
	REMIX_CONCURRENCY                = "REMIX_CONCURRENCY"
	REMIX_JOB_TIMEOUT                = "REMIX_JOB_TIMEOUT"
	REMIX_STALE_WORKSPACE_AGE        = "REMIX_STALE_WORKSPACE_AGE"
	REMIX_SUBMISSION_INTERVAL        = "REMIX_SUBMISSION_INTERVAL"
	REMIX_SUBMISSION_BURST           = "REMIX_SUBMISSION_BURST"
	ALLOWED_FE_ORIGINS               = "ALLOWED_FE_ORIGINS"
	GOOGLE_CLIENT_ID                 = "GOOGLE_CLIENT_ID"
	SERVER_PORT                      = "SERVER_PORT"
)

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func GetOrDefault(key string, fallback string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return fallback
	}

	return val
}

func IntOrDefault(key string, fallback int) int {
	raw := GetOrDefault(key, "")
	if raw == "" {
		return fallback
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		panic(fmt.Sprintf("Env variable %s is not an integer: %s", key, raw))
	}

	return val
}

func DurationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := GetOrDefault(key, "")
	if raw == "" {
		return fallback
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		panic(fmt.Sprintf("Env variable %s is not a duration: %s", key, raw))
	}

	return val
}
