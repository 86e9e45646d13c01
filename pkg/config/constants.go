package config

const (
	EnvPrefix = "SHIPBRIDGE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SHIPBRIDGE_APP_ENV"
	EnvPort     = "SHIPBRIDGE_APP_PORT"
	EnvLogLevel = "SHIPBRIDGE_LOG_LEVEL"

	EnvLocalPath = "SHIPBRIDGE_LOCAL_PATH"
	EnvStatePath = "SHIPBRIDGE_STATE_PATH"

	EnvRemoteURL     = "SHIPBRIDGE_REMOTE_URL"
	EnvRemoteAPIKey  = "SHIPBRIDGE_REMOTE_API_KEY"
	EnvRemoteUser    = "SHIPBRIDGE_REMOTE_USER"
	EnvRemoteTimeout = "SHIPBRIDGE_REMOTE_REQUEST_TIMEOUT"

	EnvRedisURL = "SHIPBRIDGE_REDIS_URL"

	EnvDeletionPolicy  = "SHIPBRIDGE_DELETION_POLICY"
	EnvChangeTransport = "SHIPBRIDGE_CHANGE_TRANSPORT"
	EnvChangeDebounce  = "SHIPBRIDGE_CHANGE_DEBOUNCE"
	EnvAutoMigrate     = "SHIPBRIDGE_AUTO_MIGRATE"
)
