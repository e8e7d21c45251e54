package config

const configTemplate = `# sigclock configuration file

# Region used for signing (falls back to AWS_REGION / AWS_DEFAULT_REGION)
region: us-east-1

# Static credentials (prefer AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN)
credentials:
  # access_key_id: AKIA...
  # secret_access_key: ...
  # session_token: ...

# Per-service endpoint overrides (optional)
#endpoints:
#  kms: https://kms.eu-west-1.amazonaws.com
#  s3: http://localhost:9000

# Reference clock used by 'sigclock check'
ntp:
  server: pool.ntp.org
  timeout: 5s

# Observability settings
log_level: info  # debug, info, warn, error
`
