// Package config handles configuration loading for lex-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML (or TOML, by .toml extension) file with
// environment variable expansion. Missing fields receive defaults, so an
// empty file is a valid configuration.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LEX_GATEWAY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/lex-gateway/gateway.yaml
//  3. ~/.config/lex-gateway/gateway.yaml
//
// When no file exists, [Default] is used.
//
// # Environment Variables
//
// Values can reference environment variables:
//
//	mqtt:
//	  password: "${MQTT_PASS}"
//
// The variables used by the Lambda deployment are also honored
// directly and override the file: RASA_HOST, MQTT_HOST, MQTT_PORT,
// MQTT_USER, MQTT_PASS, LEX_GATEWAY_DB_PATH, LEX_GATEWAY_SESSIONS_BACKEND,
// LEX_GATEWAY_SESSIONS_TABLE and TZ_NAME. AWS_REGION fills sessions.region
// when it is unset. Under Lambda a sqlite store on a relative path becomes
// dynamodb unless LEX_GATEWAY_SESSIONS_BACKEND says otherwise.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
//	webhook:
//	  host: "rasa:5005"              # -> http://rasa:5005/webhooks/rest/webhook
//	  url: ""                         # full URL, overrides host
//	  timeout: "30s"
//
//	sessions:
//	  backend: "sqlite"               # sqlite, dynamodb, memory
//	  path: "/var/lib/lex-gateway/sessions.db"
//	  table: "ris-sessions"
//	  region: "us-west-2"
//	  endpoint: ""                    # e.g. http://localhost:8000 for DynamoDB Local
//	  cache_ttl: "30m"
//	  cache_size: 10000               # negative ttl or size disables the cache
//
//	mqtt:                             # side channel is off unless host, username and password are set
//	  host: "broker.local"
//	  port: 1883
//	  username: "${MQTT_USER}"
//	  password: "${MQTT_PASS}"
//	  client_id: "lambdaRasa"
//	  topic_prefix: "rasa/lex"
//	  publish_timeout: "5s"
//
//	identity:
//	  phone_attribute: "PhoneNumber"
//	  conversation_attribute: "ContactId"
//	  fallback_sender: "lex"
//
//	timezone: "America/Los_Angeles"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
