package common

const (
	AppName = "dockmcp"

	MCPProtocolVersion = "2024-11-05"
	MCPServerName      = "dockmcp"

	ResourceURIPrefix   = "container/"
	ResourceURITemplate = "container/{id}"
)

const (
	EnvDockerBinary = "DOCKMCP_DOCKER"
	EnvListen       = "DOCKMCP_LISTEN"
	EnvLogLevel     = "DOCKMCP_LOG_LEVEL"

	DefaultConfigFileName = "dockmcp.yaml"
	DefaultListenAddress  = ":8080"

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	HeaderSessionID = "Mcp-Session-Id"
)
