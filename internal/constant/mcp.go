package constant

const (
	MCPProtocolVersion = "2024-11-05"
	MCPJSONRPCVersion  = "2.0"

	ClientOrderIDStockPrefix  = "order_"
	ClientOrderIDOptionPrefix = "mcp_opt_"

	MaxOptionLegs = 4

	DefaultStockFeed  = "iex"
	DefaultStreamFeed = "iex"
)
