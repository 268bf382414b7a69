package broker

import "context"

// Method is a way of reading a price from the primary provider.
type Method string

const (
	// MethodSnapshot reads the regular market price from the chart metadata.
	MethodSnapshot Method = "snapshot"
	// MethodIntraday reads today's 5 minute bars: last close against the first open.
	MethodIntraday Method = "intraday"
	// MethodDaily reads the last five daily bars: last close against the previous close.
	MethodDaily Method = "daily"
)

// DefaultMethods is the order in which tries rotate through the retrieval methods.
var DefaultMethods = []Method{MethodSnapshot, MethodIntraday, MethodDaily}

// Request is a single quote request to a provider.
type Request struct {
	Symbol    string
	Method    Method // ignored by providers with a single endpoint
	UserAgent string
}

// Provider is a source of quotes. Implementations never return errors directly, every failure
// is classified into the Result.
type Provider interface {
	Name() string
	Quote(ctx context.Context, r Request) Result
}
