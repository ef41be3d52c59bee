package rope

// Default tree geometry. These match the sweet spot for source-file editing:
// chunks large enough to amortize per-chunk bookkeeping, small enough that
// copying a chunk on edit stays cheap.
const (
	// DefaultMinChunkSize is the minimum bytes per chunk (except the last).
	DefaultMinChunkSize = 128

	// DefaultMaxChunkSize is the maximum bytes per chunk before splitting.
	DefaultMaxChunkSize = 256

	// DefaultLeafFanout is the maximum chunks held by a leaf node.
	DefaultLeafFanout = 4

	// DefaultBranchFanout is the maximum children per internal node.
	DefaultBranchFanout = 8
)

// config holds the tree geometry for a rope. It is set at construction time
// and inherited by every rope derived from the original, so a terminal
// scrollback buffer and a source-file buffer can each tune chunk sizes for
// their access pattern without affecting one another.
type config struct {
	minChunk     int
	maxChunk     int
	targetChunk  int
	leafFanout   int
	branchFanout int
}

// defaultConfig is shared by all ropes built without options.
var defaultConfig = &config{
	minChunk:     DefaultMinChunkSize,
	maxChunk:     DefaultMaxChunkSize,
	targetChunk:  (DefaultMinChunkSize + DefaultMaxChunkSize) / 2,
	leafFanout:   DefaultLeafFanout,
	branchFanout: DefaultBranchFanout,
}

// Option configures a rope at construction time.
type Option func(*config)

// WithChunkSize sets the minimum and maximum chunk size in bytes.
// Values are ignored unless 0 < min <= max.
func WithChunkSize(min, max int) Option {
	return func(c *config) {
		if min > 0 && max >= min {
			c.minChunk = min
			c.maxChunk = max
			c.targetChunk = (min + max) / 2
		}
	}
}

// WithLeafFanout sets the maximum number of chunks per leaf node.
func WithLeafFanout(chunks int) Option {
	return func(c *config) {
		if chunks > 0 {
			c.leafFanout = chunks
		}
	}
}

// WithBranchFanout sets the maximum number of children per internal node.
// A minimum of 2 is enforced; lower fanouts cannot form a tree.
func WithBranchFanout(children int) Option {
	return func(c *config) {
		if children >= 2 {
			c.branchFanout = children
		}
	}
}

// newConfig builds a config from options, returning the shared default when
// no option changes anything.
func newConfig(opts []Option) *config {
	if len(opts) == 0 {
		return defaultConfig
	}
	cfg := *defaultConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg == *defaultConfig {
		return defaultConfig
	}
	return &cfg
}
