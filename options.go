package bytesort

// Option is a functional option for configuring a sort.
type Option func(*config)

type config struct {
	scratchPath string
	outputPath  string
	checksum    bool
}

func defaultConfig() *config {
	return &config{}
}

// WithScratchPath overrides where the intermediate run file is written.
// The default is the input path with a ".runs.tmp" suffix. The scratch
// file must fit the whole input and is deleted before Sort returns,
// whether the sort succeeded or not.
func WithScratchPath(path string) Option {
	return func(c *config) {
		c.scratchPath = path
	}
}

// WithOutputPath overrides where the sorted output is written.
// The default is the input path with a ".sorted" suffix.
func WithOutputPath(path string) Option {
	return func(c *config) {
		c.outputPath = path
	}
}

// WithChecksum computes an xxhash of the sorted output while it is
// being written and reports it in Result.Checksum. The hash is folded
// in from buffers that are already hot in cache, so it costs no extra
// I/O.
func WithChecksum() Option {
	return func(c *config) {
		c.checksum = true
	}
}
