package host

// Config contains window and pacing settings for the windowed host.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbcore"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
}
