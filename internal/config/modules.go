package config

import (
	_ "github.com/atelier-press/atelier/internal/thumbformat/avif"
	_ "github.com/atelier-press/atelier/internal/thumbformat/jpeg"
	_ "github.com/atelier-press/atelier/internal/thumbformat/png"
)
